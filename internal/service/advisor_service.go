package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/storelens/advisor/internal/dto"
	"github.com/storelens/advisor/internal/model"
	"github.com/storelens/advisor/internal/repository"
	"gorm.io/gorm"
)

// AdvisorService is the storefront-facing entry point: it turns submitted
// quiz answers into a ranked recommendation list, records the attempt and
// maintains the quiz funnel counters.
type AdvisorService interface {
	Calculate(ctx context.Context, req dto.CalculateRequest, userAgent string) (*dto.CalculateResponse, error)
	StartQuiz(ctx context.Context, quizID uint) (*dto.QuizResponseDTO, error)
	GetQuiz(ctx context.Context, quizID uint) (*dto.QuizResponseDTO, error)
}

type advisorService struct {
	quizRepo    repository.QuizRepository
	ruleRepo    repository.RuleRepository
	catalogRepo repository.CatalogRepository
	scoring     ScoringService
	recorder    SessionRecorder
}

func NewAdvisorService(
	quizRepo repository.QuizRepository,
	ruleRepo repository.RuleRepository,
	catalogRepo repository.CatalogRepository,
	scoring ScoringService,
	recorder SessionRecorder,
) AdvisorService {
	return &advisorService{
		quizRepo:    quizRepo,
		ruleRepo:    ruleRepo,
		catalogRepo: catalogRepo,
		scoring:     scoring,
		recorder:    recorder,
	}
}

func (s *advisorService) Calculate(ctx context.Context, req dto.CalculateRequest, userAgent string) (*dto.CalculateResponse, error) {
	if len(req.Answers) == 0 {
		return nil, fmt.Errorf("%w: answers must not be empty", ErrInvalidInput)
	}

	quiz, err := s.quizRepo.FindByID(ctx, req.QuizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz %d: %w", req.QuizID, ErrNotFound)
		}
		log.Error().Err(err).Uint("quizID", req.QuizID).Msg("Calculate: quiz lookup failed")
		return nil, fmt.Errorf("quiz lookup: %w", ErrDependencyUnavailable)
	}
	if !quiz.IsActive {
		return nil, fmt.Errorf("quiz %d: %w", req.QuizID, ErrQuizInactive)
	}

	selected := make(map[uint]bool)
	answers := make([]model.SelectedAnswers, 0, len(req.Answers))
	for _, entry := range req.Answers {
		if len(entry.AnswerIDs) == 0 {
			return nil, fmt.Errorf("%w: question %d has no answer ids", ErrInvalidInput, entry.QuestionID)
		}
		for _, id := range entry.AnswerIDs {
			selected[id] = true
		}
		answers = append(answers, model.SelectedAnswers{QuestionID: entry.QuestionID, AnswerIDs: entry.AnswerIDs})
	}

	rules, err := s.ruleRepo.FindActiveByQuiz(ctx, quiz.ID)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quiz.ID).Msg("Calculate: rule load failed")
		return nil, fmt.Errorf("rule load: %w", ErrDependencyUnavailable)
	}

	candidates := s.scoring.Score(rules, selected)

	results, totalMatched, err := s.resolveCandidates(ctx, candidates, quiz.ResultsCount)
	if err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	// Recording and the completion counter are fire-and-forget: the
	// storefront gets its recommendations even if analytics plumbing is
	// degraded.
	s.recorder.Record(RecordRequest{
		QuizID:    quiz.ID,
		StoreID:   quiz.StoreID,
		SessionID: sessionID,
		Answers:   answers,
		Results:   toSnapshots(results),
		UserAgent: userAgent,
	})
	if err := s.quizRepo.IncrementCompletions(ctx, quiz.ID); err != nil {
		log.Error().Err(err).Uint("quizID", quiz.ID).Msg("Calculate: failed to increment total_completions")
	}

	return &dto.CalculateResponse{
		Results:              results,
		SessionID:            sessionID,
		TotalProductsMatched: totalMatched,
	}, nil
}

// resolveCandidates joins surviving candidates with catalog metadata in one
// batch read, drops products the catalog no longer sells, ranks and caps the
// list. Returns the capped results plus the pre-cap survivor count.
func (s *advisorService) resolveCandidates(ctx context.Context, candidates []Candidate, resultsCount int) ([]dto.RecommendationDTO, int, error) {
	if len(candidates) == 0 {
		return []dto.RecommendationDTO{}, 0, nil
	}

	ids := make([]uint, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ProductID)
	}
	products, err := s.catalogRepo.ActiveByIDs(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("Calculate: catalog lookup failed")
		return nil, 0, fmt.Errorf("catalog lookup: %w", ErrDependencyUnavailable)
	}
	byID := make(map[uint]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	results := make([]dto.RecommendationDTO, 0, len(candidates))
	for _, c := range candidates {
		product, ok := byID[c.ProductID]
		if !ok {
			// The catalog is the source of truth for sellability; a rule
			// pointing at a vanished product is not an error.
			continue
		}
		results = append(results, dto.RecommendationDTO{
			ProductID:       product.ID,
			Title:           product.Title,
			Handle:          product.Handle,
			ImageURL:        product.ImageURL,
			Price:           product.Price,
			CompareAtPrice:  product.CompareAtPrice,
			Score:           c.Score,
			MatchPercentage: MatchPercentage(c.Score, c.MaxPossible),
		})
	}

	// Rank by score, ties broken by ascending product id so identical inputs
	// always produce identical output order.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ProductID < results[j].ProductID
	})

	totalMatched := len(results)
	if resultsCount > 0 && len(results) > resultsCount {
		results = results[:resultsCount]
	}
	return results, totalMatched, nil
}

func (s *advisorService) StartQuiz(ctx context.Context, quizID uint) (*dto.QuizResponseDTO, error) {
	resp, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.quizRepo.IncrementStarts(ctx, quizID); err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Msg("StartQuiz: failed to increment total_starts")
	}
	return resp, nil
}

func (s *advisorService) GetQuiz(ctx context.Context, quizID uint) (*dto.QuizResponseDTO, error) {
	quiz, err := s.quizRepo.FindByIDWithQuestions(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz %d: %w", quizID, ErrNotFound)
		}
		log.Error().Err(err).Uint("quizID", quizID).Msg("GetQuiz: lookup failed")
		return nil, fmt.Errorf("quiz lookup: %w", ErrDependencyUnavailable)
	}
	if !quiz.IsActive {
		return nil, fmt.Errorf("quiz %d: %w", quizID, ErrQuizInactive)
	}

	var resp dto.QuizResponseDTO
	if err := copier.Copy(&resp, quiz); err != nil {
		return nil, fmt.Errorf("error preparing quiz response: %w", err)
	}
	return &resp, nil
}

func toSnapshots(results []dto.RecommendationDTO) []model.RecommendedProduct {
	snapshots := make([]model.RecommendedProduct, 0, len(results))
	for _, r := range results {
		snapshots = append(snapshots, model.RecommendedProduct{
			ProductID:       r.ProductID,
			Score:           r.Score,
			MatchPercentage: r.MatchPercentage,
		})
	}
	return snapshots
}

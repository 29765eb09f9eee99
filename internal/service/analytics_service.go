package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/storelens/advisor/internal/dto"
	"github.com/storelens/advisor/internal/model"
	"github.com/storelens/advisor/internal/repository"
	"gorm.io/gorm"
)

const topProductsLimit = 10

// AnalyticsService computes the advisor funnel dashboard on demand. Nothing
// here is persisted: every call scans the session window fresh.
type AnalyticsService interface {
	Analyze(ctx context.Context, storeID, quizID uint, periodDays int) (*dto.AdvisorAnalyticsDTO, error)
}

type analyticsService struct {
	quizRepo    repository.QuizRepository
	sessionRepo repository.SessionRepository
	orderRepo   repository.OrderRepository
}

func NewAnalyticsService(
	quizRepo repository.QuizRepository,
	sessionRepo repository.SessionRepository,
	orderRepo repository.OrderRepository,
) AnalyticsService {
	return &analyticsService{quizRepo: quizRepo, sessionRepo: sessionRepo, orderRepo: orderRepo}
}

func (s *analyticsService) Analyze(ctx context.Context, storeID, quizID uint, periodDays int) (*dto.AdvisorAnalyticsDTO, error) {
	if periodDays <= 0 {
		periodDays = 30
	}

	quiz, err := s.quizRepo.FindByIDForStore(ctx, quizID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz %d: %w", quizID, ErrNotFound)
		}
		log.Error().Err(err).Uint("quizID", quizID).Msg("Analyze: quiz lookup failed")
		return nil, fmt.Errorf("quiz lookup: %w", ErrDependencyUnavailable)
	}

	// Quiz needs the question tree for answer/question text in the
	// popular-answers block.
	quizWithTree, err := s.quizRepo.FindByIDWithQuestions(ctx, quizID)
	if err != nil {
		log.Warn().Err(err).Uint("quizID", quizID).Msg("Analyze: question tree unavailable, answer text will be omitted")
		quizWithTree = quiz
	}

	since := time.Now().AddDate(0, 0, -periodDays)
	sessions, err := s.sessionRepo.FindInWindow(ctx, quizID, since)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Msg("Analyze: session scan failed")
		return nil, fmt.Errorf("session scan: %w", ErrDependencyUnavailable)
	}

	out := &dto.AdvisorAnalyticsDTO{
		QuizID:           quizID,
		PeriodDays:       periodDays,
		TotalStarts:      quiz.TotalStarts,
		TotalCompletions: quiz.TotalCompletions,
		TotalSessions:    len(sessions),
		PopularAnswers:   []dto.PopularQuestionDTO{},
		TopProducts:      []dto.TopProductDTO{},
	}
	// Completion rate deliberately uses the lifetime counters, not the
	// window: that is the observed dashboard behavior and changing it would
	// silently shift every historical report.
	if quiz.TotalStarts > 0 {
		out.CompletionRate = roundTo(float64(quiz.TotalCompletions)/float64(quiz.TotalStarts), 4)
	}

	var orderIDs []uint
	for i := range sessions {
		sess := &sessions[i]
		if sess.IsCompleted {
			out.CompletedSessions++
		}
		if sess.ConvertedToCart {
			out.CartConversions++
		}
		if sess.ConvertedToOrder {
			out.OrderConversions++
			if sess.OrderID != nil {
				orderIDs = append(orderIDs, *sess.OrderID)
			}
		}
	}

	if err := s.addRevenue(ctx, orderIDs, out); err != nil {
		return nil, err
	}
	s.addPopularAnswers(sessions, quizWithTree, out)
	if err := s.addTopProducts(ctx, sessions, orderIDs, out); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *analyticsService) addRevenue(ctx context.Context, orderIDs []uint, out *dto.AdvisorAnalyticsDTO) error {
	totals, err := s.orderRepo.TotalsByIDs(ctx, orderIDs)
	if err != nil {
		log.Error().Err(err).Msg("Analyze: order totals lookup failed")
		return fmt.Errorf("order ledger: %w", ErrDependencyUnavailable)
	}
	for _, total := range totals {
		out.TotalRevenue += total
	}
	out.OrderCount = len(totals)
	if out.OrderCount > 0 {
		out.AverageOrderValue = roundTo(out.TotalRevenue/float64(out.OrderCount), 2)
	}
	out.TotalRevenue = roundTo(out.TotalRevenue, 2)
	return nil
}

// addPopularAnswers flattens (question, answer) selections across completed
// sessions and expresses each answer's share of its question's total
// selections. Multi-select questions mean the denominator is selections, not
// sessions.
func (s *analyticsService) addPopularAnswers(sessions []model.QuizSession, quiz *model.Quiz, out *dto.AdvisorAnalyticsDTO) {
	questionText := make(map[uint]string)
	answerText := make(map[uint]string)
	for _, q := range quiz.Questions {
		questionText[q.ID] = q.Text
		for _, a := range q.Answers {
			answerText[a.ID] = a.Text
		}
	}

	perQuestion := make(map[uint]map[uint]int)
	questionTotals := make(map[uint]int)
	var questionOrder []uint

	for i := range sessions {
		sess := &sessions[i]
		if !sess.IsCompleted {
			continue
		}
		answers, err := model.DecodeSelectedAnswers(sess.Answers)
		if err != nil {
			log.Warn().Err(err).Str("sessionID", sess.SessionID).Msg("Analyze: skipping session with malformed answers")
			continue
		}
		for _, entry := range answers {
			if perQuestion[entry.QuestionID] == nil {
				perQuestion[entry.QuestionID] = make(map[uint]int)
				questionOrder = append(questionOrder, entry.QuestionID)
			}
			for _, answerID := range entry.AnswerIDs {
				perQuestion[entry.QuestionID][answerID]++
				questionTotals[entry.QuestionID]++
			}
		}
	}

	sort.Slice(questionOrder, func(i, j int) bool { return questionOrder[i] < questionOrder[j] })

	for _, questionID := range questionOrder {
		counts := perQuestion[questionID]
		total := questionTotals[questionID]

		block := dto.PopularQuestionDTO{
			QuestionID: questionID,
			Text:       questionText[questionID],
		}
		for answerID, count := range counts {
			pct := 0.0
			if total > 0 {
				pct = roundTo(float64(count)/float64(total)*100, 2)
			}
			block.Answers = append(block.Answers, dto.PopularAnswerDTO{
				AnswerID:   answerID,
				Text:       answerText[answerID],
				Count:      count,
				Percentage: pct,
			})
		}
		sort.Slice(block.Answers, func(i, j int) bool {
			if block.Answers[i].Count != block.Answers[j].Count {
				return block.Answers[i].Count > block.Answers[j].Count
			}
			return block.Answers[i].AnswerID < block.Answers[j].AnswerID
		})
		out.PopularAnswers = append(out.PopularAnswers, block)
	}
}

func (s *analyticsService) addTopProducts(ctx context.Context, sessions []model.QuizSession, orderIDs []uint, out *dto.AdvisorAnalyticsDTO) error {
	recommended := make(map[uint]int)
	for i := range sessions {
		sess := &sessions[i]
		if !sess.IsCompleted {
			continue
		}
		products, err := model.DecodeRecommendedProducts(sess.RecommendedProducts)
		if err != nil {
			log.Warn().Err(err).Str("sessionID", sess.SessionID).Msg("Analyze: skipping session with malformed recommendations")
			continue
		}
		for _, p := range products {
			recommended[p.ProductID]++
		}
	}

	purchased, err := s.orderRepo.ProductPurchaseCounts(ctx, orderIDs)
	if err != nil {
		log.Error().Err(err).Msg("Analyze: purchase counts lookup failed")
		return fmt.Errorf("order ledger: %w", ErrDependencyUnavailable)
	}

	top := make([]dto.TopProductDTO, 0, len(recommended))
	for productID, count := range recommended {
		top = append(top, dto.TopProductDTO{
			ProductID:        productID,
			TimesRecommended: count,
			TimesPurchased:   purchased[productID],
		})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].TimesRecommended != top[j].TimesRecommended {
			return top[i].TimesRecommended > top[j].TimesRecommended
		}
		return top[i].ProductID < top[j].ProductID
	})
	if len(top) > topProductsLimit {
		top = top[:topProductsLimit]
	}
	out.TopProducts = top
	return nil
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

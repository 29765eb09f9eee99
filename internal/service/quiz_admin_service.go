package service

import (
	"context"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/storelens/advisor/internal/dto"
	"github.com/storelens/advisor/internal/model"
	"github.com/storelens/advisor/internal/repository"
)

const defaultResultsCount = 5

// QuizAdminService covers operator quiz management: create with the full
// question/answer tree, listing, and activation toggling.
type QuizAdminService interface {
	CreateQuiz(ctx context.Context, storeID uint, req dto.QuizCreateDTO) (*dto.QuizResponseDTO, error)
	ListQuizzes(ctx context.Context, storeID uint) ([]dto.QuizSummaryDTO, error)
	SetActive(ctx context.Context, storeID, quizID uint, active bool) error
}

type quizAdminService struct {
	quizRepo repository.QuizRepository
}

func NewQuizAdminService(quizRepo repository.QuizRepository) QuizAdminService {
	return &quizAdminService{quizRepo: quizRepo}
}

func (s *quizAdminService) CreateQuiz(ctx context.Context, storeID uint, req dto.QuizCreateDTO) (*dto.QuizResponseDTO, error) {
	positions := make(map[int]bool)
	var questions []model.Question
	for _, qDto := range req.Questions {
		if positions[qDto.Position] {
			return nil, fmt.Errorf("%w: duplicate question position %d", ErrInvalidInput, qDto.Position)
		}
		positions[qDto.Position] = true

		var answers []model.Answer
		for _, aDto := range qDto.Answers {
			answers = append(answers, model.Answer{Text: aDto.Text, Position: aDto.Position})
		}
		questions = append(questions, model.Question{
			Text:          qDto.Text,
			Position:      qDto.Position,
			AllowMultiple: qDto.AllowMultiple,
			Answers:       answers,
		})
	}

	resultsCount := req.ResultsCount
	if resultsCount <= 0 {
		resultsCount = defaultResultsCount
	}

	quiz := model.Quiz{
		StoreID:      storeID,
		Title:        req.Title,
		Description:  req.Description,
		IsActive:     true,
		ResultsCount: resultsCount,
		Questions:    questions,
	}
	if err := s.quizRepo.Create(ctx, &quiz); err != nil {
		log.Error().Err(err).Uint("storeID", storeID).Msg("Failed to create quiz")
		return nil, fmt.Errorf("quiz store: %w", ErrDependencyUnavailable)
	}

	created, err := s.quizRepo.FindByIDWithQuestions(ctx, quiz.ID)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quiz.ID).Msg("Failed to reload created quiz for response")
		created = &quiz
	}

	var resp dto.QuizResponseDTO
	if err := copier.Copy(&resp, created); err != nil {
		return nil, fmt.Errorf("error preparing quiz response: %w", err)
	}
	return &resp, nil
}

func (s *quizAdminService) ListQuizzes(ctx context.Context, storeID uint) ([]dto.QuizSummaryDTO, error) {
	quizzes, err := s.quizRepo.FindAllForStore(ctx, storeID)
	if err != nil {
		log.Error().Err(err).Uint("storeID", storeID).Msg("Failed to list quizzes")
		return nil, fmt.Errorf("quiz store: %w", ErrDependencyUnavailable)
	}

	dtos := make([]dto.QuizSummaryDTO, 0, len(quizzes))
	for i := range quizzes {
		var summary dto.QuizSummaryDTO
		if err := copier.Copy(&summary, &quizzes[i]); err != nil {
			log.Warn().Err(err).Uint("quizID", quizzes[i].ID).Msg("Skipping quiz summary that failed to copy")
			continue
		}
		dtos = append(dtos, summary)
	}
	return dtos, nil
}

func (s *quizAdminService) SetActive(ctx context.Context, storeID, quizID uint, active bool) error {
	rows, err := s.quizRepo.SetActive(ctx, quizID, storeID, active)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Msg("Failed to toggle quiz active flag")
		return fmt.Errorf("quiz store: %w", ErrDependencyUnavailable)
	}
	if rows == 0 {
		return fmt.Errorf("quiz %d: %w", quizID, ErrNotFound)
	}
	return nil
}

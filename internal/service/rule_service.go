package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/storelens/advisor/internal/dto"
	"github.com/storelens/advisor/internal/model"
	"github.com/storelens/advisor/internal/repository"
	"gorm.io/gorm"
)

// RuleService manages per-product scoring rules for store operators. All
// operations are tenant-scoped: a quiz or product outside the caller's store
// behaves as if it did not exist.
type RuleService interface {
	// Upsert writes the rule and reports whether it was newly created
	// (true) or replaced an existing one for the same (quiz, product).
	Upsert(ctx context.Context, storeID uint, req dto.RuleUpsertDTO) (*dto.RuleResponseDTO, bool, error)
	List(ctx context.Context, storeID, quizID uint) ([]dto.RuleResponseDTO, error)
	Delete(ctx context.Context, storeID, quizID, productID uint) error
}

type ruleService struct {
	ruleRepo    repository.RuleRepository
	quizRepo    repository.QuizRepository
	catalogRepo repository.CatalogRepository
}

func NewRuleService(
	ruleRepo repository.RuleRepository,
	quizRepo repository.QuizRepository,
	catalogRepo repository.CatalogRepository,
) RuleService {
	return &ruleService{ruleRepo: ruleRepo, quizRepo: quizRepo, catalogRepo: catalogRepo}
}

func (s *ruleService) Upsert(ctx context.Context, storeID uint, req dto.RuleUpsertDTO) (*dto.RuleResponseDTO, bool, error) {
	if err := s.checkOwnership(ctx, storeID, req.QuizID, &req.ProductID); err != nil {
		return nil, false, err
	}

	weights := make([]model.AnswerWeight, 0, len(req.AnswerWeights))
	for _, w := range req.AnswerWeights {
		weights = append(weights, model.AnswerWeight{AnswerID: w.AnswerID, Weight: w.Weight})
	}
	encodedWeights, err := model.EncodeAnswerWeights(weights)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	var bonus *model.BonusRule
	if req.BonusRules != nil {
		bonus = &model.BonusRule{AllAnswers: req.BonusRules.AllAnswers, Bonus: req.BonusRules.Bonus}
	}
	encodedBonus, err := model.EncodeBonusRule(bonus)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	encodedExcludes, err := model.EncodeExcludeIfAnswers(req.ExcludeIfAnswers)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	rule := model.ProductRule{
		QuizID:           req.QuizID,
		ProductID:        req.ProductID,
		AnswerWeights:    encodedWeights,
		BaseScore:        req.BaseScore,
		BonusRules:       encodedBonus,
		ExcludeIfAnswers: encodedExcludes,
		PriorityBoost:    req.PriorityBoost,
		IsActive:         true,
	}
	if !rule.IsFiniteScore() {
		return nil, false, fmt.Errorf("%w: base_score and priority_boost must be finite", ErrInvalidInput)
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	// Existence is checked only to pick the 201-vs-200 status; the write
	// itself is a single atomic ON CONFLICT upsert either way.
	existed, err := s.ruleRepo.Exists(ctx, req.QuizID, req.ProductID)
	if err != nil {
		log.Error().Err(err).Uint("quizID", req.QuizID).Msg("Rule upsert: existence check failed")
		return nil, false, fmt.Errorf("rule store: %w", ErrDependencyUnavailable)
	}

	if err := s.ruleRepo.Upsert(ctx, &rule); err != nil {
		log.Error().Err(err).Uint("quizID", req.QuizID).Uint("productID", req.ProductID).Msg("Rule upsert failed")
		return nil, false, fmt.Errorf("rule store: %w", ErrDependencyUnavailable)
	}

	resp, err := ruleToDTO(&rule)
	if err != nil {
		return nil, false, err
	}
	return resp, !existed, nil
}

func (s *ruleService) List(ctx context.Context, storeID, quizID uint) ([]dto.RuleResponseDTO, error) {
	if err := s.checkOwnership(ctx, storeID, quizID, nil); err != nil {
		return nil, err
	}

	rows, err := s.ruleRepo.ListByQuizWithProducts(ctx, quizID)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Msg("Rule list failed")
		return nil, fmt.Errorf("rule store: %w", ErrDependencyUnavailable)
	}

	dtos := make([]dto.RuleResponseDTO, 0, len(rows))
	for i := range rows {
		resp, err := ruleToDTO(&rows[i].ProductRule)
		if err != nil {
			// One undecodable row should not hide the rest of the listing.
			log.Warn().Err(err).Uint("ruleID", rows[i].ID).Msg("Skipping undecodable rule row")
			continue
		}
		resp.ProductTitle = rows[i].ProductTitle
		resp.ProductHandle = rows[i].ProductHandle
		resp.ProductImage = rows[i].ProductImage
		resp.ProductPrice = rows[i].ProductPrice
		dtos = append(dtos, *resp)
	}
	return dtos, nil
}

func (s *ruleService) Delete(ctx context.Context, storeID, quizID, productID uint) error {
	if err := s.checkOwnership(ctx, storeID, quizID, nil); err != nil {
		return err
	}

	rows, err := s.ruleRepo.Delete(ctx, quizID, productID)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Uint("productID", productID).Msg("Rule delete failed")
		return fmt.Errorf("rule store: %w", ErrDependencyUnavailable)
	}
	if rows == 0 {
		return fmt.Errorf("rule for quiz %d product %d: %w", quizID, productID, ErrNotFound)
	}
	return nil
}

// checkOwnership verifies the quiz (and optionally the product) belongs to
// the caller's store. Both failures collapse into ErrNotFound so the API
// never reveals other tenants' data.
func (s *ruleService) checkOwnership(ctx context.Context, storeID, quizID uint, productID *uint) error {
	if _, err := s.quizRepo.FindByIDForStore(ctx, quizID, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("quiz %d: %w", quizID, ErrNotFound)
		}
		log.Error().Err(err).Uint("quizID", quizID).Msg("Rule ownership check failed")
		return fmt.Errorf("quiz lookup: %w", ErrDependencyUnavailable)
	}
	if productID != nil {
		if _, err := s.catalogRepo.FindByIDForStore(ctx, *productID, storeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d: %w", *productID, ErrNotFound)
			}
			log.Error().Err(err).Uint("productID", *productID).Msg("Product ownership check failed")
			return fmt.Errorf("catalog lookup: %w", ErrDependencyUnavailable)
		}
	}
	return nil
}

func ruleToDTO(rule *model.ProductRule) (*dto.RuleResponseDTO, error) {
	weights, err := model.DecodeAnswerWeights(rule.AnswerWeights)
	if err != nil {
		return nil, err
	}
	bonus, err := model.DecodeBonusRule(rule.BonusRules)
	if err != nil {
		return nil, err
	}
	excludes, err := model.DecodeExcludeIfAnswers(rule.ExcludeIfAnswers)
	if err != nil {
		return nil, err
	}

	weightDTOs := make([]dto.AnswerWeightDTO, 0, len(weights))
	for _, w := range weights {
		weightDTOs = append(weightDTOs, dto.AnswerWeightDTO{AnswerID: w.AnswerID, Weight: w.Weight})
	}
	var bonusDTO *dto.BonusRuleDTO
	if bonus != nil {
		bonusDTO = &dto.BonusRuleDTO{AllAnswers: bonus.AllAnswers, Bonus: bonus.Bonus}
	}

	return &dto.RuleResponseDTO{
		ID:               rule.ID,
		QuizID:           rule.QuizID,
		ProductID:        rule.ProductID,
		AnswerWeights:    weightDTOs,
		BaseScore:        rule.BaseScore,
		BonusRules:       bonusDTO,
		ExcludeIfAnswers: excludes,
		PriorityBoost:    rule.PriorityBoost,
		IsActive:         rule.IsActive,
		UpdatedAt:        rule.UpdatedAt,
	}, nil
}

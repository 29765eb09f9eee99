package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/storelens/advisor/internal/dto"
	"github.com/storelens/advisor/internal/model"
	"github.com/storelens/advisor/internal/repository"
	"gorm.io/gorm"
)

func newRuleService(db *gorm.DB) RuleService {
	return NewRuleService(
		repository.NewRuleRepository(db),
		repository.NewQuizRepository(db),
		repository.NewCatalogRepository(db),
	)
}

func TestRuleUpsertCreateThenReplace(t *testing.T) {
	db := setupTestDB(t)
	quiz := seedQuiz(t, db, 1, 5)
	product := seedProduct(t, db, 1, "widget", 9.99)
	svc := newRuleService(db)

	resp, created, err := svc.Upsert(context.Background(), 1, dto.RuleUpsertDTO{
		QuizID:    quiz.ID,
		ProductID: product.ID,
		BaseScore: 10,
		AnswerWeights: []dto.AnswerWeightDTO{
			{AnswerID: 1, Weight: 20},
		},
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Error("first upsert must report created")
	}
	if resp.BaseScore != 10 || !resp.IsActive {
		t.Errorf("unexpected rule payload: %+v", resp)
	}

	resp, created, err = svc.Upsert(context.Background(), 1, dto.RuleUpsertDTO{
		QuizID:    quiz.ID,
		ProductID: product.ID,
		BaseScore: 50,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Error("second upsert for the same (quiz, product) must report replaced")
	}
	if resp.BaseScore != 50 {
		t.Errorf("base score = %v, want the replacing value 50", resp.BaseScore)
	}

	var count int64
	if err := db.Model(&model.ProductRule{}).
		Where("quiz_id = ? AND product_id = ?", quiz.ID, product.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count rules: %v", err)
	}
	if count != 1 {
		t.Fatalf("rule rows = %d, want exactly 1 per (quiz, product)", count)
	}
}

func TestRuleUpsertTenantIsolation(t *testing.T) {
	db := setupTestDB(t)
	quiz := seedQuiz(t, db, 1, 5)
	product := seedProduct(t, db, 1, "widget", 9.99)
	foreignProduct := seedProduct(t, db, 2, "foreign", 5)
	svc := newRuleService(db)

	// Quiz belongs to store 1; store 2 must see a 404, not a forbidden.
	_, _, err := svc.Upsert(context.Background(), 2, dto.RuleUpsertDTO{
		QuizID:    quiz.ID,
		ProductID: product.ID,
		BaseScore: 10,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign store upsert: error = %v, want ErrNotFound", err)
	}

	// Own quiz but another store's product.
	_, _, err = svc.Upsert(context.Background(), 1, dto.RuleUpsertDTO{
		QuizID:    quiz.ID,
		ProductID: foreignProduct.ID,
		BaseScore: 10,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign product upsert: error = %v, want ErrNotFound", err)
	}
}

func TestRuleUpsertValidation(t *testing.T) {
	db := setupTestDB(t)
	quiz := seedQuiz(t, db, 1, 5)
	product := seedProduct(t, db, 1, "widget", 9.99)
	svc := newRuleService(db)

	tests := []struct {
		name string
		req  dto.RuleUpsertDTO
	}{
		{
			"duplicate answer ids in weights",
			dto.RuleUpsertDTO{
				QuizID: quiz.ID, ProductID: product.ID,
				AnswerWeights: []dto.AnswerWeightDTO{
					{AnswerID: 1, Weight: 5},
					{AnswerID: 1, Weight: 7},
				},
			},
		},
		{
			"non-finite weight",
			dto.RuleUpsertDTO{
				QuizID: quiz.ID, ProductID: product.ID,
				AnswerWeights: []dto.AnswerWeightDTO{{AnswerID: 1, Weight: math.Inf(1)}},
			},
		},
		{
			"empty bonus answer list",
			dto.RuleUpsertDTO{
				QuizID: quiz.ID, ProductID: product.ID,
				BonusRules: &dto.BonusRuleDTO{Bonus: 10},
			},
		},
		{
			"nan base score",
			dto.RuleUpsertDTO{
				QuizID: quiz.ID, ProductID: product.ID,
				BaseScore: math.NaN(),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Upsert(context.Background(), 1, tt.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRuleListIncludesProductFields(t *testing.T) {
	db := setupTestDB(t)
	quiz := seedQuiz(t, db, 1, 5)
	product := seedProduct(t, db, 1, "widget", 9.99)
	seedRule(t, db, quiz.ID, product.ID, 10, nil, nil, nil, 0)
	svc := newRuleService(db)

	rules, err := svc.List(context.Background(), 1, quiz.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(rules))
	}
	if rules[0].ProductTitle != "widget" {
		t.Errorf("product title = %q, want joined catalog title", rules[0].ProductTitle)
	}
	if rules[0].ProductPrice != 9.99 {
		t.Errorf("product price = %v, want 9.99", rules[0].ProductPrice)
	}
}

func TestRuleDelete(t *testing.T) {
	db := setupTestDB(t)
	quiz := seedQuiz(t, db, 1, 5)
	product := seedProduct(t, db, 1, "widget", 9.99)
	seedRule(t, db, quiz.ID, product.ID, 10, nil, nil, nil, 0)
	svc := newRuleService(db)

	if err := svc.Delete(context.Background(), 1, quiz.ID, product.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var count int64
	if err := db.Model(&model.ProductRule{}).Count(&count).Error; err != nil {
		t.Fatalf("count rules: %v", err)
	}
	if count != 0 {
		t.Fatalf("rule rows = %d after delete, want 0", count)
	}

	// Deleting again must surface not found.
	if err := svc.Delete(context.Background(), 1, quiz.ID, product.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}

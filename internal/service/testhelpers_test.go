package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/storelens/advisor/internal/model"
	"github.com/storelens/advisor/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory sqlite store with the full schema.
// Each test gets its own database, so no cross-test cleanup is needed.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.Quiz{},
		&model.Question{},
		&model.Answer{},
		&model.ProductRule{},
		&model.QuizSession{},
		&model.Product{},
		&model.Order{},
		&model.OrderLineItem{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedQuiz(t *testing.T, db *gorm.DB, storeID uint, resultsCount int) *model.Quiz {
	t.Helper()
	quiz := &model.Quiz{
		StoreID:      storeID,
		Title:        "Find your product",
		IsActive:     true,
		ResultsCount: resultsCount,
	}
	if err := db.Create(quiz).Error; err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	return quiz
}

func seedProduct(t *testing.T, db *gorm.DB, storeID uint, title string, price float64) *model.Product {
	t.Helper()
	product := &model.Product{
		StoreID: storeID,
		Title:   title,
		Handle:  title,
		Price:   price,
		Status:  model.ProductStatusActive,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedRule(t *testing.T, db *gorm.DB, quizID, productID uint, baseScore float64, weights []model.AnswerWeight, bonus *model.BonusRule, excludes []uint, boost float64) *model.ProductRule {
	t.Helper()
	encodedWeights, err := model.EncodeAnswerWeights(weights)
	if err != nil {
		t.Fatalf("encode weights: %v", err)
	}
	encodedBonus, err := model.EncodeBonusRule(bonus)
	if err != nil {
		t.Fatalf("encode bonus: %v", err)
	}
	encodedExcludes, err := model.EncodeExcludeIfAnswers(excludes)
	if err != nil {
		t.Fatalf("encode excludes: %v", err)
	}

	rule := &model.ProductRule{
		QuizID:           quizID,
		ProductID:        productID,
		AnswerWeights:    encodedWeights,
		BaseScore:        baseScore,
		BonusRules:       encodedBonus,
		ExcludeIfAnswers: encodedExcludes,
		PriorityBoost:    boost,
		IsActive:         true,
	}
	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("seed rule: %v", err)
	}
	return rule
}

func seedSession(t *testing.T, db *gorm.DB, quizID uint, sessionID string, completed bool, createdAt time.Time, answers []model.SelectedAnswers, products []model.RecommendedProduct) *model.QuizSession {
	t.Helper()
	encodedAnswers, err := model.EncodeSelectedAnswers(answers)
	if err != nil {
		t.Fatalf("encode answers: %v", err)
	}
	encodedProducts, err := model.EncodeRecommendedProducts(products)
	if err != nil {
		t.Fatalf("encode products: %v", err)
	}

	session := &model.QuizSession{
		QuizID:              quizID,
		StoreID:             1,
		SessionID:           sessionID,
		Answers:             encodedAnswers,
		RecommendedProducts: encodedProducts,
		IsCompleted:         completed,
	}
	if completed {
		now := createdAt
		session.CompletedAt = &now
	}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	// CreatedAt is set by gorm; rewrite it for windowed queries.
	if err := db.Model(session).UpdateColumn("created_at", createdAt).Error; err != nil {
		t.Fatalf("backdate session: %v", err)
	}
	session.CreatedAt = createdAt
	return session
}

// captureRecorder stands in for the async recorder in advisor tests so the
// recorded snapshot can be asserted synchronously.
type captureRecorder struct {
	mu       sync.Mutex
	requests []RecordRequest
}

func (r *captureRecorder) Record(req RecordRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

func (r *captureRecorder) RecordConversion(ctx context.Context, sessionID string, upd repository.ConversionUpdate) error {
	return nil
}

func (r *captureRecorder) Start()                         {}
func (r *captureRecorder) Stop(ctx context.Context) error { return nil }

func (r *captureRecorder) recorded() []RecordRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordRequest, len(r.requests))
	copy(out, r.requests)
	return out
}

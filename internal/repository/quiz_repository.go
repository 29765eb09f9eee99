package repository

import (
	"context"

	"github.com/storelens/advisor/internal/model"
	"gorm.io/gorm"
)

type QuizRepository interface {
	Create(ctx context.Context, quiz *model.Quiz) error
	FindByID(ctx context.Context, id uint) (*model.Quiz, error)
	FindByIDWithQuestions(ctx context.Context, id uint) (*model.Quiz, error)
	FindByIDForStore(ctx context.Context, id, storeID uint) (*model.Quiz, error)
	FindAllForStore(ctx context.Context, storeID uint) ([]model.Quiz, error)
	SetActive(ctx context.Context, id, storeID uint, active bool) (int64, error)
	IncrementStarts(ctx context.Context, id uint) error
	IncrementCompletions(ctx context.Context, id uint) error
}

type quizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	// GORM creates the associated question/answer tree in one go.
	return r.db.WithContext(ctx).Create(quiz).Error
}

func (r *quizRepository) FindByID(ctx context.Context, id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) FindByIDWithQuestions(ctx context.Context, id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.position ASC")
		}).
		First(&quiz, id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) FindByIDForStore(ctx context.Context, id, storeID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) FindAllForStore(ctx context.Context, storeID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *quizRepository) SetActive(ctx context.Context, id, storeID uint, active bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Quiz{}).
		Where("id = ? AND store_id = ?", id, storeID).
		Update("is_active", active)
	return res.RowsAffected, res.Error
}

// IncrementStarts bumps total_starts in a single statement so concurrent
// attempts never lose updates.
func (r *quizRepository) IncrementStarts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&model.Quiz{}).
		Where("id = ?", id).
		UpdateColumn("total_starts", gorm.Expr("total_starts + 1")).Error
}

func (r *quizRepository) IncrementCompletions(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&model.Quiz{}).
		Where("id = ?", id).
		UpdateColumn("total_completions", gorm.Expr("total_completions + 1")).Error
}

package repository

import (
	"context"

	"github.com/storelens/advisor/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RuleWithProduct is a rule row joined with the product display fields the
// admin listing shows next to it.
type RuleWithProduct struct {
	model.ProductRule
	ProductTitle  string  `json:"product_title"`
	ProductHandle string  `json:"product_handle"`
	ProductImage  string  `json:"product_image"`
	ProductPrice  float64 `json:"product_price"`
}

type RuleRepository interface {
	// Upsert inserts the rule or, when a rule already exists for the same
	// (quiz_id, product_id), updates it in place. The write is a single
	// ON CONFLICT statement; the uniqueness invariant is enforced by the
	// index, not by a read-then-write in application code.
	Upsert(ctx context.Context, rule *model.ProductRule) error
	Exists(ctx context.Context, quizID, productID uint) (bool, error)
	FindActiveByQuiz(ctx context.Context, quizID uint) ([]model.ProductRule, error)
	ListByQuizWithProducts(ctx context.Context, quizID uint) ([]RuleWithProduct, error)
	Delete(ctx context.Context, quizID, productID uint) (int64, error)
}

type ruleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) Upsert(ctx context.Context, rule *model.ProductRule) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "quiz_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"answer_weights", "base_score", "bonus_rules",
				"exclude_if_answers", "priority_boost", "is_active", "updated_at",
			}),
		}).
		Create(rule).Error
}

func (r *ruleRepository) Exists(ctx context.Context, quizID, productID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProductRule{}).
		Where("quiz_id = ? AND product_id = ?", quizID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *ruleRepository) FindActiveByQuiz(ctx context.Context, quizID uint) ([]model.ProductRule, error) {
	var rules []model.ProductRule
	err := r.db.WithContext(ctx).
		Where("quiz_id = ? AND is_active = ?", quizID, true).
		Find(&rules).Error
	return rules, err
}

func (r *ruleRepository) ListByQuizWithProducts(ctx context.Context, quizID uint) ([]RuleWithProduct, error) {
	var rows []RuleWithProduct
	err := r.db.WithContext(ctx).
		Model(&model.ProductRule{}).
		Select("product_rules.*, products.title as product_title, products.handle as product_handle, products.image_url as product_image, products.price as product_price").
		Joins("JOIN products ON products.id = product_rules.product_id AND products.deleted_at IS NULL").
		Where("product_rules.quiz_id = ?", quizID).
		Order("product_rules.priority_boost DESC, product_rules.base_score DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *ruleRepository) Delete(ctx context.Context, quizID, productID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("quiz_id = ? AND product_id = ?", quizID, productID).
		Delete(&model.ProductRule{})
	return res.RowsAffected, res.Error
}

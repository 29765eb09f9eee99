package repository

import (
	"context"
	"time"

	"github.com/storelens/advisor/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversionUpdate carries the post-attempt lifecycle flags applied to an
// existing session row.
type ConversionUpdate struct {
	Cart    bool
	Order   bool
	OrderID *uint
}

type SessionRepository interface {
	// UpsertBySessionID writes the attempt snapshot keyed by session_id.
	// A repeated calculate call for the same session_id overwrites the
	// stored answers and results (last-write-wins).
	UpsertBySessionID(ctx context.Context, session *model.QuizSession) error
	FindBySessionID(ctx context.Context, sessionID string) (*model.QuizSession, error)
	// ApplyConversion flips conversion flags on an existing row; returns the
	// number of rows touched (0 when the session was never recorded).
	ApplyConversion(ctx context.Context, sessionID string, upd ConversionUpdate) (int64, error)
	FindInWindow(ctx context.Context, quizID uint, since time.Time) ([]model.QuizSession, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) UpsertBySessionID(ctx context.Context, session *model.QuizSession) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"answers", "recommended_products", "is_completed",
				"completed_at", "user_agent", "updated_at",
			}),
		}).
		Create(session).Error
}

func (r *sessionRepository) FindBySessionID(ctx context.Context, sessionID string) (*model.QuizSession, error) {
	var session model.QuizSession
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) ApplyConversion(ctx context.Context, sessionID string, upd ConversionUpdate) (int64, error) {
	updates := map[string]interface{}{}
	if upd.Cart {
		updates["converted_to_cart"] = true
	}
	if upd.Order {
		updates["converted_to_order"] = true
	}
	if upd.OrderID != nil {
		updates["order_id"] = *upd.OrderID
	}
	if len(updates) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.QuizSession{}).
		Where("session_id = ?", sessionID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *sessionRepository) FindInWindow(ctx context.Context, quizID uint, since time.Time) ([]model.QuizSession, error) {
	var sessions []model.QuizSession
	err := r.db.WithContext(ctx).
		Where("quiz_id = ? AND created_at >= ?", quizID, since).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

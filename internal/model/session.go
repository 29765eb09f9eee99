package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// QuizSession is one recorded attempt at a quiz. Answers and recommended
// products are stored verbatim as JSON snapshots so the record stays stable
// even if questions, answers or products are later edited. Conversion events
// update the existing row by SessionID, never create duplicates.
type QuizSession struct {
	ID      uint `gorm:"primarykey" json:"id"`
	QuizID  uint `json:"quiz_id" gorm:"not null;index"`
	StoreID uint `json:"store_id" gorm:"not null;index"`
	// SessionID is the idempotency key correlating calculate calls with
	// later conversion events for the same attempt.
	SessionID string `json:"session_id" gorm:"not null;uniqueIndex"`

	Answers             datatypes.JSON `json:"answers" gorm:"type:jsonb"`
	RecommendedProducts datatypes.JSON `json:"recommended_products" gorm:"type:jsonb"`

	IsCompleted      bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ConvertedToCart  bool       `json:"converted_to_cart" gorm:"default:false"`
	ConvertedToOrder bool       `json:"converted_to_order" gorm:"default:false"`
	OrderID          *uint      `json:"order_id,omitempty" gorm:"index"`

	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SelectedAnswers is the submitted answer-selection structure, one entry per
// answered question.
type SelectedAnswers struct {
	QuestionID uint   `json:"question_id"`
	AnswerIDs  []uint `json:"answer_ids"`
}

// RecommendedProduct is the per-product snapshot persisted with a session.
type RecommendedProduct struct {
	ProductID       uint    `json:"product_id"`
	Score           float64 `json:"score"`
	MatchPercentage int     `json:"match_percentage"`
}

func DecodeSelectedAnswers(raw datatypes.JSON) ([]SelectedAnswers, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var answers []SelectedAnswers
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("malformed stored answers: %w", err)
	}
	return answers, nil
}

func EncodeSelectedAnswers(answers []SelectedAnswers) (datatypes.JSON, error) {
	out, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(out), nil
}

func DecodeRecommendedProducts(raw datatypes.JSON) ([]RecommendedProduct, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var products []RecommendedProduct
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("malformed stored recommended_products: %w", err)
	}
	return products, nil
}

func EncodeRecommendedProducts(products []RecommendedProduct) (datatypes.JSON, error) {
	out, err := json.Marshal(products)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(out), nil
}

package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"
)

// ProductRule is the per-product scoring configuration within one quiz.
// At most one rule exists per (quiz_id, product_id); writes go through an
// ON CONFLICT upsert so the pair stays unique under concurrent submissions.
type ProductRule struct {
	ID        uint `gorm:"primarykey" json:"id"`
	QuizID    uint `json:"quiz_id" gorm:"not null;uniqueIndex:idx_product_rules_quiz_product"`
	ProductID uint `json:"product_id" gorm:"not null;uniqueIndex:idx_product_rules_quiz_product"`

	// AnswerWeights, BonusRules and ExcludeIfAnswers are stored as JSON
	// snapshots, not foreign-keyed relations: a rule must keep scoring the
	// same way even if answers are later edited or removed.
	AnswerWeights    datatypes.JSON `json:"answer_weights" gorm:"type:jsonb"`
	BaseScore        float64        `json:"base_score" gorm:"not null;default:0"`
	BonusRules       datatypes.JSON `json:"bonus_rules,omitempty" gorm:"type:jsonb"`
	ExcludeIfAnswers datatypes.JSON `json:"exclude_if_answers,omitempty" gorm:"type:jsonb"`
	PriorityBoost    float64        `json:"priority_boost" gorm:"not null;default:0"`
	IsActive         bool           `json:"is_active" gorm:"default:true"`

	// Hard-deleted on removal: a soft-deleted row would keep occupying the
	// unique (quiz_id, product_id) slot.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnswerWeight awards Weight points when AnswerID is among the selections.
type AnswerWeight struct {
	AnswerID uint    `json:"answer_id"`
	Weight   float64 `json:"weight"`
}

// BonusRule grants Bonus only when every listed answer was selected.
// The bonus never counts toward the match-percentage denominator.
type BonusRule struct {
	AllAnswers []uint  `json:"all_answers"`
	Bonus      float64 `json:"bonus"`
}

func DecodeAnswerWeights(raw datatypes.JSON) ([]AnswerWeight, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var weights []AnswerWeight
	if err := json.Unmarshal(raw, &weights); err != nil {
		return nil, fmt.Errorf("malformed answer_weights: %w", err)
	}
	return weights, nil
}

func EncodeAnswerWeights(weights []AnswerWeight) (datatypes.JSON, error) {
	seen := make(map[uint]bool, len(weights))
	for _, w := range weights {
		if seen[w.AnswerID] {
			return nil, fmt.Errorf("duplicate answer_id %d in answer_weights", w.AnswerID)
		}
		seen[w.AnswerID] = true
		if !isFinite(w.Weight) {
			return nil, fmt.Errorf("weight for answer_id %d is not finite", w.AnswerID)
		}
	}
	out, err := json.Marshal(weights)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(out), nil
}

// DecodeBonusRule returns nil when no bonus is configured.
func DecodeBonusRule(raw datatypes.JSON) (*BonusRule, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var bonus BonusRule
	if err := json.Unmarshal(raw, &bonus); err != nil {
		return nil, fmt.Errorf("malformed bonus_rules: %w", err)
	}
	return &bonus, nil
}

func EncodeBonusRule(bonus *BonusRule) (datatypes.JSON, error) {
	if bonus == nil {
		return nil, nil
	}
	if len(bonus.AllAnswers) == 0 {
		return nil, fmt.Errorf("bonus_rules requires at least one answer_id in all_answers")
	}
	if !isFinite(bonus.Bonus) {
		return nil, fmt.Errorf("bonus value is not finite")
	}
	out, err := json.Marshal(bonus)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(out), nil
}

func DecodeExcludeIfAnswers(raw datatypes.JSON) ([]uint, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("malformed exclude_if_answers: %w", err)
	}
	return ids, nil
}

func EncodeExcludeIfAnswers(ids []uint) (datatypes.JSON, error) {
	if ids == nil {
		ids = []uint{}
	}
	out, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(out), nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsFiniteScore reports whether all scalar fields of the rule are finite.
func (r *ProductRule) IsFiniteScore() bool {
	return isFinite(r.BaseScore) && isFinite(r.PriorityBoost)
}

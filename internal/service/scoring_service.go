package service

import (
	"github.com/rs/zerolog/log"
	"github.com/storelens/advisor/internal/model"
)

// Candidate is a product that survived rule evaluation with a positive score.
// MaxPossible is the theoretical ceiling (base score plus every configured
// weight) used as the match-percentage denominator; bonuses and priority
// boosts can push Score past it.
type Candidate struct {
	ProductID   uint
	Score       float64
	MaxPossible float64
}

// ScoringService evaluates stored product rules against a set of selected
// answer ids. Pure computation: no storage access, no side effects.
type ScoringService interface {
	Score(rules []model.ProductRule, selected map[uint]bool) []Candidate
}

type scoringService struct{}

func NewScoringService() ScoringService {
	return &scoringService{}
}

func (s *scoringService) Score(rules []model.ProductRule, selected map[uint]bool) []Candidate {
	candidates := make([]Candidate, 0, len(rules))

	for i := range rules {
		rule := &rules[i]
		candidate, ok := scoreRule(rule, selected)
		if ok {
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

// scoreRule evaluates a single rule. A malformed stored blob disqualifies
// only that product; the calculation as a whole must never abort on one bad
// rule.
func scoreRule(rule *model.ProductRule, selected map[uint]bool) (Candidate, bool) {
	if !rule.IsFiniteScore() {
		log.Warn().Uint("ruleID", rule.ID).Uint("productID", rule.ProductID).
			Msg("Rule has non-finite base_score or priority_boost, skipping product")
		return Candidate{}, false
	}

	excluded, err := model.DecodeExcludeIfAnswers(rule.ExcludeIfAnswers)
	if err != nil {
		log.Warn().Err(err).Uint("ruleID", rule.ID).Msg("Skipping product with malformed exclude_if_answers")
		return Candidate{}, false
	}
	// Exclusion is absolute: no weight or bonus can bring the product back.
	for _, id := range excluded {
		if selected[id] {
			return Candidate{}, false
		}
	}

	weights, err := model.DecodeAnswerWeights(rule.AnswerWeights)
	if err != nil {
		log.Warn().Err(err).Uint("ruleID", rule.ID).Msg("Skipping product with malformed answer_weights")
		return Candidate{}, false
	}

	score := rule.BaseScore
	maxPossible := rule.BaseScore
	for _, w := range weights {
		// Every weight raises the ceiling whether or not it matched.
		maxPossible += w.Weight
		if selected[w.AnswerID] {
			score += w.Weight
		}
	}

	bonus, err := model.DecodeBonusRule(rule.BonusRules)
	if err != nil {
		log.Warn().Err(err).Uint("ruleID", rule.ID).Msg("Skipping product with malformed bonus_rules")
		return Candidate{}, false
	}
	if bonus != nil && allSelected(bonus.AllAnswers, selected) {
		score += bonus.Bonus
	}

	score += rule.PriorityBoost

	if score <= 0 {
		return Candidate{}, false
	}
	return Candidate{ProductID: rule.ProductID, Score: score, MaxPossible: maxPossible}, true
}

func allSelected(ids []uint, selected map[uint]bool) bool {
	for _, id := range ids {
		if !selected[id] {
			return false
		}
	}
	return len(ids) > 0
}

// MatchPercentage converts a candidate's score into the displayed confidence,
// clamped to [0, 100]. A zero ceiling yields 0.
func MatchPercentage(score, maxPossible float64) int {
	if maxPossible <= 0 {
		return 0
	}
	pct := int(score/maxPossible*100 + 0.5)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

package dto

// AnswerWeightDTO mirrors model.AnswerWeight at the API boundary.
type AnswerWeightDTO struct {
	AnswerID uint    `json:"answer_id" binding:"required"`
	Weight   float64 `json:"weight"`
}

type BonusRuleDTO struct {
	AllAnswers []uint  `json:"all_answers" binding:"required,min=1"`
	Bonus      float64 `json:"bonus"`
}

// RuleUpsertDTO creates or updates the single rule for (quiz_id, product_id).
type RuleUpsertDTO struct {
	QuizID           uint              `json:"quiz_id" binding:"required"`
	ProductID        uint              `json:"product_id" binding:"required"`
	AnswerWeights    []AnswerWeightDTO `json:"answer_weights" binding:"required,dive"`
	BaseScore        float64           `json:"base_score"`
	BonusRules       *BonusRuleDTO     `json:"bonus_rules"`
	ExcludeIfAnswers []uint            `json:"exclude_if_answers"`
	PriorityBoost    float64           `json:"priority_boost"`
	IsActive         *bool             `json:"is_active"`
}

// AnswerCreateDTO / QuestionCreateDTO / QuizCreateDTO build a quiz with its
// full question tree in one call.
type AnswerCreateDTO struct {
	Text     string `json:"text" binding:"required"`
	Position int    `json:"position"`
}

type QuestionCreateDTO struct {
	Text          string            `json:"text" binding:"required"`
	Position      int               `json:"position"`
	AllowMultiple bool              `json:"allow_multiple"`
	Answers       []AnswerCreateDTO `json:"answers" binding:"required,min=2,dive"`
}

type QuizCreateDTO struct {
	Title        string              `json:"title" binding:"required"`
	Description  string              `json:"description,omitempty"`
	ResultsCount int                 `json:"results_count"`
	Questions    []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

type QuizSetActiveDTO struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

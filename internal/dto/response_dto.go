package dto

import "time"

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// RecommendationDTO is one scored product in a calculate response.
type RecommendationDTO struct {
	ProductID       uint     `json:"product_id"`
	Title           string   `json:"title"`
	Handle          string   `json:"handle"`
	ImageURL        string   `json:"image_url,omitempty"`
	Price           float64  `json:"price"`
	CompareAtPrice  *float64 `json:"compare_at_price,omitempty"`
	Score           float64  `json:"score"`
	MatchPercentage int      `json:"match_percentage"`
}

type CalculateResponse struct {
	Results   []RecommendationDTO `json:"results"`
	SessionID string              `json:"session_id"`
	// TotalProductsMatched counts every product that qualified before the
	// results_count cap, so callers can tell "few matches" from "capped".
	TotalProductsMatched int `json:"total_products_matched"`
}

type AnswerResponseDTO struct {
	ID       uint   `json:"id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

type QuestionResponseDTO struct {
	ID            uint                `json:"id"`
	Text          string              `json:"text"`
	Position      int                 `json:"position"`
	AllowMultiple bool                `json:"allow_multiple"`
	Answers       []AnswerResponseDTO `json:"answers,omitempty"`
}

type QuizResponseDTO struct {
	ID           uint                  `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description,omitempty"`
	IsActive     bool                  `json:"is_active"`
	ResultsCount int                   `json:"results_count"`
	Questions    []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

type QuizSummaryDTO struct {
	ID               uint      `json:"id"`
	Title            string    `json:"title"`
	IsActive         bool      `json:"is_active"`
	ResultsCount     int       `json:"results_count"`
	TotalStarts      int64     `json:"total_starts"`
	TotalCompletions int64     `json:"total_completions"`
	CreatedAt        time.Time `json:"created_at"`
}

// RuleResponseDTO is a stored rule joined with product display fields.
type RuleResponseDTO struct {
	ID               uint              `json:"id"`
	QuizID           uint              `json:"quiz_id"`
	ProductID        uint              `json:"product_id"`
	ProductTitle     string            `json:"product_title"`
	ProductHandle    string            `json:"product_handle"`
	ProductImage     string            `json:"product_image,omitempty"`
	ProductPrice     float64           `json:"product_price"`
	AnswerWeights    []AnswerWeightDTO `json:"answer_weights"`
	BaseScore        float64           `json:"base_score"`
	BonusRules       *BonusRuleDTO     `json:"bonus_rules,omitempty"`
	ExcludeIfAnswers []uint            `json:"exclude_if_answers,omitempty"`
	PriorityBoost    float64           `json:"priority_boost"`
	IsActive         bool              `json:"is_active"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type StartQuizResponse struct {
	Quiz QuizResponseDTO `json:"quiz"`
}

// --- Analytics ---

type PopularAnswerDTO struct {
	AnswerID uint   `json:"answer_id"`
	Text     string `json:"text,omitempty"`
	Count    int    `json:"count"`
	// Percentage is this answer's share of the question's total
	// answer-selections, not of total sessions.
	Percentage float64 `json:"percentage"`
}

type PopularQuestionDTO struct {
	QuestionID uint               `json:"question_id"`
	Text       string             `json:"text,omitempty"`
	Answers    []PopularAnswerDTO `json:"answers"`
}

type TopProductDTO struct {
	ProductID        uint `json:"product_id"`
	TimesRecommended int  `json:"times_recommended"`
	TimesPurchased   int  `json:"times_purchased"`
}

type AdvisorAnalyticsDTO struct {
	QuizID     uint `json:"quiz_id"`
	PeriodDays int  `json:"period_days"`

	// CompletionRate uses the quiz's lifetime counters while the session
	// counts below are windowed. The asymmetry is long-standing observed
	// behavior and is preserved deliberately.
	CompletionRate   float64 `json:"completion_rate"`
	TotalStarts      int64   `json:"total_starts"`
	TotalCompletions int64   `json:"total_completions"`

	TotalSessions     int `json:"total_sessions"`
	CompletedSessions int `json:"completed_sessions"`
	CartConversions   int `json:"cart_conversions"`
	OrderConversions  int `json:"order_conversions"`

	TotalRevenue      float64 `json:"total_revenue"`
	OrderCount        int     `json:"order_count"`
	AverageOrderValue float64 `json:"average_order_value"`

	PopularAnswers []PopularQuestionDTO `json:"popular_answers"`
	TopProducts    []TopProductDTO      `json:"top_products"`
}

package dto

// QuestionAnswersDTO is one answered question within a calculate request.
type QuestionAnswersDTO struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	AnswerIDs  []uint `json:"answer_ids" binding:"required,min=1"`
}

// CalculateRequest is the storefront payload that turns quiz selections into
// scored recommendations. SessionID is an optional idempotency key; when
// absent the engine generates one and returns it.
type CalculateRequest struct {
	QuizID    uint                 `json:"quiz_id" binding:"required"`
	Answers   []QuestionAnswersDTO `json:"answers" binding:"required,min=1,dive"`
	SessionID string               `json:"session_id"`
}

// ConversionRequest marks a previously recorded session as converted.
type ConversionRequest struct {
	Cart    bool  `json:"cart"`
	Order   bool  `json:"order"`
	OrderID *uint `json:"order_id"`
}

package storefront

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/storelens/advisor/internal/dto"
	"github.com/storelens/advisor/internal/repository"
	"github.com/storelens/advisor/internal/service"
)

// AdvisorController serves the public storefront surface: quiz fetch/start,
// recommendation calculation and conversion callbacks. No authentication;
// everything here is shopper-facing.
type AdvisorController struct {
	advisorService service.AdvisorService
	recorder       service.SessionRecorder
}

func NewAdvisorController(advisorService service.AdvisorService, recorder service.SessionRecorder) *AdvisorController {
	return &AdvisorController{advisorService: advisorService, recorder: recorder}
}

// Calculate godoc
// @Summary Calculate product recommendations from quiz answers
// @Description Scores every active rule of the quiz against the submitted answers and returns a ranked, percentage-scored product list. Zero results is a valid outcome, not an error.
// @Tags Storefront - Advisor
// @Accept json
// @Produce json
// @Param calculation body dto.CalculateRequest true "Quiz id, selected answers and optional session id"
// @Success 200 {object} dto.CalculateResponse
// @Failure 400 {object} dto.ErrorResponse "Empty answers or inactive quiz"
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Failure 500 {object} dto.ErrorResponse "Storage or catalog unavailable"
// @Router /advisor/calculate [post]
func (ctrl *AdvisorController) Calculate(c *gin.Context) {
	var req dto.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Calculate: failed to bind JSON")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := ctrl.advisorService.Calculate(c.Request.Context(), req, c.Request.UserAgent())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetQuiz godoc
// @Summary Fetch an active quiz with its question tree
// @Tags Storefront - Advisor
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.QuizResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid id or inactive quiz"
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Router /advisor/quizzes/{quiz_id} [get]
func (ctrl *AdvisorController) GetQuiz(c *gin.Context) {
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}
	resp, err := ctrl.advisorService.GetQuiz(c.Request.Context(), quizID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StartQuiz godoc
// @Summary Start a quiz attempt
// @Description Returns the quiz tree and bumps the quiz's total_starts counter atomically.
// @Tags Storefront - Advisor
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.QuizResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid id or inactive quiz"
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Router /advisor/quizzes/{quiz_id}/start [post]
func (ctrl *AdvisorController) StartQuiz(c *gin.Context) {
	quizID, ok := parseQuizID(c)
	if !ok {
		return
	}
	resp, err := ctrl.advisorService.StartQuiz(c.Request.Context(), quizID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordConversion godoc
// @Summary Mark a session as converted to cart or order
// @Description Updates the conversion flags on an already recorded session. Unknown session ids are acknowledged and ignored.
// @Tags Storefront - Advisor
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID returned by calculate"
// @Param conversion body dto.ConversionRequest true "Conversion flags"
// @Success 204 "Recorded (or ignored for unknown session)"
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 500 {object} dto.ErrorResponse "Storage unavailable"
// @Router /advisor/sessions/{session_id}/conversion [post]
func (ctrl *AdvisorController) RecordConversion(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "session_id is required"})
		return
	}

	var req dto.ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	err := ctrl.recorder.RecordConversion(c.Request.Context(), sessionID, repository.ConversionUpdate{
		Cart:    req.Cart,
		Order:   req.Order,
		OrderID: req.OrderID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to record conversion"})
		return
	}
	c.Status(http.StatusNoContent)
}

func parseQuizID(c *gin.Context) (uint, bool) {
	quizIDStr := c.Param("quiz_id")
	quizID, err := strconv.ParseUint(quizIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid quiz ID format"})
		return 0, false
	}
	return uint(quizID), true
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrQuizInactive):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Storefront request failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Couldn't calculate recommendations, try again"})
	}
}

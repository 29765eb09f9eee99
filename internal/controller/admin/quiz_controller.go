package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/storelens/advisor/internal/dto"
	"github.com/storelens/advisor/internal/middleware"
	"github.com/storelens/advisor/internal/service"
)

type QuizController struct {
	quizAdminService service.QuizAdminService
}

func NewQuizController(quizAdminService service.QuizAdminService) *QuizController {
	return &QuizController{quizAdminService: quizAdminService}
}

// CreateQuiz godoc
// @Summary (Admin) Create a quiz with its full question tree
// @Tags Admin - Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quiz body dto.QuizCreateDTO true "Quiz with questions and answers"
// @Success 201 {object} dto.QuizResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid quiz payload"
// @Router /admin/advisor/quizzes [post]
func (ctrl *QuizController) CreateQuiz(c *gin.Context) {
	storeID, ok := middleware.StoreID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing store context"})
		return
	}

	var req dto.QuizCreateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateQuiz: failed to bind JSON")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := ctrl.quizAdminService.CreateQuiz(c.Request.Context(), storeID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListQuizzes godoc
// @Summary (Admin) List the store's quizzes with funnel counters
// @Tags Admin - Quizzes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.QuizSummaryDTO
// @Router /admin/advisor/quizzes [get]
func (ctrl *QuizController) ListQuizzes(c *gin.Context) {
	storeID, ok := middleware.StoreID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing store context"})
		return
	}

	quizzes, err := ctrl.quizAdminService.ListQuizzes(c.Request.Context(), storeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

// SetQuizActive godoc
// @Summary (Admin) Activate or deactivate a quiz
// @Tags Admin - Quizzes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quiz_id path int true "Quiz ID"
// @Param body body dto.QuizSetActiveDTO true "Desired active state"
// @Success 204 "Updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid payload"
// @Failure 404 {object} dto.ErrorResponse "Quiz not owned by this store"
// @Router /admin/advisor/quizzes/{quiz_id}/active [patch]
func (ctrl *QuizController) SetQuizActive(c *gin.Context) {
	storeID, ok := middleware.StoreID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing store context"})
		return
	}

	quizIDStr := c.Param("quiz_id")
	quizID, err := strconv.ParseUint(quizIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid quiz ID format"})
		return
	}

	var req dto.QuizSetActiveDTO
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "is_active is required"})
		return
	}

	if err := ctrl.quizAdminService.SetActive(c.Request.Context(), storeID, uint(quizID), *req.IsActive); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

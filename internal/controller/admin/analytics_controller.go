package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/storelens/advisor/internal/dto"
	"github.com/storelens/advisor/internal/middleware"
	"github.com/storelens/advisor/internal/service"
)

type AnalyticsController struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsController(analyticsService service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{analyticsService: analyticsService}
}

// GetAnalytics godoc
// @Summary (Admin) Advisor funnel and conversion analytics for a quiz
// @Description Computes windowed session, revenue, popular-answer and top-product statistics. Completion rate uses the quiz's lifetime counters.
// @Tags Admin - Analytics
// @Produce json
// @Security BearerAuth
// @Param quiz_id query int true "Quiz ID"
// @Param days query int false "Window size in days (default 30)"
// @Success 200 {object} dto.AdvisorAnalyticsDTO
// @Failure 400 {object} dto.ErrorResponse "Missing quiz_id"
// @Failure 404 {object} dto.ErrorResponse "Quiz not owned by this store"
// @Router /admin/advisor/analytics [get]
func (ctrl *AnalyticsController) GetAnalytics(c *gin.Context) {
	storeID, ok := middleware.StoreID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing store context"})
		return
	}
	quizID, ok := parseUintQuery(c, "quiz_id")
	if !ok {
		return
	}

	days := 30
	if raw := c.Query("days"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val <= 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid days format"})
			return
		}
		days = val
	}

	analytics, err := ctrl.analyticsService.Analyze(c.Request.Context(), storeID, quizID, days)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

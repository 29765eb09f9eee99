package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/storelens/advisor/internal/dto"
	"github.com/storelens/advisor/internal/middleware"
	"github.com/storelens/advisor/internal/service"
)

// RuleController manages per-product scoring rules for the authenticated
// store operator.
type RuleController struct {
	ruleService service.RuleService
}

func NewRuleController(ruleService service.RuleService) *RuleController {
	return &RuleController{ruleService: ruleService}
}

// UpsertRule godoc
// @Summary (Admin) Create or update the rule for a product in a quiz
// @Description At most one rule exists per (quiz, product); posting for an existing pair updates it in place.
// @Tags Admin - Rules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rule body dto.RuleUpsertDTO true "Rule configuration"
// @Success 200 {object} dto.RuleResponseDTO "Existing rule updated"
// @Success 201 {object} dto.RuleResponseDTO "Rule created"
// @Failure 400 {object} dto.ErrorResponse "Invalid rule payload"
// @Failure 404 {object} dto.ErrorResponse "Quiz or product not owned by this store"
// @Router /admin/advisor/rules [post]
func (ctrl *RuleController) UpsertRule(c *gin.Context) {
	storeID, ok := middleware.StoreID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing store context"})
		return
	}

	var req dto.RuleUpsertDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin UpsertRule: failed to bind JSON")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, created, err := ctrl.ruleService.Upsert(c.Request.Context(), storeID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

// ListRules godoc
// @Summary (Admin) List rules for a quiz with product display fields
// @Tags Admin - Rules
// @Produce json
// @Security BearerAuth
// @Param quiz_id query int true "Quiz ID"
// @Success 200 {array} dto.RuleResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Missing quiz_id"
// @Failure 404 {object} dto.ErrorResponse "Quiz not owned by this store"
// @Router /admin/advisor/rules [get]
func (ctrl *RuleController) ListRules(c *gin.Context) {
	storeID, ok := middleware.StoreID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing store context"})
		return
	}
	quizID, ok := parseUintQuery(c, "quiz_id")
	if !ok {
		return
	}

	rules, err := ctrl.ruleService.List(c.Request.Context(), storeID, quizID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// DeleteRule godoc
// @Summary (Admin) Delete the rule for a product in a quiz
// @Tags Admin - Rules
// @Produce json
// @Security BearerAuth
// @Param quiz_id query int true "Quiz ID"
// @Param product_id query int true "Product ID"
// @Success 204 "Rule deleted"
// @Failure 400 {object} dto.ErrorResponse "Missing quiz_id or product_id"
// @Failure 404 {object} dto.ErrorResponse "Rule not found or quiz not owned by this store"
// @Router /admin/advisor/rules [delete]
func (ctrl *RuleController) DeleteRule(c *gin.Context) {
	storeID, ok := middleware.StoreID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Missing store context"})
		return
	}
	quizID, ok := parseUintQuery(c, "quiz_id")
	if !ok {
		return
	}
	productID, ok := parseUintQuery(c, "product_id")
	if !ok {
		return
	}

	if err := ctrl.ruleService.Delete(c.Request.Context(), storeID, quizID, productID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseUintQuery(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: name + " is required"})
		return 0, false
	}
	val, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrQuizInactive):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Admin request failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error"})
	}
}

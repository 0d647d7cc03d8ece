package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"trip-server/internal/model"
	"trip-server/internal/service"
)

// PlanHandler обслуживает HTTP-эндпоинты планов поездок.
type PlanHandler struct {
	planService *service.PlanService
	logger      *zap.Logger
}

// NewPlanHandler создает обработчик планов.
func NewPlanHandler(planService *service.PlanService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		logger:      logger.Named("plan_handler"),
	}
}

// RegisterRoutes регистрирует маршруты планов.
func (h *PlanHandler) RegisterRoutes(router *gin.Engine) {
	plansGroup := router.Group("/api/plans")
	{
		plansGroup.POST("", h.generatePlan)
		plansGroup.GET("", h.listPlans)
		plansGroup.GET("/:plan_id", h.getPlan)
	}
}

// generatePlan принимает группу и период, прогоняет конвейер генерации
// и возвращает сохраненный план.
func (h *PlanHandler) generatePlan(c *gin.Context) {
	var req model.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp := model.ErrorResponse{Error: model.ErrorBody{
			Code:    model.ErrCodeInvalidInput,
			Message: "Invalid request data: " + err.Error(),
		}}
		c.AbortWithStatusJSON(http.StatusBadRequest, errResp)
		return
	}

	plan, err := h.planService.GeneratePlan(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("Plan generation failed", zap.Error(err))
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

func (h *PlanHandler) getPlan(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("plan_id"))
	if err != nil {
		errResp := model.ErrorResponse{Error: model.ErrorBody{
			Code:    model.ErrCodeInvalidInput,
			Message: "Invalid plan id",
		}}
		c.AbortWithStatusJSON(http.StatusBadRequest, errResp)
		return
	}

	plan, err := h.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) listPlans(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			errResp := model.ErrorResponse{Error: model.ErrorBody{
				Code:    model.ErrCodeInvalidInput,
				Message: "Invalid limit: must be an integer between 1 and 100",
			}}
			c.AbortWithStatusJSON(http.StatusBadRequest, errResp)
			return
		}
		limit = parsed
	}

	items, err := h.planService.ListPlans(c.Request.Context(), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": items})
}

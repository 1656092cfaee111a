package api

import (
	"errors"
	"fmt"
	"net/http"

	"entrena/coach-app/internal/domain"
	"entrena/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// PlanHandler exposes shared content plans.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- Request/Response Structs ---

type PlanRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type PlanResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// --- Handler Methods ---

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), creatorID, req.Title, req.Description)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

func (h *PlanHandler) GetMyPlans(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	plans, err := h.planService.GetPlansByCreator(c.Request.Context(), creatorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	resp := make([]PlanResponse, len(plans))
	for i := range plans {
		resp[i] = MapPlanToResponse(&plans[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), creatorID, planID, req.Title, req.Description)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}

	if err := h.planService.DeletePlan(c.Request.Context(), creatorID, planID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PlanHandler) GetModules(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}

	modules, err := h.planService.GetModulesByPlan(c.Request.Context(), creatorID, planID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	resp := make([]ModuleResponse, len(modules))
	for i := range modules {
		resp[i] = MapModuleToResponse(&modules[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlanHandler) CreateModule(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}

	var req CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	module, err := h.planService.CreateModule(c.Request.Context(), creatorID, planID, req.Order)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapModuleToResponse(module))
}

func (h *PlanHandler) ReorderModules(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}

	updates, ok := bindOrderUpdates(c)
	if !ok {
		return
	}
	if err := h.planService.UpdateModuleOrders(c.Request.Context(), creatorID, planID, updates); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PlanHandler) DeleteModule(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	moduleID, ok := pathObjectID(c, "moduleId")
	if !ok {
		return
	}

	if err := h.planService.DeleteModule(c.Request.Context(), creatorID, planID, moduleID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PlanHandler) CreateSession(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}
	moduleID, ok := pathObjectID(c, "moduleId")
	if !ok {
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	session, err := h.planService.CreateSession(c.Request.Context(), creatorID, planID, moduleID, req.Title, req.Description, req.Order)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSessionToResponse(session))
}

// --- Error mapping ---

func (h *PlanHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrModuleNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrModuleNotInPlan),
		errors.Is(err, service.ErrReorderBatchTooLarge):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// MapPlanToResponse converts a domain Plan to its DTO.
func MapPlanToResponse(plan *domain.Plan) PlanResponse {
	if plan == nil {
		return PlanResponse{}
	}
	return PlanResponse{
		ID:          plan.ID.Hex(),
		Title:       plan.Title,
		Description: plan.Description,
	}
}

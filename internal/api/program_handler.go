package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"entrena/coach-app/internal/domain"
	"entrena/coach-app/internal/repository"
	"entrena/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramHandler exposes the program facade: program CRUD, the resolved
// content reads and every hierarchy mutation.
type ProgramHandler struct {
	programService service.ProgramService
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(programService service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programService: programService}
}

// --- Request/Response Structs ---

type CreateProgramRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	DeliveryType string `json:"deliveryType" binding:"omitempty,oneof=low_ticket one_on_one"`
}

type UpdateProgramRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	DeliveryType  string  `json:"deliveryType" binding:"omitempty,oneof=low_ticket one_on_one"`
	ContentPlanID *string `json:"contentPlanId"`
}

type ProgramResponse struct {
	ID            string    `json:"id"`
	CreatorID     string    `json:"creatorId"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	DeliveryType  string    `json:"deliveryType"`
	ContentPlanID *string   `json:"contentPlanId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type CreateModuleRequest struct {
	Order           *int    `json:"order"`
	LibraryModuleID *string `json:"libraryModuleId"`
}

type ModuleResponse struct {
	ID              string  `json:"id"`
	ProgramID       string  `json:"programId,omitempty"`
	PlanID          string  `json:"planId,omitempty"`
	LibraryModuleID *string `json:"libraryModuleId,omitempty"`
	Order           int     `json:"order"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	FromLibrary     bool    `json:"fromLibrary"`
}

type CreateSessionRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Order       *int   `json:"order"`
}

type UpdateSessionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageKey    string `json:"imageKey"`
}

type SessionOverrideRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageKey    *string `json:"imageKey"`
}

type SessionResponse struct {
	ID               string                  `json:"id"`
	ModuleID         string                  `json:"moduleId"`
	LibrarySessionID *string                 `json:"librarySessionId,omitempty"`
	Order            int                     `json:"order"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description,omitempty"`
	FromLibrary      bool                    `json:"fromLibrary"`
	Override         *domain.SessionOverride `json:"override,omitempty"`
}

type CreateExerciseRequest struct {
	Title    string `json:"title" binding:"required"`
	Notes    string `json:"notes"`
	VideoURL string `json:"videoUrl"`
	Order    *int   `json:"order"`
}

type UpdateExerciseRequest struct {
	Title    string `json:"title"`
	Notes    string `json:"notes"`
	VideoURL string `json:"videoUrl"`
}

type ExerciseResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	Notes     string `json:"notes,omitempty"`
	VideoURL  string `json:"videoUrl,omitempty"`
}

type SetRequest struct {
	Reps        int     `json:"reps"`
	Weight      float64 `json:"weight"`
	RestSeconds int     `json:"restSeconds"`
	Order       *int    `json:"order"`
}

type SetResponse struct {
	ID          string  `json:"id"`
	ExerciseID  string  `json:"exerciseId"`
	Title       string  `json:"title"`
	Order       int     `json:"order"`
	Reps        int     `json:"reps"`
	Weight      float64 `json:"weight"`
	RestSeconds int     `json:"restSeconds"`
}

// OrderUpdateRequest is one entry of a batched reorder.
type OrderUpdateRequest struct {
	ID    string `json:"id" binding:"required"`
	Order *int   `json:"order" binding:"required"`
}

type ReorderRequest struct {
	Updates []OrderUpdateRequest `json:"updates" binding:"required,min=1"`
}

type UploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type UploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// --- Program CRUD ---

func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	program, err := h.programService.CreateProgram(c.Request.Context(), creatorID, req.Title, req.Description, domain.DeliveryType(req.DeliveryType))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to create program")
		return
	}
	c.JSON(http.StatusCreated, MapProgramToResponse(program))
}

func (h *ProgramHandler) GetMyPrograms(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	programs, err := h.programService.GetProgramsByCreator(c.Request.Context(), creatorID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list programs")
		return
	}

	resp := make([]ProgramResponse, len(programs))
	for i := range programs {
		resp[i] = MapProgramToResponse(&programs[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProgramHandler) GetProgram(c *gin.Context) {
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	userID, userRole, ok := callerIdentity(c)
	if !ok {
		return
	}

	program, err := h.programService.GetProgramByID(c.Request.Context(), userID, userRole, programID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

func (h *ProgramHandler) UpdateProgram(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}

	var req UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	var contentPlanID *primitive.ObjectID
	if req.ContentPlanID != nil && *req.ContentPlanID != "" {
		planID, err := primitive.ObjectIDFromHex(*req.ContentPlanID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid contentPlanId format")
			return
		}
		contentPlanID = &planID
	}

	program, err := h.programService.UpdateProgram(c.Request.Context(), creatorID, programID, req.Title, req.Description, domain.DeliveryType(req.DeliveryType), contentPlanID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

func (h *ProgramHandler) DeleteProgram(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}

	if err := h.programService.DeleteProgram(c.Request.Context(), creatorID, programID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Content reads ---

func (h *ProgramHandler) GetModules(c *gin.Context) {
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	userID, userRole, ok := callerIdentity(c)
	if !ok {
		return
	}

	modules, err := h.programService.GetModulesByProgram(c.Request.Context(), userID, userRole, programID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	resp := make([]ModuleResponse, len(modules))
	for i := range modules {
		resp[i] = MapResolvedModuleToResponse(&modules[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProgramHandler) GetSessions(c *gin.Context) {
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	moduleID, ok := pathObjectID(c, "moduleId")
	if !ok {
		return
	}
	userID, userRole, ok := callerIdentity(c)
	if !ok {
		return
	}

	sessions, err := h.programService.GetSessionsByModule(c.Request.Context(), userID, userRole, programID, moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	resp := make([]SessionResponse, len(sessions))
	for i := range sessions {
		resp[i] = MapResolvedSessionToResponse(&sessions[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProgramHandler) GetSession(c *gin.Context) {
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	moduleID, ok := pathObjectID(c, "moduleId")
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}
	userID, userRole, ok := callerIdentity(c)
	if !ok {
		return
	}

	session, err := h.programService.GetSessionByID(c.Request.Context(), userID, userRole, programID, moduleID, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapResolvedSessionToResponse(session))
}

func (h *ProgramHandler) GetExercises(c *gin.Context) {
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	moduleID, ok := pathObjectID(c, "moduleId")
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}
	userID, userRole, ok := callerIdentity(c)
	if !ok {
		return
	}

	exercises, err := h.programService.GetExercisesBySession(c.Request.Context(), userID, userRole, programID, moduleID, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	resp := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		resp[i] = MapExerciseToResponse(&exercises[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProgramHandler) GetSets(c *gin.Context) {
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}
	userID, userRole, ok := callerIdentity(c)
	if !ok {
		return
	}

	sets, err := h.programService.GetSetsByExercise(c.Request.Context(), userID, userRole, programID, exerciseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	resp := make([]SetResponse, len(sets))
	for i := range sets {
		resp[i] = MapSetToResponse(&sets[i])
	}
	c.JSON(http.StatusOK, resp)
}

// --- Module mutation ---

func (h *ProgramHandler) CreateModule(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}

	var req CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	var module *domain.Module
	if req.LibraryModuleID != nil && *req.LibraryModuleID != "" {
		libraryModuleID, err := primitive.ObjectIDFromHex(*req.LibraryModuleID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid libraryModuleId format")
			return
		}
		module, err = h.programService.CreateModuleFromLibrary(c.Request.Context(), creatorID, programID, libraryModuleID)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
	} else {
		module, err = h.programService.CreateModule(c.Request.Context(), creatorID, programID, req.Order)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, MapModuleToResponse(module))
}

func (h *ProgramHandler) ReorderModules(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}

	updates, ok := bindOrderUpdates(c)
	if !ok {
		return
	}
	if err := h.programService.UpdateModuleOrders(c.Request.Context(), creatorID, programID, updates); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProgramHandler) DeleteModule(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	moduleID, ok := pathObjectID(c, "moduleId")
	if !ok {
		return
	}

	if err := h.programService.DeleteModule(c.Request.Context(), creatorID, programID, moduleID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Session mutation ---

func (h *ProgramHandler) CreateSession(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
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

	session, err := h.programService.CreateSession(c.Request.Context(), creatorID, programID, moduleID, req.Title, req.Description, req.Order)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSessionToResponse(session))
}

func (h *ProgramHandler) UpdateSession(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}

	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	session, err := h.programService.UpdateSession(c.Request.Context(), creatorID, programID, sessionID, req.Title, req.Description, req.ImageKey)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionToResponse(session))
}

func (h *ProgramHandler) ReorderSessions(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}

	updates, ok := bindOrderUpdates(c)
	if !ok {
		return
	}
	if err := h.programService.UpdateSessionOrders(c.Request.Context(), creatorID, programID, updates); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProgramHandler) DeleteSession(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}

	if err := h.programService.DeleteSession(c.Request.Context(), creatorID, programID, sessionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProgramHandler) UpdateSessionOverride(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	moduleID, ok := pathObjectID(c, "moduleId")
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}

	var req SessionOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resolved, err := h.programService.UpdateSessionOverride(c.Request.Context(), creatorID, programID, moduleID, sessionID, service.SessionOverridePatch{
		Title:       req.Title,
		Description: req.Description,
		ImageKey:    req.ImageKey,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapResolvedSessionToResponse(resolved))
}

// --- Exercise mutation ---

func (h *ProgramHandler) CreateExercise(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}

	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.programService.CreateExercise(c.Request.Context(), creatorID, programID, sessionID, req.Title, req.Notes, req.VideoURL, req.Order)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

func (h *ProgramHandler) UpdateExercise(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}

	var req UpdateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.programService.UpdateExercise(c.Request.Context(), creatorID, programID, exerciseID, req.Title, req.Notes, req.VideoURL)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

func (h *ProgramHandler) ReorderExercises(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}

	updates, ok := bindOrderUpdates(c)
	if !ok {
		return
	}
	if err := h.programService.UpdateExerciseOrders(c.Request.Context(), creatorID, programID, updates); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProgramHandler) DeleteExercise(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}

	if err := h.programService.DeleteExercise(c.Request.Context(), creatorID, programID, exerciseID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Set mutation ---

func (h *ProgramHandler) CreateSet(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}

	var req SetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	set, err := h.programService.CreateSet(c.Request.Context(), creatorID, programID, exerciseID, req.Reps, req.Weight, req.RestSeconds, req.Order)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSetToResponse(set))
}

func (h *ProgramHandler) UpdateSet(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	setID, ok := pathObjectID(c, "setId")
	if !ok {
		return
	}

	var req SetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	set, err := h.programService.UpdateSet(c.Request.Context(), creatorID, programID, setID, req.Reps, req.Weight, req.RestSeconds)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSetToResponse(set))
}

func (h *ProgramHandler) DeleteSet(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	setID, ok := pathObjectID(c, "setId")
	if !ok {
		return
	}

	if err := h.programService.DeleteSet(c.Request.Context(), creatorID, programID, setID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Image uploads ---

func (h *ProgramHandler) GenerateCoverUpload(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	target, err := h.programService.GenerateProgramCoverUpload(c.Request.Context(), creatorID, programID, req.ContentType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, UploadResponse{URL: target.URL, Key: target.Key})
}

func (h *ProgramHandler) GenerateSessionImageUpload(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	target, err := h.programService.GenerateSessionImageUpload(c.Request.Context(), creatorID, programID, sessionID, req.ContentType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, UploadResponse{URL: target.URL, Key: target.Key})
}

// --- Error mapping ---

func (h *ProgramHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProgramNotFound),
		errors.Is(err, service.ErrModuleNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrExerciseNotFound),
		errors.Is(err, service.ErrSetNotFound),
		errors.Is(err, service.ErrLibraryModuleNotFound),
		errors.Is(err, service.ErrContentPlanNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProgramAccessDenied),
		errors.Is(err, service.ErrLibraryAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrModuleNotInProgram),
		errors.Is(err, service.ErrSessionNotInProgram),
		errors.Is(err, service.ErrExerciseNotInProgram),
		errors.Is(err, service.ErrSetNotInProgram),
		errors.Is(err, service.ErrModuleIsReference),
		errors.Is(err, service.ErrSessionIsReference),
		errors.Is(err, service.ErrOverrideNotAllowed),
		errors.Is(err, service.ErrReorderBatchTooLarge):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// --- DTO Mappers ---

func MapProgramToResponse(program *domain.Program) ProgramResponse {
	if program == nil {
		return ProgramResponse{}
	}
	resp := ProgramResponse{
		ID:           program.ID.Hex(),
		CreatorID:    program.CreatorID.Hex(),
		Title:        program.Title,
		Description:  program.Description,
		DeliveryType: string(program.DeliveryType),
		CreatedAt:    program.CreatedAt,
		UpdatedAt:    program.UpdatedAt,
	}
	if program.ContentPlanID != nil && *program.ContentPlanID != primitive.NilObjectID {
		planIDHex := (*program.ContentPlanID).Hex()
		resp.ContentPlanID = &planIDHex
	}
	return resp
}

func MapModuleToResponse(module *domain.Module) ModuleResponse {
	if module == nil {
		return ModuleResponse{}
	}
	resp := ModuleResponse{
		ID:    module.ID.Hex(),
		Order: module.Order,
		Title: module.Title,
	}
	if module.ProgramID != primitive.NilObjectID {
		resp.ProgramID = module.ProgramID.Hex()
	}
	if module.PlanID != primitive.NilObjectID {
		resp.PlanID = module.PlanID.Hex()
	}
	if module.IsLibraryRef() {
		idHex := module.LibraryModuleID.Hex()
		resp.LibraryModuleID = &idHex
	}
	return resp
}

func MapResolvedModuleToResponse(module *domain.ResolvedModule) ModuleResponse {
	resp := MapModuleToResponse(&module.Module)
	resp.Description = module.Description
	resp.FromLibrary = module.FromLibrary
	return resp
}

func MapSessionToResponse(session *domain.Session) SessionResponse {
	if session == nil {
		return SessionResponse{}
	}
	resp := SessionResponse{
		ID:          session.ID.Hex(),
		ModuleID:    session.ModuleID.Hex(),
		Order:       session.Order,
		Title:       session.Title,
		Description: session.Description,
	}
	if session.IsLibraryRef() {
		idHex := session.LibrarySessionID.Hex()
		resp.LibrarySessionID = &idHex
	}
	return resp
}

func MapResolvedSessionToResponse(session *domain.ResolvedSession) SessionResponse {
	resp := MapSessionToResponse(&session.Session)
	resp.FromLibrary = session.FromLibrary
	resp.Override = session.Override
	return resp
}

func MapExerciseToResponse(exercise *domain.Exercise) ExerciseResponse {
	if exercise == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:        exercise.ID.Hex(),
		SessionID: exercise.SessionID.Hex(),
		Title:     exercise.Title,
		Order:     exercise.Order,
		Notes:     exercise.Notes,
		VideoURL:  exercise.VideoURL,
	}
}

func MapSetToResponse(set *domain.Set) SetResponse {
	if set == nil {
		return SetResponse{}
	}
	return SetResponse{
		ID:          set.ID.Hex(),
		ExerciseID:  set.ExerciseID.Hex(),
		Title:       set.Title,
		Order:       set.Order,
		Reps:        set.Reps,
		Weight:      set.Weight,
		RestSeconds: set.RestSeconds,
	}
}

// bindOrderUpdates parses and converts a reorder payload, rejecting
// oversized batches before they reach the store.
func bindOrderUpdates(c *gin.Context) ([]repository.OrderUpdate, bool) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return nil, false
	}
	if len(req.Updates) > repository.MaxWriteBatchSize {
		abortWithError(c, http.StatusUnprocessableEntity, fmt.Sprintf("Reorder batch exceeds the %d entry limit", repository.MaxWriteBatchSize))
		return nil, false
	}

	updates := make([]repository.OrderUpdate, len(req.Updates))
	for i, u := range req.Updates {
		id, err := primitive.ObjectIDFromHex(u.ID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid id format at index %d", i))
			return nil, false
		}
		updates[i] = repository.OrderUpdate{ID: id, Order: *u.Order}
	}
	return updates, true
}

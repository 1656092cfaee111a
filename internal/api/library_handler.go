package api

import (
	"errors"
	"fmt"
	"net/http"

	"entrena/coach-app/internal/domain"
	"entrena/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LibraryHandler exposes the creator's reusable content library.
type LibraryHandler struct {
	libraryService service.LibraryService
}

// NewLibraryHandler creates a new LibraryHandler.
func NewLibraryHandler(libraryService service.LibraryService) *LibraryHandler {
	return &LibraryHandler{libraryService: libraryService}
}

// --- Request/Response Structs ---

type CreateLibraryModuleRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	SessionIDs  []string `json:"sessionIds"`
}

type UpdateLibraryModuleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type SetLibrarySessionsRequest struct {
	SessionIDs []string `json:"sessionIds" binding:"required"`
}

type LibraryModuleResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	SessionRefs []SessionRefResponse `json:"sessionRefs"`
}

type SessionRefResponse struct {
	LibrarySessionID string `json:"librarySessionRef"`
	Order            int    `json:"order"`
}

type CreateLibrarySessionRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type UpdateLibrarySessionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageKey    string `json:"imageKey"`
}

type LibrarySessionResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type LibraryExerciseResponse struct {
	ID               string `json:"id"`
	LibrarySessionID string `json:"librarySessionId"`
	Title            string `json:"title"`
	Order            int    `json:"order"`
	Notes            string `json:"notes,omitempty"`
	VideoURL         string `json:"videoUrl,omitempty"`
}

// --- Library modules ---

func (h *LibraryHandler) CreateModule(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	var req CreateLibraryModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	sessionIDs, ok := parseObjectIDs(c, req.SessionIDs)
	if !ok {
		return
	}

	module, err := h.libraryService.CreateModule(c.Request.Context(), creatorID, req.Title, req.Description, sessionIDs)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapLibraryModuleToResponse(module))
}

func (h *LibraryHandler) GetModules(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	modules, err := h.libraryService.GetModulesByCreator(c.Request.Context(), creatorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	resp := make([]LibraryModuleResponse, len(modules))
	for i := range modules {
		resp[i] = MapLibraryModuleToResponse(&modules[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LibraryHandler) GetModule(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	moduleID, ok := pathObjectID(c, "moduleId")
	if !ok {
		return
	}

	module, err := h.libraryService.GetModuleByID(c.Request.Context(), creatorID, moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapLibraryModuleToResponse(module))
}

func (h *LibraryHandler) UpdateModule(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	moduleID, ok := pathObjectID(c, "moduleId")
	if !ok {
		return
	}

	var req UpdateLibraryModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	module, err := h.libraryService.UpdateModule(c.Request.Context(), creatorID, moduleID, req.Title, req.Description)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapLibraryModuleToResponse(module))
}

func (h *LibraryHandler) SetModuleSessions(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	moduleID, ok := pathObjectID(c, "moduleId")
	if !ok {
		return
	}

	var req SetLibrarySessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	sessionIDs, ok := parseObjectIDs(c, req.SessionIDs)
	if !ok {
		return
	}

	module, err := h.libraryService.SetModuleSessions(c.Request.Context(), creatorID, moduleID, sessionIDs)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapLibraryModuleToResponse(module))
}

func (h *LibraryHandler) DeleteModule(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	moduleID, ok := pathObjectID(c, "moduleId")
	if !ok {
		return
	}

	if err := h.libraryService.DeleteModule(c.Request.Context(), creatorID, moduleID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Library sessions ---

func (h *LibraryHandler) CreateSession(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	var req CreateLibrarySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	session, err := h.libraryService.CreateSession(c.Request.Context(), creatorID, req.Title, req.Description)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapLibrarySessionToResponse(session))
}

func (h *LibraryHandler) GetSessions(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	sessions, err := h.libraryService.GetSessionsByCreator(c.Request.Context(), creatorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	resp := make([]LibrarySessionResponse, len(sessions))
	for i := range sessions {
		resp[i] = MapLibrarySessionToResponse(&sessions[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LibraryHandler) UpdateSession(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}

	var req UpdateLibrarySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	session, err := h.libraryService.UpdateSession(c.Request.Context(), creatorID, sessionID, req.Title, req.Description, req.ImageKey)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapLibrarySessionToResponse(session))
}

func (h *LibraryHandler) DeleteSession(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}

	if err := h.libraryService.DeleteSession(c.Request.Context(), creatorID, sessionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LibraryHandler) GenerateSessionImageUpload(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
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

	target, err := h.libraryService.GenerateSessionImageUpload(c.Request.Context(), creatorID, sessionID, req.ContentType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, UploadResponse{URL: target.URL, Key: target.Key})
}

// --- Library exercises ---

func (h *LibraryHandler) CreateExercise(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
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

	exercise, err := h.libraryService.CreateExercise(c.Request.Context(), creatorID, sessionID, req.Title, req.Notes, req.VideoURL, req.Order)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapLibraryExerciseToResponse(exercise))
}

func (h *LibraryHandler) GetExercises(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	sessionID, ok := pathObjectID(c, "sessionId")
	if !ok {
		return
	}

	exercises, err := h.libraryService.GetExercisesBySession(c.Request.Context(), creatorID, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	resp := make([]LibraryExerciseResponse, len(exercises))
	for i := range exercises {
		resp[i] = MapLibraryExerciseToResponse(&exercises[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LibraryHandler) UpdateExercise(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
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

	exercise, err := h.libraryService.UpdateExercise(c.Request.Context(), creatorID, exerciseID, req.Title, req.Notes, req.VideoURL)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapLibraryExerciseToResponse(exercise))
}

func (h *LibraryHandler) DeleteExercise(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}

	if err := h.libraryService.DeleteExercise(c.Request.Context(), creatorID, exerciseID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Error mapping ---

func (h *LibraryHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLibraryModuleNotFound),
		errors.Is(err, service.ErrLibrarySessionNotFound),
		errors.Is(err, service.ErrLibraryExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrLibraryAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// --- DTO Mappers ---

func MapLibraryModuleToResponse(module *domain.LibraryModule) LibraryModuleResponse {
	if module == nil {
		return LibraryModuleResponse{}
	}
	refs := domain.NormalizeSessionRefs(module.SessionRefs)
	resp := LibraryModuleResponse{
		ID:          module.ID.Hex(),
		Title:       module.Title,
		Description: module.Description,
		SessionRefs: make([]SessionRefResponse, len(refs)),
	}
	for i, ref := range refs {
		resp.SessionRefs[i] = SessionRefResponse{
			LibrarySessionID: ref.LibrarySessionID.Hex(),
			Order:            ref.Order,
		}
	}
	return resp
}

func MapLibrarySessionToResponse(session *domain.LibrarySession) LibrarySessionResponse {
	if session == nil {
		return LibrarySessionResponse{}
	}
	return LibrarySessionResponse{
		ID:          session.ID.Hex(),
		Title:       session.Title,
		Description: session.Description,
	}
}

func MapLibraryExerciseToResponse(exercise *domain.LibraryExercise) LibraryExerciseResponse {
	if exercise == nil {
		return LibraryExerciseResponse{}
	}
	return LibraryExerciseResponse{
		ID:               exercise.ID.Hex(),
		LibrarySessionID: exercise.LibrarySessionID.Hex(),
		Title:            exercise.Title,
		Order:            exercise.Order,
		Notes:            exercise.Notes,
		VideoURL:         exercise.VideoURL,
	}
}

func parseObjectIDs(c *gin.Context, hexIDs []string) ([]primitive.ObjectID, bool) {
	ids := make([]primitive.ObjectID, len(hexIDs))
	for i, hex := range hexIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid id format at index %d", i))
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}

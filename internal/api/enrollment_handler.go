package api

import (
	"errors"
	"fmt"
	"net/http"

	"entrena/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// EnrollmentHandler exposes creator/client management and program grants.
type EnrollmentHandler struct {
	enrollmentService service.EnrollmentService
}

// NewEnrollmentHandler creates a new EnrollmentHandler.
func NewEnrollmentHandler(enrollmentService service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// --- Request Structs ---

type AddClientRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// --- Handler Methods ---

// AddClient places an existing client user under the calling creator.
func (h *EnrollmentHandler) AddClient(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	client, err := h.enrollmentService.AddClientByEmail(c.Request.Context(), creatorID, req.Email)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// GetClients lists the clients managed by the calling creator.
func (h *EnrollmentHandler) GetClients(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	clients, err := h.enrollmentService.GetManagedClients(c.Request.Context(), creatorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	resp := make([]UserResponse, len(clients))
	for i := range clients {
		resp[i] = MapUserToResponse(&clients[i])
	}
	c.JSON(http.StatusOK, resp)
}

// AssignProgram grants a managed client access to a one-on-one program.
func (h *EnrollmentHandler) AssignProgram(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}
	programID, ok := pathObjectID(c, "programId")
	if !ok {
		return
	}

	if err := h.enrollmentService.AssignProgramToClient(c.Request.Context(), creatorID, clientID, programID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMyPrograms lists the programs granted to the calling client.
func (h *EnrollmentHandler) GetMyPrograms(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	programs, err := h.enrollmentService.GetClientPrograms(c.Request.Context(), clientID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	resp := make([]ProgramResponse, len(programs))
	for i := range programs {
		resp[i] = MapProgramToResponse(&programs[i])
	}
	c.JSON(http.StatusOK, resp)
}

// --- Error mapping ---

func (h *EnrollmentHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrProgramNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProgramAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrClientNotRole),
		errors.Is(err, service.ErrClientAlreadyManaged),
		errors.Is(err, service.ErrClientNotManaged),
		errors.Is(err, service.ErrProgramNotForDelivery):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

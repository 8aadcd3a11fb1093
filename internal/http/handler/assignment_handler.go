package handler

import (
	"net/http"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/service"
	"go.uber.org/zap"
)

// AssignmentHandler handles HTTP requests for project collaborator assignments
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	logger            *zap.Logger
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assignmentService *service.AssignmentService, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		logger:            logger,
	}
}

// Update godoc
// @Summary Update assignment
// @Description Change role, gettoni budget or notes. The budget cannot drop below the gettoni already used.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param request body domain.UpdateAssignmentRequest true "Assignment data"
// @Success 200 {object} domain.ProjectCollaboratorDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /assignments/{id} [put]
func (h *AssignmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "assignment")
	if !ok {
		return
	}

	var req domain.UpdateAssignmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	assignment, err := h.assignmentService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update assignment")
		return
	}
	respondJSON(w, http.StatusOK, assignment)
}

// Remove godoc
// @Summary Remove collaborator from project
// @Tags Assignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "assignment")
	if !ok {
		return
	}

	if err := h.assignmentService.Remove(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to remove assignment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UseTokens godoc
// @Summary Consume gettoni
// @Description Records gettoni used on an assignment. Fails when the assigned budget would be exceeded.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param request body domain.UseTokensRequest true "Gettoni to consume"
// @Success 200 {object} domain.ProjectCollaboratorDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /assignments/{id}/use-tokens [post]
func (h *AssignmentHandler) UseTokens(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "assignment")
	if !ok {
		return
	}

	var req domain.UseTokensRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	assignment, err := h.assignmentService.UseTokens(r.Context(), id, req.Amount)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to use gettoni")
		return
	}
	respondJSON(w, http.StatusOK, assignment)
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/service"
	"go.uber.org/zap"
)

type CollaboratorHandler struct {
	collaboratorService *service.CollaboratorService
	logger              *zap.Logger
}

func NewCollaboratorHandler(collaboratorService *service.CollaboratorService, logger *zap.Logger) *CollaboratorHandler {
	return &CollaboratorHandler{
		collaboratorService: collaboratorService,
		logger:              logger,
	}
}

// @Summary List collaborators
// @Tags Collaborators
// @Produce json
// @Param search query string false "Search name or e-mail"
// @Success 200 {array} domain.CollaboratorDTO
// @Security BearerAuth
// @Router /collaborators [get]
func (h *CollaboratorHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.collaboratorService.List(r.Context(), r.URL.Query().Get("search")))
}

// @Summary Get collaborator
// @Tags Collaborators
// @Produce json
// @Param id path string true "Collaborator ID"
// @Success 200 {object} domain.CollaboratorDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /collaborators/{id} [get]
func (h *CollaboratorHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "collaborator")
	if !ok {
		return
	}

	collaborator, err := h.collaboratorService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get collaborator")
		return
	}
	respondJSON(w, http.StatusOK, collaborator)
}

// @Summary Create collaborator
// @Tags Collaborators
// @Accept json
// @Produce json
// @Param request body domain.CollaboratorRequest true "Collaborator data"
// @Success 201 {object} domain.CollaboratorDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /collaborators [post]
func (h *CollaboratorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CollaboratorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	collaborator, err := h.collaboratorService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create collaborator")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/collaborators/%s", collaborator.ID))
	respondJSON(w, http.StatusCreated, collaborator)
}

// @Summary Update collaborator
// @Tags Collaborators
// @Accept json
// @Produce json
// @Param id path string true "Collaborator ID"
// @Param request body domain.CollaboratorRequest true "Collaborator data"
// @Success 200 {object} domain.CollaboratorDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /collaborators/{id} [put]
func (h *CollaboratorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "collaborator")
	if !ok {
		return
	}

	var req domain.CollaboratorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	collaborator, err := h.collaboratorService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update collaborator")
		return
	}
	respondJSON(w, http.StatusOK, collaborator)
}

// @Summary Update available gettoni
// @Tags Collaborators
// @Accept json
// @Produce json
// @Param id path string true "Collaborator ID"
// @Param request body domain.UpdateTokensRequest true "Available gettoni"
// @Success 200 {object} domain.CollaboratorDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /collaborators/{id}/tokens [put]
func (h *CollaboratorHandler) UpdateTokens(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "collaborator")
	if !ok {
		return
	}

	var req domain.UpdateTokensRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	collaborator, err := h.collaboratorService.UpdateTokens(r.Context(), id, req.TokensAvailable)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update gettoni")
		return
	}
	respondJSON(w, http.StatusOK, collaborator)
}

// @Summary Delete collaborator
// @Tags Collaborators
// @Param id path string true "Collaborator ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /collaborators/{id} [delete]
func (h *CollaboratorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "collaborator")
	if !ok {
		return
	}

	if err := h.collaboratorService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete collaborator")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

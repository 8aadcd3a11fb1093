package handler

import (
	"fmt"
	"net/http"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/gestionale-crm/crm-api/internal/service"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projectService    *service.ProjectService
	assignmentService *service.AssignmentService
	logger            *zap.Logger
}

func NewProjectHandler(
	projectService *service.ProjectService,
	assignmentService *service.AssignmentService,
	logger *zap.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projectService:    projectService,
		assignmentService: assignmentService,
		logger:            logger,
	}
}

// List godoc
// @Summary List projects
// @Tags Projects
// @Produce json
// @Param clientId query string false "Filter by client ID"
// @Param status query string false "Filter by status (pianificazione, in_corso, completato, sospeso, annullato)"
// @Success 200 {array} domain.ProjectDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /projects [get]
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID, err := optionalUUID(r, "clientId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	filters := &repository.ProjectFilters{ClientID: clientID}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.ProjectStatus(s)
		filters.Status = &status
	}

	respondJSON(w, http.StatusOK, h.projectService.List(r.Context(), filters))
}

// Active godoc
// @Summary List active projects
// @Description Planned and running projects ordered by priority, then start date
// @Tags Projects
// @Produce json
// @Success 200 {array} domain.ProjectDTO
// @Security BearerAuth
// @Router /projects/active [get]
func (h *ProjectHandler) Active(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.projectService.Active(r.Context()))
}

// GetByID godoc
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} domain.ProjectDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "project")
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get project")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// Create godoc
// @Summary Create project
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body domain.ProjectRequest true "Project data"
// @Success 201 {object} domain.ProjectDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /projects [post]
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.ProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	project, err := h.projectService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create project")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/projects/%s", project.ID))
	respondJSON(w, http.StatusCreated, project)
}

// Update godoc
// @Summary Update project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body domain.ProjectRequest true "Project data"
// @Success 200 {object} domain.ProjectDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "project")
	if !ok {
		return
	}

	var req domain.ProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	project, err := h.projectService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update project")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// Delete godoc
// @Summary Delete project
// @Description Delete a project and its collaborator assignments
// @Tags Projects
// @Param id path string true "Project ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "project")
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCollaborators godoc
// @Summary List project collaborators
// @Description Assignments of a project with their gettoni
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} domain.ProjectCollaboratorDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /projects/{id}/collaborators [get]
func (h *ProjectHandler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "project")
	if !ok {
		return
	}

	assignments, err := h.assignmentService.ListByProject(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list project collaborators")
		return
	}
	respondJSON(w, http.StatusOK, assignments)
}

// AssignCollaborator godoc
// @Summary Assign collaborator
// @Description Add a collaborator to a project with a gettoni budget
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body domain.AssignCollaboratorRequest true "Assignment data"
// @Success 201 {object} domain.ProjectCollaboratorDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /projects/{id}/collaborators [post]
func (h *ProjectHandler) AssignCollaborator(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "project")
	if !ok {
		return
	}

	var req domain.AssignCollaboratorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	assignment, err := h.assignmentService.Assign(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to assign collaborator")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/assignments/%s", assignment.ID))
	respondJSON(w, http.StatusCreated, assignment)
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/gestionale-crm/crm-api/internal/service"
	"go.uber.org/zap"
)

type ClientHandler struct {
	clientService       *service.ClientService
	notificationService *service.NotificationService
	logger              *zap.Logger
}

func NewClientHandler(
	clientService *service.ClientService,
	notificationService *service.NotificationService,
	logger *zap.Logger,
) *ClientHandler {
	return &ClientHandler{
		clientService:       clientService,
		notificationService: notificationService,
		logger:              logger,
	}
}

// List godoc
// @Summary List clients
// @Description List the clients visible to the current user
// @Tags Clients
// @Produce json
// @Param search query string false "Search company, contact person or e-mail"
// @Param status query string false "Filter by deal status (in_corso, vinta, persa, sospesa)"
// @Param sortBy query string false "Sort field (nome_azienda, data_scadenza_contratto, created_at, updated_at)"
// @Param sortOrder query string false "Sort order (asc, desc)"
// @Success 200 {array} domain.ClientDTO
// @Security BearerAuth
// @Router /clients [get]
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := repository.ClientFilters{
		Search: q.Get("search"),
		Sort: repository.SortConfig{
			Field: q.Get("sortBy"),
			Order: repository.ParseSortOrder(q.Get("sortOrder")),
		},
	}
	if s := q.Get("status"); s != "" {
		status := domain.DealStatus(s)
		filters.Status = &status
	}

	respondJSON(w, http.StatusOK, h.clientService.List(r.Context(), filters))
}

// GetByID godoc
// @Summary Get client
// @Tags Clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} domain.ClientDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /clients/{id} [get]
func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "client")
	if !ok {
		return
	}

	client, err := h.clientService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get client")
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// Create godoc
// @Summary Create client
// @Description Create a client owned by the current user
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body domain.ClientRequest true "Client data"
// @Success 201 {object} domain.ClientDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /clients [post]
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.ClientRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	client, err := h.clientService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create client")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/clients/%s", client.ID))
	respondJSON(w, http.StatusCreated, client)
}

// Update godoc
// @Summary Update client
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param request body domain.ClientRequest true "Client data"
// @Success 200 {object} domain.ClientDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "client")
	if !ok {
		return
	}

	var req domain.ClientRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	client, err := h.clientService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update client")
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// Delete godoc
// @Summary Delete client
// @Description Delete a client together with its reminders
// @Tags Clients
// @Param id path string true "Client ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /clients/{id} [delete]
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "client")
	if !ok {
		return
	}

	if err := h.clientService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete client")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Notifications godoc
// @Summary List client reminders
// @Description Contract expiry reminders generated for one client
// @Tags Clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {array} domain.NotificationDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /clients/{id}/notifications [get]
func (h *ClientHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "client")
	if !ok {
		return
	}

	if _, err := h.clientService.GetByID(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to get client")
		return
	}
	respondJSON(w, http.StatusOK, h.notificationService.ListForClient(r.Context(), id))
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/gestionale-crm/crm-api/internal/service"
	"go.uber.org/zap"
)

type DealHandler struct {
	dealService *service.DealService
	logger      *zap.Logger
}

func NewDealHandler(dealService *service.DealService, logger *zap.Logger) *DealHandler {
	return &DealHandler{
		dealService: dealService,
		logger:      logger,
	}
}

// @Summary List deals
// @Description List deals with optional filters
// @Tags Deals
// @Produce json
// @Param clientId query string false "Filter by client ID"
// @Param status query string false "Filter by status (in_corso, vinta, persa)"
// @Param search query string false "Search in the subject"
// @Success 200 {array} domain.DealDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /deals [get]
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := &repository.DealFilters{Search: r.URL.Query().Get("search")}

	clientID, err := optionalUUID(r, "clientId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	filters.ClientID = clientID

	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.DealStatus(s)
		filters.Status = &status
	}

	respondJSON(w, http.StatusOK, h.dealService.List(r.Context(), filters))
}

// @Summary Create deal
// @Description Open a deal for a client
// @Tags Deals
// @Accept json
// @Produce json
// @Param request body domain.DealRequest true "Deal data"
// @Success 201 {object} domain.DealDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /deals [post]
func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.DealRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deal, err := h.dealService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create deal")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/deals/%s", deal.ID))
	respondJSON(w, http.StatusCreated, deal)
}

// @Summary Get deal
// @Tags Deals
// @Produce json
// @Param id path string true "Deal ID"
// @Success 200 {object} domain.DealDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /deals/{id} [get]
func (h *DealHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "deal")
	if !ok {
		return
	}

	deal, err := h.dealService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get deal")
		return
	}
	respondJSON(w, http.StatusOK, deal)
}

// @Summary Update deal
// @Tags Deals
// @Accept json
// @Produce json
// @Param id path string true "Deal ID"
// @Param request body domain.DealRequest true "Deal data"
// @Success 200 {object} domain.DealDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /deals/{id} [put]
func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "deal")
	if !ok {
		return
	}

	var req domain.DealRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deal, err := h.dealService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update deal")
		return
	}
	respondJSON(w, http.StatusOK, deal)
}

// @Summary Delete deal
// @Tags Deals
// @Param id path string true "Deal ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /deals/{id} [delete]
func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "deal")
	if !ok {
		return
	}

	if err := h.dealService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete deal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

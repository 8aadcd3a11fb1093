package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/gestionale-crm/crm-api/internal/service"
	"go.uber.org/zap"
)

// ActivityHandler handles HTTP requests for the personal activity log (calls, e-mails, meetings)
type ActivityHandler struct {
	activityService *service.ActivityService
	logger          *zap.Logger
}

// NewActivityHandler creates a new ActivityHandler instance
func NewActivityHandler(activityService *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// List godoc
// @Summary List activities
// @Description Get a page of the current user's activities with optional filters
// @Tags Activities
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param type query string false "Filter by activity type (call, email, meeting)"
// @Param clientId query string false "Filter by client ID" format(uuid)
// @Param dealId query string false "Filter by deal ID" format(uuid)
// @Param from query string false "Activities from this date (YYYY-MM-DD), inclusive from 00:00:00"
// @Param to query string false "Activities to this date (YYYY-MM-DD), inclusive until 23:59:59"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ActivityDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /activities [get]
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 20)
	if pageSize < 1 {
		pageSize = 20
	}

	filters := &repository.ActivityFilters{}

	if t := r.URL.Query().Get("type"); t != "" {
		at := domain.ActivityType(t)
		switch at {
		case domain.ActivityTypeCall, domain.ActivityTypeEmail, domain.ActivityTypeMeeting:
			filters.Type = &at
		default:
			respondWithError(w, http.StatusBadRequest, "Invalid activity type. Valid values: call, email, meeting")
			return
		}
	}

	var err error
	if filters.ClientID, err = optionalUUID(r, "clientId"); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filters.DealID, err = optionalUUID(r, "dealId"); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		from, err := time.Parse(domain.DateLayout, fromStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'from' format, expected YYYY-MM-DD")
			return
		}
		filters.From = &from
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		to, err := time.Parse(domain.DateLayout, toStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'to' format, expected YYYY-MM-DD")
			return
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
		filters.To = &to
	}

	respondJSON(w, http.StatusOK, h.activityService.List(r.Context(), filters, page, pageSize))
}

// GetByID godoc
// @Summary Get activity
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} domain.ActivityDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /activities/{id} [get]
func (h *ActivityHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "activity")
	if !ok {
		return
	}

	activity, err := h.activityService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get activity")
		return
	}
	respondJSON(w, http.StatusOK, activity)
}

// Create godoc
// @Summary Log activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param request body domain.ActivityRequest true "Activity data"
// @Success 201 {object} domain.ActivityDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /activities [post]
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.ActivityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	activity, err := h.activityService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create activity")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/activities/%s", activity.ID))
	respondJSON(w, http.StatusCreated, activity)
}

// Update godoc
// @Summary Update activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param request body domain.ActivityRequest true "Activity data"
// @Success 200 {object} domain.ActivityDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /activities/{id} [put]
func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "activity")
	if !ok {
		return
	}

	var req domain.ActivityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	activity, err := h.activityService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update activity")
		return
	}
	respondJSON(w, http.StatusOK, activity)
}

// Delete godoc
// @Summary Delete activity
// @Tags Activities
// @Param id path string true "Activity ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /activities/{id} [delete]
func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "activity")
	if !ok {
		return
	}

	if err := h.activityService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete activity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

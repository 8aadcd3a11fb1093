package handler

import (
	"net/http"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/service"
	"go.uber.org/zap"
)

// NotificationHandler handles HTTP requests for contract expiry reminders
type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(notificationService *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// List godoc
// @Summary List notifications
// @Description Reminders visible to the current user, due or not
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread reminders" default(false)
// @Success 200 {array} domain.NotificationDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notificationService.ListForCurrentUser(r.Context(), queryBool(r, "unread"))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list notifications")
		return
	}
	respondJSON(w, http.StatusOK, notifications)
}

// Pending godoc
// @Summary List pending notifications
// @Description Unread reminders whose notification date has been reached
// @Tags Notifications
// @Produce json
// @Success 200 {array} domain.NotificationDTO
// @Security BearerAuth
// @Router /notifications/pending [get]
func (h *NotificationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.notificationService.ListPending(r.Context()))
}

// Count godoc
// @Summary Notification badge counters
// @Description Pending reminders and contracts expiring soon
// @Tags Notifications
// @Produce json
// @Success 200 {object} domain.NotificationCounts
// @Security BearerAuth
// @Router /notifications/count [get]
func (h *NotificationHandler) Count(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.notificationService.GetCounts(r.Context()))
}

// MarkAsRead godoc
// @Summary Mark notification as read
// @Description Marking an already read reminder keeps its first read time
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID" format(uuid)
// @Success 200 {object} domain.NotificationDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "notification")
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkAsRead(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to mark notification as read")
		return
	}
	respondJSON(w, http.StatusOK, notification)
}

// MarkManyAsRead godoc
// @Summary Mark several notifications as read
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body domain.MarkNotificationsReadRequest true "Notification IDs"
// @Success 200 {object} map[string]int
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /notifications/read [put]
func (h *NotificationHandler) MarkManyAsRead(w http.ResponseWriter, r *http.Request) {
	var req domain.MarkNotificationsReadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.notificationService.MarkManyAsRead(r.Context(), req.IDs)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to mark notifications as read")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// Generate godoc
// @Summary Generate due notifications
// @Description Materializes every reminder due today. Running it twice on the same day creates nothing new.
// @Tags Notifications
// @Produce json
// @Success 200 {object} domain.GenerationResult
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /notifications/generate [post]
func (h *NotificationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	result, err := h.notificationService.GenerateNotifications(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to generate notifications")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete notification
// @Tags Notifications
// @Param id path string true "Notification ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "notification")
	if !ok {
		return
	}

	if err := h.notificationService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

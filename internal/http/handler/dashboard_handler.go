package handler

import (
	"net/http"

	"github.com/gestionale-crm/crm-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// @Summary Get dashboard statistics
// @Description Pipeline counters and best performers over the deals visible to the current user.
// @Description
// @Description - `total_deal_value`: sum of estimated values of deals still in progress
// @Description - `this_week_activities`: activities since Sunday 00:00
// @Description - `best_client_by_revenue`: client with the highest won value
// @Description - `best_sales_performance.best_day`: day with the most won deals
// @Description - `best_sales_performance.best_month`: month with the highest won value
// @Description
// @Description When the data cannot be loaded every counter is zero.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardStats
// @Security BearerAuth
// @Router /dashboard/stats [get]
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.dashboardService.GetStats(r.Context()))
}

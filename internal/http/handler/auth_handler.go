package handler

import (
	"net/http"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/service"
	"go.uber.org/zap"
)

// AuthHandler serves the session profile and account approval
type AuthHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewAuthHandler(userService *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
	}
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the profile and role of the current user
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserDTO
// @Failure 401 {object} domain.ErrorResponse "Unauthorized"
// @Failure 403 {object} domain.ErrorResponse "Account waiting for approval"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Me(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to load profile")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Description Accounts of the workspace. Owners and managers only.
// @Tags Users
// @Produce json
// @Param pending query bool false "Only accounts waiting for approval" default(false)
// @Success 200 {array} domain.UserDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /users [get]
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context(), queryBool(r, "pending"))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// ApproveUser godoc
// @Summary Approve user
// @Description Approve an account and optionally set its role. Only owners can grant the owner role.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body domain.ApproveUserRequest false "Role to grant"
// @Success 200 {object} domain.UserDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id}/approve [put]
func (h *AuthHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "user")
	if !ok {
		return
	}

	var req domain.ApproveUserRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}

	user, err := h.userService.Approve(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to approve user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

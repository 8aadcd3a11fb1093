package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gestionale-crm/crm-api/internal/config"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PendingApprovalMessage is shown to users whose account has not been approved yet
const PendingApprovalMessage = "Il tuo account è in attesa di approvazione da parte dell'amministratore. Contatta il supporto per maggiori informazioni."

// ProfileStore loads the profile of a token identity, creating it on first login
type ProfileStore interface {
	EnsureProfile(ctx context.Context, identity *Identity) (*domain.User, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	mode      string
	validator *JWTValidator
	bypass    *StaticSessionProvider
	profiles  ProfileStore
	logger    *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.AuthConfig, profiles ProfileStore, logger *zap.Logger) *Middleware {
	m := &Middleware{
		mode:     cfg.Mode,
		profiles: profiles,
		logger:   logger,
	}
	if cfg.Mode == config.AuthModeBypass {
		m.bypass = NewStaticSessionProvider(BypassUser(cfg))
	} else {
		m.validator = NewJWTValidator(cfg)
	}
	return m
}

// BypassUser builds the fixed identity used in bypass mode
func BypassUser(cfg *config.AuthConfig) CurrentUser {
	id, err := uuid.Parse(cfg.BypassUserID)
	if err != nil {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(cfg.BypassEmail))
	}
	role := domain.UserRole(cfg.BypassRole)
	if role == "" {
		role = domain.UserRoleOwner
	}
	return CurrentUser{
		ID:        id,
		Email:     cfg.BypassEmail,
		FirstName: cfg.BypassFirstName,
		LastName:  cfg.BypassLastName,
		Role:      role,
		Approved:  true,
	}
}

// Authenticate establishes the session user or rejects the request
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if m.bypass != nil {
			user, _ := m.bypass.CurrentUser(r.Context())
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
			return
		}

		token, ok := ExtractBearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "missing or malformed authorization header")
			return
		}

		identity, err := m.validator.ValidateToken(token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}

		profile, err := m.profiles.EnsureProfile(r.Context(), identity)
		if err != nil {
			m.logger.Error("failed to load user profile",
				zap.String("user_id", identity.UserID.String()),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "Internal Server Error", "failed to load user profile")
			return
		}

		user := &CurrentUser{
			ID:        profile.ID,
			Email:     profile.Email,
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			Role:      profile.Role,
			Approved:  profile.Approved,
		}
		if !user.Approved {
			m.logger.Info("rejected unapproved account",
				zap.String("user_id", user.ID.String()),
				zap.String("user_email", user.Email),
			)
			writeError(w, http.StatusForbidden, "Forbidden", PendingApprovalMessage)
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("user_id", user.ID.String()),
			zap.String("role", string(user.Role)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireRole middleware ensures the user has one of the roles
func (m *Middleware) RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusForbidden, "Forbidden", "no user context")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
		})
	}
}

func writeError(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.ErrorResponse{Error: title, Message: message})
}

package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/google/uuid"
)

// ErrNoSession is returned when no user is attached to the request
var ErrNoSession = errors.New("no authenticated user")

// CurrentUser holds the authenticated user's profile
type CurrentUser struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Role      domain.UserRole
	Approved  bool
}

type contextKey string

const userContextKey contextKey = "currentUser"

// WithUser adds the current user to the context
func WithUser(ctx context.Context, user *CurrentUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts the current user from the context
func FromContext(ctx context.Context) (*CurrentUser, bool) {
	user, ok := ctx.Value(userContextKey).(*CurrentUser)
	return user, ok && user != nil
}

// DisplayName joins first and last name, falling back to the e-mail
func (u *CurrentUser) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// CanApproveUsers reports whether the user may approve other accounts
func (u *CurrentUser) CanApproveUsers() bool {
	return u.Role == domain.UserRoleOwner || u.Role == domain.UserRoleManager
}

// OwnerFilter returns the user id rows must belong to, or nil when the user
// reads every row
func (u *CurrentUser) OwnerFilter() *uuid.UUID {
	if u.Role.SeesAllRecords() {
		return nil
	}
	id := u.ID
	return &id
}

// EffectiveOwnerFilter is the owner filter of the user in ctx. Without a user
// there is no filter; background jobs run that way.
func EffectiveOwnerFilter(ctx context.Context) *uuid.UUID {
	if user, ok := FromContext(ctx); ok {
		return user.OwnerFilter()
	}
	return nil
}

// SessionProvider resolves the user a request or job acts for
type SessionProvider interface {
	CurrentUser(ctx context.Context) (*CurrentUser, error)
}

// StaticSessionProvider always returns the same identity
type StaticSessionProvider struct {
	user CurrentUser
}

// NewStaticSessionProvider creates a provider for a fixed identity
func NewStaticSessionProvider(user CurrentUser) *StaticSessionProvider {
	return &StaticSessionProvider{user: user}
}

// CurrentUser returns a copy of the fixed identity
func (p *StaticSessionProvider) CurrentUser(_ context.Context) (*CurrentUser, error) {
	u := p.user
	return &u, nil
}

// ContextSessionProvider reads the user placed in the context by Middleware
type ContextSessionProvider struct{}

// CurrentUser returns the user in ctx or ErrNoSession
func (ContextSessionProvider) CurrentUser(ctx context.Context) (*CurrentUser, error) {
	user, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return user, nil
}

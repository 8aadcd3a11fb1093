package service

import (
	"errors"

	"gorm.io/gorm"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the user role does not allow the action
	ErrForbidden = errors.New("forbidden")

	// ErrUserContextRequired is returned when user context is not available
	ErrUserContextRequired = errors.New("user context required")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrAccountNotApproved is returned for accounts still waiting for approval
	ErrAccountNotApproved = errors.New("account not approved")

	// ErrNotificationNotFound is returned when a notification is not found
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrTokenBudgetExceeded is returned when used gettoni would exceed the assigned ones
	ErrTokenBudgetExceeded = errors.New("token budget exceeded")

	// ErrUnsupportedExport is returned for unknown dataset and format combinations
	ErrUnsupportedExport = errors.New("unsupported export")
)

// mapNotFound turns a missing record into the given sentinel
func mapNotFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

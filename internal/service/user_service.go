package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gestionale-crm/crm-api/internal/auth"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/mapper"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService manages local profiles of accounts of the hosted auth service
type UserService struct {
	userRepo *repository.UserRepository
	clock    *Clock
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, clock *Clock, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		clock:    clock,
		logger:   logger,
	}
}

// EnsureProfile loads the profile of a verified identity, creating it on
// first login. New accounts are commerciale and wait for approval, except
// the very first account which becomes an approved owner.
func (s *UserService) EnsureProfile(ctx context.Context, identity *auth.Identity) (*domain.User, error) {
	now := s.clock.Now().UTC()

	user, err := s.userRepo.GetByID(ctx, identity.UserID)
	if err == nil {
		if err := s.userRepo.TouchLastLogin(ctx, user.ID, now, identity.FirstName, identity.LastName); err != nil {
			s.logger.Warn("failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
		} else {
			user.LastLogin = &now
			if identity.FirstName != "" {
				user.FirstName = identity.FirstName
			}
			if identity.LastName != "" {
				user.LastName = identity.LastName
			}
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	user = &domain.User{
		ID:        identity.UserID,
		Email:     identity.Email,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Role:      domain.UserRoleSales,
		CreatedAt: now,
		LastLogin: &now,
	}
	if count == 0 {
		user.Role = domain.UserRoleOwner
		user.Approved = true
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("user profile created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.Bool("approved", user.Approved))

	return user, nil
}

// Me returns the profile of the current user. In bypass mode there may be
// no stored profile, so the session identity is returned instead.
func (s *UserService) Me(ctx context.Context) (*domain.UserDTO, error) {
	current, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	user, err := s.userRepo.GetByID(ctx, current.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("failed to load profile", zap.String("user_id", current.ID.String()), zap.Error(err))
		}
		user = &domain.User{
			ID:        current.ID,
			Email:     current.Email,
			FirstName: current.FirstName,
			LastName:  current.LastName,
			Role:      current.Role,
			Approved:  current.Approved,
		}
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// List returns accounts for owners and managers
func (s *UserService) List(ctx context.Context, pendingOnly bool) ([]domain.UserDTO, error) {
	current, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}
	if !current.CanApproveUsers() {
		return nil, ErrForbidden
	}

	users, err := s.userRepo.List(ctx, pendingOnly)
	if err != nil {
		s.logger.Warn("failed to list users", zap.Error(err))
		return []domain.UserDTO{}, nil
	}

	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return dtos, nil
}

// Approve enables an account and optionally sets its role. Only owners can
// grant the owner role.
func (s *UserService) Approve(ctx context.Context, id uuid.UUID, req *domain.ApproveUserRequest) (*domain.UserDTO, error) {
	current, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}
	if !current.CanApproveUsers() {
		return nil, ErrForbidden
	}
	if req.Role != nil && *req.Role == domain.UserRoleOwner && current.Role != domain.UserRoleOwner {
		return nil, ErrForbidden
	}

	if err := s.userRepo.SetApproval(ctx, id, true, req.Role); err != nil {
		return nil, fmt.Errorf("failed to approve user: %w", mapNotFound(err, ErrUserNotFound))
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", mapNotFound(err, ErrUserNotFound))
	}

	s.logger.Info("user approved",
		zap.String("user_id", id.String()),
		zap.String("role", string(user.Role)),
		zap.String("approved_by", current.ID.String()))

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gestionale-crm/crm-api/internal/auth"
	"github.com/gestionale-crm/crm-api/internal/config"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/mailer"
	"github.com/gestionale-crm/crm-api/internal/mapper"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/gestionale-crm/crm-api/internal/reminder"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultExpiringSoonDays is the window used for the expiring contracts badge
const DefaultExpiringSoonDays = 60

// deliveryBatchSize bounds the reminders e-mailed in one run
const deliveryBatchSize = 100

// NotificationService handles contract expiry reminders: generation,
// delivery and the read state set by users
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	clientRepo       *repository.ClientRepository
	userRepo         *repository.UserRepository
	evaluator        *reminder.Evaluator
	mailer           mailer.Mailer
	clock            *Clock
	expiringSoonDays int
	logger           *zap.Logger
}

// NewNotificationService creates a new NotificationService instance
func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	clientRepo *repository.ClientRepository,
	userRepo *repository.UserRepository,
	mail mailer.Mailer,
	clock *Clock,
	cfg *config.NotificationsConfig,
	logger *zap.Logger,
) *NotificationService {
	days := DefaultExpiringSoonDays
	if cfg != nil && cfg.ExpiringSoonDays > 0 {
		days = cfg.ExpiringSoonDays
	}
	if mail == nil {
		mail = mailer.NoopMailer{}
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		clientRepo:       clientRepo,
		userRepo:         userRepo,
		evaluator:        reminder.NewEvaluator(),
		mailer:           mail,
		clock:            clock,
		expiringSoonDays: days,
		logger:           logger,
	}
}

// ListForCurrentUser returns the reminders visible to the current user.
// Store errors are logged and yield an empty list.
func (s *NotificationService) ListForCurrentUser(ctx context.Context, unreadOnly bool) ([]domain.NotificationDTO, error) {
	if _, ok := auth.FromContext(ctx); !ok {
		return nil, ErrUserContextRequired
	}

	notifications, err := s.notificationRepo.List(ctx, unreadOnly)
	if err != nil {
		s.logger.Warn("failed to list notifications", zap.Error(err))
		return []domain.NotificationDTO{}, nil
	}
	return mapper.ToNotificationDTOs(notifications, s.clock.Today()), nil
}

// ListPending returns unread reminders that are already due
func (s *NotificationService) ListPending(ctx context.Context) []domain.NotificationDTO {
	today := s.clock.Today()
	notifications, err := s.notificationRepo.ListPending(ctx, today)
	if err != nil {
		s.logger.Warn("failed to list pending notifications", zap.Error(err))
		return []domain.NotificationDTO{}
	}
	return mapper.ToNotificationDTOs(notifications, today)
}

func (s *NotificationService) ListForClient(ctx context.Context, clientID uuid.UUID) []domain.NotificationDTO {
	notifications, err := s.notificationRepo.ListByClient(ctx, clientID)
	if err != nil {
		s.logger.Warn("failed to list client notifications",
			zap.String("client_id", clientID.String()),
			zap.Error(err))
		return []domain.NotificationDTO{}
	}
	return mapper.ToNotificationDTOs(notifications, s.clock.Today())
}

// GetCounts returns the badge counters. Each counter falls back to zero on
// its own when the store fails.
func (s *NotificationService) GetCounts(ctx context.Context) domain.NotificationCounts {
	today := s.clock.Today()
	var counts domain.NotificationCounts

	pending, err := s.notificationRepo.CountPending(ctx, today)
	if err != nil {
		s.logger.Warn("failed to count pending notifications", zap.Error(err))
	} else {
		counts.Pending = pending
	}

	expiring, err := s.clientRepo.CountExpiringBetween(ctx, today, period.AddDays(today, s.expiringSoonDays))
	if err != nil {
		s.logger.Warn("failed to count expiring contracts", zap.Error(err))
	} else {
		counts.ExpiringSoon = expiring
	}

	return counts
}

// PendingTotal counts due unread reminders across all users
func (s *NotificationService) PendingTotal(ctx context.Context) (int, error) {
	return s.notificationRepo.CountPending(ctx, s.clock.Today())
}

// MarkAsRead marks a reminder read. Marking it again is a no-op and keeps
// the first read time; there is no way back to unread.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) (*domain.NotificationDTO, error) {
	notification, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", mapNotFound(err, ErrNotificationNotFound))
	}

	if !notification.Read {
		now := s.clock.Now().UTC()
		if err := s.notificationRepo.MarkAsRead(ctx, id, now); err != nil {
			return nil, fmt.Errorf("failed to mark notification as read: %w", err)
		}
		notification.Read = true
		notification.ReadAt = &now

		s.logger.Info("notification marked as read", zap.String("notification_id", id.String()))
	}

	dto := mapper.ToNotificationDTO(notification, s.clock.Today())
	return &dto, nil
}

// MarkManyAsRead marks the given reminders read and returns how many changed
func (s *NotificationService) MarkManyAsRead(ctx context.Context, ids []uuid.UUID) (int, error) {
	updated, err := s.notificationRepo.MarkManyAsRead(ctx, ids, s.clock.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	s.logger.Info("notifications marked as read",
		zap.Int("requested", len(ids)),
		zap.Int("updated", updated))
	return updated, nil
}

func (s *NotificationService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.notificationRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", mapNotFound(err, ErrNotificationNotFound))
	}
	s.logger.Info("notification deleted", zap.String("notification_id", id.String()))
	return nil
}

// GenerateNotifications materializes every reminder due today across all
// clients. Running it again on the same day creates nothing. A failed
// insert is logged and counted, and the rest of the batch still runs.
func (s *NotificationService) GenerateNotifications(ctx context.Context) (*domain.GenerationResult, error) {
	today := s.clock.Today()

	clients, err := s.clientRepo.ListWithReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load clients with reminders: %w", err)
	}
	existing, err := s.notificationRepo.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing notifications: %w", err)
	}

	due := s.evaluator.Evaluate(clients, existing, today)
	result := &domain.GenerationResult{Evaluated: len(clients)}

	for i := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		n := &due[i]
		created, err := s.notificationRepo.CreateIfAbsent(ctx, n)
		if err != nil {
			result.Failed++
			s.logger.Error("failed to create notification",
				zap.String("client_id", n.ClientID.String()),
				zap.String("type", string(n.Type)),
				zap.Error(err))
			continue
		}
		if created {
			result.Created++
		}
	}

	s.logger.Info("notifications generated",
		zap.String("today", period.DayKey(today)),
		zap.Int("evaluated", result.Evaluated),
		zap.Int("created", result.Created),
		zap.Int("failed", result.Failed))

	return result, nil
}

// DeliverDue e-mails due reminders that were not sent yet to the owner of
// the client and marks them delivered. Nothing happens when mail is disabled.
func (s *NotificationService) DeliverDue(ctx context.Context) (*domain.DeliveryResult, error) {
	result := &domain.DeliveryResult{}
	if !s.mailer.Enabled() {
		return result, nil
	}

	today := s.clock.Today()
	notifications, err := s.notificationRepo.ListUndelivered(ctx, today, deliveryBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load undelivered notifications: %w", err)
	}

	recipients := make(map[uuid.UUID]*domain.User)
	for i := range notifications {
		n := &notifications[i]

		user, ok := recipients[n.UserID]
		if !ok {
			user, err = s.userRepo.GetByID(ctx, n.UserID)
			if err != nil {
				s.logger.Warn("reminder owner not found",
					zap.String("notification_id", n.ID.String()),
					zap.String("user_id", n.UserID.String()),
					zap.Error(err))
				user = nil
			}
			recipients[n.UserID] = user
		}
		if user == nil {
			result.Failed++
			continue
		}

		if err := s.mailer.Send(ctx, reminderEmail(n, user, today)); err != nil {
			result.Failed++
			continue
		}
		if err := s.notificationRepo.MarkDelivered(ctx, n.ID, s.clock.Now().UTC()); err != nil {
			s.logger.Error("failed to mark notification delivered",
				zap.String("notification_id", n.ID.String()),
				zap.Error(err))
			result.Failed++
			continue
		}
		result.Sent++
	}

	if len(notifications) > 0 {
		s.logger.Info("reminder emails delivered",
			zap.Int("sent", result.Sent),
			zap.Int("failed", result.Failed))
	}
	return result, nil
}

func reminderEmail(n *domain.Notification, user *domain.User, today time.Time) mailer.Message {
	company := ""
	if n.Client != nil {
		company = n.Client.CompanyName
	}
	days := mapper.ToNotificationDTO(n, today).DaysRemaining

	var remaining string
	switch {
	case days > 1:
		remaining = fmt.Sprintf("Mancano %d giorni alla scadenza.", days)
	case days == 1:
		remaining = "Manca 1 giorno alla scadenza."
	case days == 0:
		remaining = "Il contratto scade oggi."
	default:
		remaining = fmt.Sprintf("Il contratto è scaduto da %d giorni.", -days)
	}

	name := user.FirstName
	if name == "" {
		name = user.Email
	}

	return mailer.Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Scadenza contratto %s", company),
		Body:    fmt.Sprintf("Ciao %s,\n\n%s\n%s\n", name, n.Message, remaining),
	}
}

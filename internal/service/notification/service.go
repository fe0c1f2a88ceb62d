package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/internal/realtime"
	"github.com/smilebright/booking-api/internal/repository"
	apperrors "github.com/smilebright/booking-api/pkg/errors"
	"github.com/smilebright/booking-api/pkg/logger"
	"github.com/smilebright/booking-api/pkg/messaging"
	"github.com/smilebright/booking-api/pkg/metrics"
)

type Service struct {
	repo    repository.NotificationRepository
	broker  messaging.Broker
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewService builds the notification dispatcher. Both the repository and
// the broker are mandatory, the dispatcher is useless without either.
func NewService(repo repository.NotificationRepository, broker messaging.Broker, log *logger.Logger, m *metrics.Metrics) (*Service, error) {
	if repo == nil {
		return nil, errors.New("notification repository is required")
	}
	if broker == nil {
		return nil, errors.New("message broker is required")
	}
	return &Service{
		repo:    repo,
		broker:  broker,
		logger:  log.WithComponent("notifications"),
		metrics: m,
	}, nil
}

// Dispatch delivers an event to a user on both legs: a realtime push via
// the broker and a persisted notification. The legs are independent and
// best-effort, a failure on either is logged and swallowed so callers
// never fail because a notification did.
func (s *Service) Dispatch(ctx context.Context, userID uuid.UUID, event model.NotificationEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := s.broker.Publish(ctx, realtime.Channel, realtime.Envelope{UserID: userID, Event: event}); err != nil {
		s.metrics.NotificationsFailed.WithLabelValues("push").Inc()
		s.logger.Error(err, "failed to publish notification event", "user_id", userID.String())
	}

	n := &model.Notification{
		UserID:        userID,
		Type:          event.Type,
		Title:         event.Title,
		Message:       event.Message,
		AppointmentID: event.AppointmentID,
		Read:          false,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.metrics.NotificationsFailed.WithLabelValues("persist").Inc()
		s.logger.Error(err, "failed to persist notification", "user_id", userID.String())
		return
	}

	s.metrics.NotificationsDispatched.WithLabelValues(string(event.Type)).Inc()
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("notification", err)
		}
		return err
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// Delete removes one of the user's notifications.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("notification", err)
		}
		return err
	}
	return nil
}

package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/smilebright/booking-api/internal/email"
	"github.com/smilebright/booking-api/internal/repository"
	"github.com/smilebright/booking-api/pkg/logger"
	"github.com/smilebright/booking-api/pkg/metrics"
)

// ReminderWorker emails patients whose confirmed appointments fall
// tomorrow. An appointment is only marked as reminded after its email
// went out, so a crash mid-run re-sends rather than drops.
type ReminderWorker struct {
	appts    repository.AppointmentRepository
	emails   email.Service
	interval time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewReminderWorker(appts repository.AppointmentRepository, emails email.Service, interval time.Duration, log *logger.Logger, m *metrics.Metrics) *ReminderWorker {
	return &ReminderWorker{
		appts:    appts,
		emails:   emails,
		interval: interval,
		logger:   log.WithComponent("reminders"),
		metrics:  m,
		now:      time.Now,
	}
}

// Start runs one pass immediately and then on every tick until ctx is
// cancelled.
func (w *ReminderWorker) Start(ctx context.Context) {
	if err := w.run(ctx); err != nil {
		w.logger.Error(err, "reminder pass failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.run(ctx); err != nil {
				w.logger.Error(err, "reminder pass failed")
			}
		}
	}
}

func (w *ReminderWorker) run(ctx context.Context) error {
	now := w.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	to := from.AddDate(0, 0, 1)

	due, err := w.appts.ListDueReminders(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to list due reminders: %w", err)
	}

	sent := 0
	for _, appt := range due {
		if err := w.emails.SendReminder(ctx, appt); err != nil {
			w.metrics.RemindersFailed.Inc()
			w.logger.Error(err, "failed to send reminder", "appointment_id", appt.ID.String())
			continue
		}
		if err := w.appts.MarkReminderSent(ctx, appt.ID); err != nil {
			w.metrics.RemindersFailed.Inc()
			w.logger.Error(err, "failed to mark reminder sent", "appointment_id", appt.ID.String())
			continue
		}
		w.metrics.RemindersSent.Inc()
		sent++
	}

	if len(due) > 0 {
		w.logger.Info("reminder pass finished", "due", len(due), "sent", sent)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, user_id, staff_id, patient_name, email, phone, date, time,
			duration_minutes, service, message, status, read, reminder_sent,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	appt.ID = uuid.New()
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		appt.ID,
		appt.UserID,
		appt.StaffID,
		appt.PatientName,
		appt.Email,
		appt.Phone,
		appt.Date,
		appt.Time,
		appt.DurationMinutes,
		appt.Service,
		appt.Message,
		appt.Status,
		appt.Read,
		appt.ReminderSent,
		appt.CreatedAt,
		appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT * FROM appointments WHERE id = $1`

	var appt model.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	replies, err := r.listReplies(ctx, id)
	if err != nil {
		return nil, err
	}
	appt.Replies = replies

	return &appt, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appt *model.Appointment) error {
	query := `
		UPDATE appointments SET
			staff_id = $1,
			patient_name = $2,
			email = $3,
			phone = $4,
			date = $5,
			time = $6,
			duration_minutes = $7,
			service = $8,
			message = $9,
			status = $10,
			read = $11,
			reminder_sent = $12,
			updated_at = $13
		WHERE id = $14
	`

	appt.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appt.StaffID,
		appt.PatientName,
		appt.Email,
		appt.Phone,
		appt.Date,
		appt.Time,
		appt.DurationMinutes,
		appt.Service,
		appt.Message,
		appt.Status,
		appt.Read,
		appt.ReminderSent,
		appt.UpdatedAt,
		appt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context) ([]*model.Appointment, error) {
	query := `SELECT * FROM appointments ORDER BY date, time`

	var appts []*model.Appointment
	if err := r.db.SelectContext(ctx, &appts, query); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	if err := r.attachReplies(ctx, appts); err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *appointmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	query := `SELECT * FROM appointments WHERE user_id = $1 ORDER BY date, time`

	var appts []*model.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list appointments for user: %w", err)
	}

	if err := r.attachReplies(ctx, appts); err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *appointmentRepository) AddReply(ctx context.Context, reply *model.Reply) error {
	query := `
		INSERT INTO appointment_replies (id, appointment_id, body, author, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	reply.ID = uuid.New()
	reply.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		reply.ID,
		reply.AppointmentID,
		reply.Body,
		reply.Author,
		reply.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add reply: %w", err)
	}
	return nil
}

func (r *appointmentRepository) ListDueReminders(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT * FROM appointments
		WHERE status = $1
		  AND reminder_sent = false
		  AND date >= $2 AND date < $3
		ORDER BY date, time
	`

	var appts []*model.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, model.AppointmentStatusConfirmed, from, to); err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE appointments SET reminder_sent = true, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) listReplies(ctx context.Context, apptID uuid.UUID) ([]model.Reply, error) {
	query := `SELECT * FROM appointment_replies WHERE appointment_id = $1 ORDER BY created_at`

	replies := []model.Reply{}
	if err := r.db.SelectContext(ctx, &replies, query, apptID); err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return replies, nil
}

func (r *appointmentRepository) attachReplies(ctx context.Context, appts []*model.Appointment) error {
	if len(appts) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(appts))
	byID := make(map[uuid.UUID]*model.Appointment, len(appts))
	for i, appt := range appts {
		ids[i] = appt.ID
		byID[appt.ID] = appt
		appt.Replies = []model.Reply{}
	}

	query, args, err := sqlx.In(
		`SELECT * FROM appointment_replies WHERE appointment_id IN (?) ORDER BY created_at`, ids)
	if err != nil {
		return fmt.Errorf("failed to build replies query: %w", err)
	}

	var replies []model.Reply
	if err := r.db.SelectContext(ctx, &replies, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to list replies: %w", err)
	}

	for _, reply := range replies {
		if appt, ok := byID[reply.AppointmentID]; ok {
			appt.Replies = append(appt.Replies, reply)
		}
	}
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled:
		return true
	}
	return false
}

// DefaultAppointmentDuration is the booking length when the client does
// not specify one, in minutes.
const DefaultAppointmentDuration = 30

type Appointment struct {
	Base
	UserID          uuid.UUID         `db:"user_id" json:"user_id"`
	StaffID         *uuid.UUID        `db:"staff_id" json:"staff_id,omitempty"`
	PatientName     string            `db:"patient_name" json:"patient_name"`
	Email           string            `db:"email" json:"email"`
	Phone           string            `db:"phone" json:"phone"`
	Date            time.Time         `db:"date" json:"date"`
	Time            string            `db:"time" json:"time"`
	DurationMinutes int               `db:"duration_minutes" json:"duration_minutes"`
	Service         string            `db:"service" json:"service"`
	Message         string            `db:"message" json:"message,omitempty"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Read            bool              `db:"read" json:"read"`
	ReminderSent    bool              `db:"reminder_sent" json:"reminder_sent"`
	Replies         []Reply           `db:"-" json:"replies"`
}

// Reply is a single message in an appointment's reply thread.
type Reply struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"-"`
	Body          string    `db:"body" json:"body"`
	Author        string    `db:"author" json:"author"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type CreateAppointmentRequest struct {
	PatientName     string     `json:"patient_name" binding:"required"`
	Email           string     `json:"email" binding:"required,email"`
	Phone           string     `json:"phone" binding:"required"`
	Date            time.Time  `json:"date" binding:"required"`
	Time            string     `json:"time" binding:"required,hhmm"`
	Service         string     `json:"service" binding:"required"`
	Message         string     `json:"message"`
	DurationMinutes int        `json:"duration_minutes" binding:"omitempty,min=1"`
	StaffID         *uuid.UUID `json:"staff_id"`
}

type UpdateAppointmentRequest struct {
	PatientName     *string            `json:"patient_name"`
	Email           *string            `json:"email" binding:"omitempty,email"`
	Phone           *string            `json:"phone"`
	Date            *time.Time         `json:"date"`
	Time            *string            `json:"time" binding:"omitempty,hhmm"`
	Service         *string            `json:"service"`
	Message         *string            `json:"message"`
	DurationMinutes *int               `json:"duration_minutes" binding:"omitempty,min=1"`
	StaffID         *uuid.UUID         `json:"staff_id"`
	Status          *AppointmentStatus `json:"status" binding:"omitempty,oneof=pending confirmed cancelled"`
	Read            *bool              `json:"read"`
}

type ReplyRequest struct {
	Body string `json:"body" binding:"required"`
}

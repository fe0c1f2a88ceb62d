package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeBookingStatus NotificationType = "booking_status"
	NotificationTypeMessageReply  NotificationType = "message_reply"
)

// Notification is the persisted copy of an event delivered to a user.
type Notification struct {
	Base
	UserID        uuid.UUID        `db:"user_id" json:"user_id"`
	Type          NotificationType `db:"type" json:"type"`
	Title         string           `db:"title" json:"title"`
	Message       string           `db:"message" json:"message"`
	AppointmentID *uuid.UUID       `db:"appointment_id" json:"appointment_id,omitempty"`
	Read          bool             `db:"read" json:"read"`
}

// NotificationEvent is the payload pushed over a realtime session. The
// JSON field names match what the frontend consumes.
type NotificationEvent struct {
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	AppointmentID *uuid.UUID       `json:"appointmentId,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

package email

import (
	"context"

	"github.com/smilebright/booking-api/internal/model"
)

type Service interface {
	SendConfirmation(ctx context.Context, appt *model.Appointment) error
	SendCancellation(ctx context.Context, appt *model.Appointment) error
	SendReminder(ctx context.Context, appt *model.Appointment) error
	SendReply(ctx context.Context, appt *model.Appointment, reply *model.Reply) error
}

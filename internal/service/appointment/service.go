package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smilebright/booking-api/internal/authz"
	"github.com/smilebright/booking-api/internal/email"
	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/internal/repository"
	apperrors "github.com/smilebright/booking-api/pkg/errors"
	"github.com/smilebright/booking-api/pkg/logger"
)

// sideEffectTimeout bounds the background email and notification work
// that outlives the originating request.
const sideEffectTimeout = 30 * time.Second

// Dispatcher delivers notification events to users.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID uuid.UUID, event model.NotificationEvent)
}

type Service struct {
	appts      repository.AppointmentRepository
	users      repository.UserRepository
	emails     email.Service
	dispatcher Dispatcher
	logger     *logger.Logger
}

func NewService(appts repository.AppointmentRepository, users repository.UserRepository, emails email.Service, dispatcher Dispatcher, log *logger.Logger) *Service {
	return &Service{
		appts:      appts,
		users:      users,
		emails:     emails,
		dispatcher: dispatcher,
		logger:     log.WithComponent("appointments"),
	}
}

// Create books a new appointment for the acting user.
func (s *Service) Create(ctx context.Context, actor *model.User, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	duration := req.DurationMinutes
	if duration == 0 {
		duration = model.DefaultAppointmentDuration
	}

	appt := &model.Appointment{
		UserID:          actor.ID,
		StaffID:         req.StaffID,
		PatientName:     req.PatientName,
		Email:           req.Email,
		Phone:           req.Phone,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: duration,
		Service:         req.Service,
		Message:         req.Message,
		Status:          model.AppointmentStatusPending,
	}

	if err := s.appts.Create(ctx, appt); err != nil {
		return nil, err
	}
	appt.Replies = []model.Reply{}
	return appt, nil
}

// Get returns a single appointment. Patients can only see their own.
func (s *Service) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, err
	}

	if !authz.Can(actor.Role, authz.ActionListAllAppointments) && appt.UserID != actor.ID {
		return nil, apperrors.Forbidden("", nil)
	}
	return appt, nil
}

// List returns every appointment for staff and admins, and only the
// actor's own bookings for patients.
func (s *Service) List(ctx context.Context, actor *model.User) ([]*model.Appointment, error) {
	if authz.Can(actor.Role, authz.ActionListAllAppointments) {
		return s.appts.List(ctx)
	}
	return s.appts.ListByUser(ctx, actor.ID)
}

// Update patches an appointment. A transition into confirmed or
// cancelled triggers exactly one status email plus a notification to
// the booking owner, both best-effort in the background.
func (s *Service) Update(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	appt, err := s.appts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, err
	}

	previousStatus := appt.Status
	applyPatch(appt, req)

	if !appt.Status.Valid() {
		return nil, apperrors.BadRequest("invalid appointment status", nil)
	}

	if err := s.appts.Update(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, err
	}

	if statusChanged(previousStatus, appt.Status) {
		go s.notifyStatusChange(*appt)
	}
	return appt, nil
}

// Delete removes an appointment.
func (s *Service) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if err := s.appts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("appointment", err)
		}
		return err
	}
	return nil
}

// AddReply appends a message to the appointment's thread, marks the
// appointment as read and notifies the other side of the conversation.
func (s *Service) AddReply(ctx context.Context, actor *model.User, id uuid.UUID, body string) (*model.Appointment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.BadRequest("reply body cannot be empty", nil)
	}

	appt, err := s.appts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, err
	}

	if !authz.Can(actor.Role, authz.ActionListAllAppointments) && appt.UserID != actor.ID {
		return nil, apperrors.Forbidden("", nil)
	}

	reply := &model.Reply{
		AppointmentID: appt.ID,
		Body:          body,
		Author:        actor.AuthorLabel(),
	}
	if err := s.appts.AddReply(ctx, reply); err != nil {
		return nil, err
	}
	appt.Replies = append(appt.Replies, *reply)

	appt.Read = true
	if err := s.appts.Update(ctx, appt); err != nil {
		s.logger.Error(err, "failed to mark appointment read after reply", "appointment_id", appt.ID.String())
	}

	go s.notifyReply(*appt, *reply, actor.Role)

	return appt, nil
}

// statusChanged reports whether the transition warrants patient-facing
// notifications.
func statusChanged(previous, current model.AppointmentStatus) bool {
	if previous == current {
		return false
	}
	return current == model.AppointmentStatusConfirmed || current == model.AppointmentStatusCancelled
}

func applyPatch(appt *model.Appointment, req *model.UpdateAppointmentRequest) {
	if req.PatientName != nil {
		appt.PatientName = *req.PatientName
	}
	if req.Email != nil {
		appt.Email = *req.Email
	}
	if req.Phone != nil {
		appt.Phone = *req.Phone
	}
	if req.Date != nil {
		appt.Date = *req.Date
	}
	if req.Time != nil {
		appt.Time = *req.Time
	}
	if req.Service != nil {
		appt.Service = *req.Service
	}
	if req.Message != nil {
		appt.Message = *req.Message
	}
	if req.DurationMinutes != nil {
		appt.DurationMinutes = *req.DurationMinutes
	}
	if req.StaffID != nil {
		appt.StaffID = req.StaffID
	}
	if req.Status != nil {
		appt.Status = *req.Status
	}
	if req.Read != nil {
		appt.Read = *req.Read
	}
}

// notifyStatusChange runs after the transaction committed, detached from
// the request. Failures are logged and never surfaced to the caller.
func (s *Service) notifyStatusChange(appt model.Appointment) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	var title, message string
	var send func(context.Context, *model.Appointment) error
	switch appt.Status {
	case model.AppointmentStatusConfirmed:
		title = "Appointment Confirmed"
		message = "Your " + appt.Service + " appointment on " + appt.Date.Format("Jan 2") + " at " + appt.Time + " has been confirmed."
		send = s.emails.SendConfirmation
	case model.AppointmentStatusCancelled:
		title = "Appointment Cancelled"
		message = "Your " + appt.Service + " appointment on " + appt.Date.Format("Jan 2") + " at " + appt.Time + " has been cancelled."
		send = s.emails.SendCancellation
	default:
		return
	}

	if err := send(ctx, &appt); err != nil {
		s.logger.Error(err, "failed to send status email", "appointment_id", appt.ID.String())
	}

	apptID := appt.ID
	s.dispatcher.Dispatch(ctx, appt.UserID, model.NotificationEvent{
		Type:          model.NotificationTypeBookingStatus,
		Title:         title,
		Message:       message,
		AppointmentID: &apptID,
		Timestamp:     time.Now(),
	})
}

// notifyReply emails the patient and fans a notification out to the
// other side: replies from patients go to every admin, replies from the
// clinic side go to the booking owner.
func (s *Service) notifyReply(appt model.Appointment, reply model.Reply, actorRole model.Role) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	if err := s.emails.SendReply(ctx, &appt, &reply); err != nil {
		s.logger.Error(err, "failed to send reply email", "appointment_id", appt.ID.String())
	}

	apptID := appt.ID
	event := model.NotificationEvent{
		Type:          model.NotificationTypeMessageReply,
		Title:         "New Message",
		Message:       reply.Author + " replied to the " + appt.Service + " appointment.",
		AppointmentID: &apptID,
		Timestamp:     time.Now(),
	}

	if actorRole == model.RolePatient {
		admins, err := s.users.ListByRoles(ctx, model.RoleAdmin)
		if err != nil {
			s.logger.Error(err, "failed to list admins for reply fan-out", "appointment_id", appt.ID.String())
			return
		}
		for _, admin := range admins {
			s.dispatcher.Dispatch(ctx, admin.ID, event)
		}
		return
	}

	s.dispatcher.Dispatch(ctx, appt.UserID, event)
}

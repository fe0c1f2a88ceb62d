package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/internal/repository"
	apperrors "github.com/smilebright/booking-api/pkg/errors"
	"github.com/smilebright/booking-api/pkg/logger"
)

type fakeApptRepo struct {
	mu      sync.Mutex
	appts   map[uuid.UUID]*model.Appointment
	replies map[uuid.UUID][]model.Reply
}

func newFakeApptRepo() *fakeApptRepo {
	return &fakeApptRepo{
		appts:   make(map[uuid.UUID]*model.Appointment),
		replies: make(map[uuid.UUID][]model.Reply),
	}
}

func (f *fakeApptRepo) Create(ctx context.Context, appt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt.ID = uuid.New()
	copied := *appt
	f.appts[appt.ID] = &copied
	return nil
}

func (f *fakeApptRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.appts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *appt
	copied.Replies = append([]model.Reply{}, f.replies[id]...)
	return &copied, nil
}

func (f *fakeApptRepo) Update(ctx context.Context, appt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.appts[appt.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *appt
	f.appts[appt.ID] = &copied
	return nil
}

func (f *fakeApptRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.appts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.appts, id)
	return nil
}

func (f *fakeApptRepo) List(ctx context.Context) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Appointment{}
	for _, appt := range f.appts {
		copied := *appt
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeApptRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Appointment{}
	for _, appt := range f.appts {
		if appt.UserID == userID {
			copied := *appt
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeApptRepo) AddReply(ctx context.Context, reply *model.Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reply.ID = uuid.New()
	reply.CreatedAt = time.Now()
	f.replies[reply.AppointmentID] = append(f.replies[reply.AppointmentID], *reply)
	return nil
}

func (f *fakeApptRepo) ListDueReminders(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeApptRepo) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	return nil
}

type fakeUserRepo struct {
	admins []*model.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeUserRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error { return nil }
func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error     { return nil }
func (f *fakeUserRepo) ListByRoles(ctx context.Context, roles ...model.Role) ([]*model.User, error) {
	return f.admins, nil
}
func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type sentEmail struct {
	kind string
	to   string
}

type fakeEmailService struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (f *fakeEmailService) record(kind, to string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{kind: kind, to: to})
}

func (f *fakeEmailService) Sent() []sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEmail{}, f.sent...)
}

func (f *fakeEmailService) SendConfirmation(ctx context.Context, appt *model.Appointment) error {
	f.record("confirmation", appt.Email)
	return nil
}

func (f *fakeEmailService) SendCancellation(ctx context.Context, appt *model.Appointment) error {
	f.record("cancellation", appt.Email)
	return nil
}

func (f *fakeEmailService) SendReminder(ctx context.Context, appt *model.Appointment) error {
	f.record("reminder", appt.Email)
	return nil
}

func (f *fakeEmailService) SendReply(ctx context.Context, appt *model.Appointment, reply *model.Reply) error {
	f.record("reply", appt.Email)
	return nil
}

type dispatched struct {
	userID uuid.UUID
	event  model.NotificationEvent
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []dispatched
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, userID uuid.UUID, event model.NotificationEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, dispatched{userID: userID, event: event})
}

func (f *fakeDispatcher) Events() []dispatched {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dispatched{}, f.events...)
}

type fixture struct {
	svc        *Service
	repo       *fakeApptRepo
	users      *fakeUserRepo
	emails     *fakeEmailService
	dispatcher *fakeDispatcher
}

func newFixture() *fixture {
	repo := newFakeApptRepo()
	users := &fakeUserRepo{}
	emails := &fakeEmailService{}
	dispatcher := &fakeDispatcher{}
	svc := NewService(repo, users, emails, dispatcher, logger.NewLogger(nil))
	return &fixture{svc: svc, repo: repo, users: users, emails: emails, dispatcher: dispatcher}
}

func patientActor() *model.User {
	return &model.User{
		Base:     model.Base{ID: uuid.New()},
		Username: "jamie",
		Email:    "jamie@example.com",
		Role:     model.RolePatient,
	}
}

func adminActor() *model.User {
	return &model.User{
		Base:     model.Base{ID: uuid.New()},
		Username: "frontdesk",
		Email:    "frontdesk@smilebright.example",
		Role:     model.RoleAdmin,
	}
}

func createReq() *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		PatientName: "Jamie Doe",
		Email:       "jamie@example.com",
		Phone:       "555-0100",
		Date:        time.Now().AddDate(0, 0, 7),
		Time:        "10:30",
		Service:     "Teeth Cleaning",
	}
}

func TestCreate_DefaultsStatusAndDuration(t *testing.T) {
	f := newFixture()

	appt, err := f.svc.Create(context.Background(), patientActor(), createReq())
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusPending, appt.Status)
	assert.Equal(t, model.DefaultAppointmentDuration, appt.DurationMinutes)
	assert.False(t, appt.Read)
	assert.False(t, appt.ReminderSent)
	assert.Empty(t, f.emails.Sent())
	assert.Empty(t, f.dispatcher.Events())
}

func TestUpdate_ConfirmingFiresEmailAndNotification(t *testing.T) {
	f := newFixture()
	patient := patientActor()

	appt, err := f.svc.Create(context.Background(), patient, createReq())
	require.NoError(t, err)

	status := model.AppointmentStatusConfirmed
	updated, err := f.svc.Update(context.Background(), adminActor(), appt.ID, &model.UpdateAppointmentRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, updated.Status)

	require.Eventually(t, func() bool {
		return len(f.emails.Sent()) == 1 && len(f.dispatcher.Events()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	sent := f.emails.Sent()[0]
	assert.Equal(t, "confirmation", sent.kind)
	assert.Equal(t, "jamie@example.com", sent.to)

	event := f.dispatcher.Events()[0]
	assert.Equal(t, patient.ID, event.userID)
	assert.Equal(t, model.NotificationTypeBookingStatus, event.event.Type)
	require.NotNil(t, event.event.AppointmentID)
	assert.Equal(t, appt.ID, *event.event.AppointmentID)
}

func TestUpdate_CancellingFiresCancellationEmail(t *testing.T) {
	f := newFixture()

	appt, err := f.svc.Create(context.Background(), patientActor(), createReq())
	require.NoError(t, err)

	status := model.AppointmentStatusCancelled
	_, err = f.svc.Update(context.Background(), adminActor(), appt.ID, &model.UpdateAppointmentRequest{Status: &status})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.emails.Sent()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "cancellation", f.emails.Sent()[0].kind)
}

func TestUpdate_SameStatusDoesNotNotify(t *testing.T) {
	f := newFixture()

	appt, err := f.svc.Create(context.Background(), patientActor(), createReq())
	require.NoError(t, err)

	status := model.AppointmentStatusPending
	name := "Jamie D."
	_, err = f.svc.Update(context.Background(), adminActor(), appt.ID, &model.UpdateAppointmentRequest{
		Status:      &status,
		PatientName: &name,
	})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, f.emails.Sent())
	assert.Empty(t, f.dispatcher.Events())
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture()

	status := model.AppointmentStatusConfirmed
	_, err := f.svc.Update(context.Background(), adminActor(), uuid.New(), &model.UpdateAppointmentRequest{Status: &status})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestAddReply_EmptyBodyRejected(t *testing.T) {
	f := newFixture()

	appt, err := f.svc.Create(context.Background(), patientActor(), createReq())
	require.NoError(t, err)

	for _, body := range []string{"", "   ", "\n\t"} {
		_, err := f.svc.AddReply(context.Background(), adminActor(), appt.ID, body)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	}
}

func TestAddReply_FromClinicNotifiesOwnerAndEmailsPatient(t *testing.T) {
	f := newFixture()
	patient := patientActor()

	appt, err := f.svc.Create(context.Background(), patient, createReq())
	require.NoError(t, err)

	admin := adminActor()
	updated, err := f.svc.AddReply(context.Background(), admin, appt.ID, "See you at 10:30")
	require.NoError(t, err)

	require.Len(t, updated.Replies, 1)
	assert.Equal(t, "frontdesk", updated.Replies[0].Author)
	assert.True(t, updated.Read)

	require.Eventually(t, func() bool {
		return len(f.emails.Sent()) == 1 && len(f.dispatcher.Events()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "reply", f.emails.Sent()[0].kind)
	assert.Equal(t, patient.ID, f.dispatcher.Events()[0].userID)
	assert.Equal(t, model.NotificationTypeMessageReply, f.dispatcher.Events()[0].event.Type)
}

func TestAddReply_FromPatientFansOutToAdmins(t *testing.T) {
	f := newFixture()
	patient := patientActor()
	f.users.admins = []*model.User{adminActor(), adminActor()}

	appt, err := f.svc.Create(context.Background(), patient, createReq())
	require.NoError(t, err)

	_, err = f.svc.AddReply(context.Background(), patient, appt.ID, "Can we move it earlier?")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.dispatcher.Events()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	got := map[uuid.UUID]bool{}
	for _, d := range f.dispatcher.Events() {
		got[d.userID] = true
	}
	assert.Len(t, got, 2)
	assert.NotContains(t, got, patient.ID)
}

func TestAddReply_AuthorLabelFallsBackToEmail(t *testing.T) {
	f := newFixture()

	actor := adminActor()
	actor.Username = ""

	appt, err := f.svc.Create(context.Background(), patientActor(), createReq())
	require.NoError(t, err)

	updated, err := f.svc.AddReply(context.Background(), actor, appt.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, actor.Email, updated.Replies[0].Author)
}

func TestAddReply_PatientCannotReplyToOthersBooking(t *testing.T) {
	f := newFixture()

	appt, err := f.svc.Create(context.Background(), patientActor(), createReq())
	require.NoError(t, err)

	other := patientActor()
	_, err = f.svc.AddReply(context.Background(), other, appt.ID, "hello")

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestList_PatientSeesOnlyOwnBookings(t *testing.T) {
	f := newFixture()
	patient := patientActor()

	_, err := f.svc.Create(context.Background(), patient, createReq())
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), patientActor(), createReq())
	require.NoError(t, err)

	own, err := f.svc.List(context.Background(), patient)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	all, err := f.svc.List(context.Background(), adminActor())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGet_PatientCannotSeeOthersBooking(t *testing.T) {
	f := newFixture()

	appt, err := f.svc.Create(context.Background(), patientActor(), createReq())
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), patientActor(), appt.ID)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

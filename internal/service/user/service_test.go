package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/internal/repository"
	apperrors "github.com/smilebright/booking-api/pkg/errors"
	"github.com/smilebright/booking-api/pkg/logger"
	"github.com/smilebright/booking-api/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if user, ok := f.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username == username || user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) ListByRoles(ctx context.Context, roles ...model.Role) ([]*model.User, error) {
	allowed := make(map[model.Role]bool)
	for _, role := range roles {
		allowed[role] = true
	}
	out := []*model.User{}
	for _, user := range f.users {
		if allowed[user.Role] {
			copied := *user
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func newTestService(repo *fakeUserRepo) *Service {
	return NewService(repo, security.NewBcryptHasher(4), logger.NewLogger(nil))
}

func TestCreateStaff_DefaultsRoleAndSchedule(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	created, err := svc.CreateStaff(context.Background(), &model.CreateStaffRequest{
		Username: "dr.smith",
		Email:    "smith@smilebright.example",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleStaff, created.Role)
	require.NotNil(t, created.Schedule)
	assert.True(t, created.Schedule["monday"].Available)
	assert.Equal(t, "09:00", created.Schedule["monday"].Start)
	assert.False(t, created.Schedule["sunday"].Available)
}

func TestCreateStaff_DuplicateEmailRejected(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	_, err := svc.CreateStaff(context.Background(), &model.CreateStaffRequest{
		Username: "dr.smith",
		Email:    "smith@smilebright.example",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	_, err = svc.CreateStaff(context.Background(), &model.CreateStaffRequest{
		Username: "other",
		Email:    "smith@smilebright.example",
		Password: "hunter2hunter2",
	})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestListStaff_IncludesAdminsAndStaffOnly(t *testing.T) {
	repo := newFakeUserRepo()
	repo.Create(context.Background(), &model.User{Username: "a", Role: model.RoleAdmin})
	repo.Create(context.Background(), &model.User{Username: "b", Role: model.RoleStaff})
	repo.Create(context.Background(), &model.User{Username: "c", Role: model.RolePatient})
	svc := newTestService(repo)

	staff, err := svc.ListStaff(context.Background())
	require.NoError(t, err)
	assert.Len(t, staff, 2)
}

func TestUpdateSchedule(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	created, err := svc.CreateStaff(context.Background(), &model.CreateStaffRequest{
		Username: "dr.smith",
		Email:    "smith@smilebright.example",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	schedule := model.DefaultWeekSchedule()
	schedule["saturday"] = model.DaySchedule{Start: "10:00", End: "13:00", Available: true}

	updated, err := svc.UpdateSchedule(context.Background(), created.ID, schedule)
	require.NoError(t, err)
	assert.True(t, updated.Schedule["saturday"].Available)
}

func TestUpdateProfile(t *testing.T) {
	repo := newFakeUserRepo()
	other := &model.User{Username: "taken", Email: "taken@example.com", Role: model.RolePatient}
	require.NoError(t, repo.Create(context.Background(), other))

	me := &model.User{Username: "jamie", Email: "jamie@example.com", Role: model.RolePatient}
	require.NoError(t, repo.Create(context.Background(), me))

	svc := newTestService(repo)

	t.Run("changes email when free", func(t *testing.T) {
		newEmail := "jamie.new@example.com"
		updated, err := svc.UpdateProfile(context.Background(), me.ID, &model.UpdateProfileRequest{Email: &newEmail})
		require.NoError(t, err)
		assert.Equal(t, newEmail, updated.Email)
	})

	t.Run("rejects taken email", func(t *testing.T) {
		taken := "taken@example.com"
		_, err := svc.UpdateProfile(context.Background(), me.ID, &model.UpdateProfileRequest{Email: &taken})
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	})

	t.Run("rejects oversized avatar", func(t *testing.T) {
		avatar := strings.Repeat("a", maxAvatarBytes+1)
		_, err := svc.UpdateProfile(context.Background(), me.ID, &model.UpdateProfileRequest{Avatar: &avatar})
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	})
}

func TestChangePassword(t *testing.T) {
	repo := newFakeUserRepo()
	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash("old-password")
	require.NoError(t, err)

	me := &model.User{Username: "jamie", Email: "jamie@example.com", PasswordHash: hash, Role: model.RolePatient}
	require.NoError(t, repo.Create(context.Background(), me))

	svc := newTestService(repo)

	err = svc.ChangePassword(context.Background(), me.ID, &model.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new-password-123",
	})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)

	err = svc.ChangePassword(context.Background(), me.ID, &model.ChangePasswordRequest{
		CurrentPassword: "old-password",
		NewPassword:     "new-password-123",
	})
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), me.ID)
	require.NoError(t, err)
	assert.NoError(t, hasher.Compare(stored.PasswordHash, "new-password-123"))
}

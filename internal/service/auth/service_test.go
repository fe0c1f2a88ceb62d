package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/internal/repository"
	"github.com/smilebright/booking-api/pkg/auth"
	apperrors "github.com/smilebright/booking-api/pkg/errors"
	"github.com/smilebright/booking-api/pkg/logger"
	"github.com/smilebright/booking-api/pkg/security"
)

type fakeUserRepo struct {
	byEmail    map[string]*model.User
	byUsername map[string]*model.User
	created    []*model.User
	lastLogin  *time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail:    make(map[string]*model.User),
		byUsername: make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) add(user *model.User) {
	f.byEmail[user.Email] = user
	f.byUsername[user.Username] = user
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	f.created = append(f.created, user)
	f.add(user)
	return nil
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	if user, ok := f.byUsername[username]; ok {
		return user, nil
	}
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error { return nil }
func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error     { return nil }
func (f *fakeUserRepo) ListByRoles(ctx context.Context, roles ...model.Role) ([]*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin = &at
	return nil
}

func newTestService(repo *fakeUserRepo) *Service {
	hasher := security.NewBcryptHasher(4)
	tokens := auth.NewJWTService("test-secret", time.Hour)
	return NewService(repo, hasher, tokens, logger.NewLogger(nil))
}

func TestRegister_CreatesPatientAndIssuesToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	resp, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "jamie",
		Email:    "jamie@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, model.RolePatient, resp.User.Role)
	assert.NotEqual(t, "hunter2hunter2", resp.User.PasswordHash)
	require.Len(t, repo.created, 1)

	tokens := auth.NewJWTService("test-secret", time.Hour)
	claims, err := tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "patient", claims.Role)
}

func TestRegisterAdmin_SetsAdminRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	resp, err := svc.RegisterAdmin(context.Background(), &model.RegisterRequest{
		Username: "frontdesk",
		Email:    "frontdesk@smilebright.example",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.User.Role)
}

func TestRegister_DuplicateRejected(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(&model.User{
		Base:     model.Base{ID: uuid.New()},
		Username: "jamie",
		Email:    "jamie@example.com",
	})
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "jamie",
		Email:    "other@example.com",
		Password: "hunter2hunter2",
	})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestLogin(t *testing.T) {
	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)

	repo := newFakeUserRepo()
	repo.add(&model.User{
		Base:         model.Base{ID: uuid.New()},
		Username:     "jamie",
		Email:        "jamie@example.com",
		PasswordHash: hash,
		Role:         model.RolePatient,
	})
	svc := newTestService(repo)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{name: "valid credentials", email: "jamie@example.com", password: "correct-horse"},
		{name: "wrong password", email: "jamie@example.com", password: "wrong", wantErr: true},
		{name: "unknown email", email: "nobody@example.com", password: "correct-horse", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(context.Background(), &model.LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			})
			if tt.wantErr {
				appErr, ok := apperrors.As(err)
				require.True(t, ok)
				assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Token)
			assert.NotNil(t, resp.User.LastLoginAt)
			assert.NotNil(t, repo.lastLogin)
		})
	}
}

package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/internal/repository"
	apperrors "github.com/smilebright/booking-api/pkg/errors"
	"github.com/smilebright/booking-api/pkg/logger"
	"github.com/smilebright/booking-api/pkg/security"
)

// maxAvatarBytes caps the inline avatar payload stored on a profile.
const maxAvatarBytes = 1 << 20

type Service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	logger *logger.Logger
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, log *logger.Logger) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		logger: log.WithComponent("users"),
	}
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, err
	}
	return user, nil
}

// CreateStaff creates a staff or admin account. New staff get the
// default weekday schedule unless one is supplied.
func (s *Service) CreateStaff(ctx context.Context, req *model.CreateStaffRequest) (*model.User, error) {
	existing, err := s.users.GetByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("username or email already in use", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	role := req.Role
	if role == "" {
		role = model.RoleStaff
	}
	schedule := req.Schedule
	if schedule == nil {
		schedule = model.DefaultWeekSchedule()
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Schedule:     schedule,
		Specialties:  req.Specialties,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("staff account created", "user_id", user.ID.String(), "role", string(role))
	return user, nil
}

// ListStaff returns every staff and admin account.
func (s *Service) ListStaff(ctx context.Context) ([]*model.User, error) {
	return s.users.ListByRoles(ctx, model.RoleStaff, model.RoleAdmin)
}

// UpdateStaff patches a staff account.
func (s *Service) UpdateStaff(ctx context.Context, id uuid.UUID, req *model.UpdateStaffRequest) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		if err := s.checkEmailAvailable(ctx, *req.Email); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, apperrors.BadRequest("invalid password", err)
		}
		user.PasswordHash = hash
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Specialties != nil {
		user.Specialties = req.Specialties
	}
	if req.Schedule != nil {
		user.Schedule = req.Schedule
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateSchedule replaces a staff member's weekly schedule.
func (s *Service) UpdateSchedule(ctx context.Context, id uuid.UUID, schedule model.WeekSchedule) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Schedule = schedule
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteStaff removes a staff account.
func (s *Service) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user", err)
		}
		return err
	}
	return nil
}

// UpdateProfile lets a user edit their own account details.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		if err := s.checkEmailAvailable(ctx, *req.Email); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Avatar != nil {
		if len(*req.Avatar) > maxAvatarBytes {
			return nil, apperrors.BadRequest("avatar is too large", nil)
		}
		user.Avatar = req.Avatar
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, req *model.ChangePasswordRequest) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.CurrentPassword); err != nil {
		return apperrors.Unauthorized("current password is incorrect", nil)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperrors.BadRequest("invalid password", err)
	}

	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

func (s *Service) checkEmailAvailable(ctx context.Context, email string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if existing != nil {
		return apperrors.Conflict("email already in use", nil)
	}
	return nil
}

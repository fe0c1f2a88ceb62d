package auth

import (
	"context"
	"errors"
	"time"

	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/internal/repository"
	"github.com/smilebright/booking-api/pkg/auth"
	apperrors "github.com/smilebright/booking-api/pkg/errors"
	"github.com/smilebright/booking-api/pkg/logger"
	"github.com/smilebright/booking-api/pkg/security"
)

type Service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	tokens auth.JWTService
	logger *logger.Logger
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, tokens auth.JWTService, log *logger.Logger) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: log.WithComponent("auth"),
	}
}

// Register creates a patient account and logs it straight in.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	return s.register(ctx, req, model.RolePatient)
}

// RegisterAdmin creates an admin account. The route is restricted to
// existing admins.
func (s *Service) RegisterAdmin(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	return s.register(ctx, req, model.RoleAdmin)
}

func (s *Service) register(ctx context.Context, req *model.RegisterRequest, role model.Role) (*model.TokenResponse, error) {
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

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID.String(), "role", string(role))

	return s.issueToken(user)
}

// Login verifies credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials", nil)
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials", nil)
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Error(err, "failed to record login time", "user_id", user.ID.String())
	}
	user.LastLoginAt = &now

	return s.issueToken(user)
}

func (s *Service) issueToken(user *model.User) (*model.TokenResponse, error) {
	token, err := s.tokens.GenerateToken(auth.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.TokenResponse{Token: token, User: user}, nil
}

package usecase

import (
	"context"
	"fmt"

	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService turns a bearer session token into the calling Actor. Login and
// session issuance live in the account service; this side only reads.
type AuthService interface {
	Authenticate(ctx context.Context, token string) (*Actor, error)
}

type authService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewAuthService(repo *repository.Repository, log *zap.Logger) AuthService {
	return &authService{
		repo: repo,
		log:  log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Authenticate(ctx context.Context, token string) (*Actor, error) {
	parsed, err := uuid.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed session token", ErrUnauthorized)
	}

	session, err := s.repo.Session.FindValidSession(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("validate session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: invalid or expired session", ErrUnauthorized)
	}

	user, err := s.repo.User.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if user == nil || !user.IsActive {
		s.log.Warn("Session belongs to a missing or inactive user", zap.String("user_id", session.UserID.String()))
		return nil, fmt.Errorf("%w: account is not active", ErrUnauthorized)
	}

	role := user.Role
	if role == "" {
		role = entity.RoleUser
	}
	return &Actor{UserID: user.ID, Role: role}, nil
}

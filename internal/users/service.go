package users

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clearvat/clearvat/internal/audit"
	"github.com/clearvat/clearvat/internal/notifications"
	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u User, passwordHash string) (User, error)
	UpdateRole(ctx context.Context, id string, role tenancy.Role) (int64, error)
	Deactivate(ctx context.Context, id string) (int64, error)
}

// Service handles user management business logic.
type Service struct {
	repo   RepositoryPort
	audit  *audit.Recorder
	mailer notifications.Enqueuer
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, recorder *audit.Recorder, mailer notifications.Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: recorder, mailer: mailer, logger: logger}
}

// List returns the current organization's users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Invite creates a team member in the caller's organization and queues the
// welcome email. The failure of either side effect does not roll back the
// account.
func (s *Service) Invite(ctx context.Context, email, fullName, password string, role tenancy.Role) (User, error) {
	principal := tenancy.PrincipalFrom(ctx)
	if principal == nil {
		return User{}, tenancy.ErrNoOrgContext
	}
	if role == "" {
		role = tenancy.RoleTeamMember
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	created, err := s.repo.Create(ctx, User{
		ID:           uuid.NewString(),
		OrgID:        principal.OrgID,
		Email:        email,
		FullName:     fullName,
		Role:         role,
		IsActive:     true,
		IsTeamMember: true,
	}, string(hash))
	if err != nil {
		return User{}, err
	}
	if err := s.audit.Record(ctx, "user.invited", "users", created.ID, map[string]any{"email": email, "role": role}); err != nil {
		s.logger.Warn("audit user invite", slog.Any("error", err))
	}
	if err := s.mailer.EnqueueWelcome(ctx, email, fullName); err != nil {
		s.logger.Warn("enqueue welcome email", slog.Any("error", err))
	}
	return created, nil
}

// UpdateRole changes a user's role.
func (s *Service) UpdateRole(ctx context.Context, id string, role tenancy.Role) error {
	if role == "" {
		return errors.New("users: role required")
	}
	affected, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	if err := s.audit.Record(ctx, "user.role_changed", "users", id, map[string]any{"role": role}); err != nil {
		s.logger.Warn("audit role change", slog.Any("error", err))
	}
	return nil
}

// Deactivate disables an account. The auth resolver rejects deactivated
// accounts on their next request.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	affected, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	if err := s.audit.Record(ctx, "user.deactivated", "users", id, nil); err != nil {
		s.logger.Warn("audit deactivate", slog.Any("error", err))
	}
	return nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

// UserRecord is the authoritative view of a user account.
type UserRecord struct {
	ID           string
	OrgID        string
	Email        string
	FullName     string
	Role         tenancy.Role
	IsActive     bool
	IsTeamMember bool
}

// UserStore looks up the authoritative user record for a verified subject.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*UserRecord, error)
}

// Resolver derives the organization-attributed principal for a verified
// identity. The user record overrides token claims; claims are fallback only,
// covering first-login flows where the provider is temporarily the source of
// truth.
type Resolver struct {
	users  UserStore
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(users UserStore, logger *slog.Logger) *Resolver {
	return &Resolver{users: users, logger: logger}
}

// Resolve combines claim hints with the user record under the record-wins
// precedence rule and returns the principal for this request.
func (r *Resolver) Resolve(ctx context.Context, identity Identity, accessToken string) (*tenancy.Principal, error) {
	orgID := identity.OrgHint()
	role := tenancy.RoleFromString(identity.RoleHint())

	principal := &tenancy.Principal{
		UserID:      identity.ID,
		Email:       identity.Email,
		AccessToken: accessToken,
	}

	record, err := r.users.FindByID(ctx, identity.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("resolve user %s: %w", identity.ID, err)
	}
	if record != nil {
		if !record.IsActive {
			return nil, errInactiveAccount()
		}
		if record.OrgID != "" {
			orgID = record.OrgID
		}
		if record.Role != "" {
			role = record.Role
		}
		principal.FullName = record.FullName
		principal.IsTeamMember = record.IsTeamMember
		if principal.Email == "" {
			principal.Email = record.Email
		}
	}

	if orgID == "" {
		return nil, errNoTenantContext("no organization for subject")
	}
	if _, err := uuid.Parse(orgID); err != nil {
		if r.logger != nil {
			r.logger.Warn("malformed organization id", slog.String("subject", identity.ID))
		}
		return nil, errNoTenantContext("malformed organization id")
	}
	if role == "" {
		role = tenancy.RoleClient
	}

	principal.OrgID = orgID
	principal.Role = role
	return principal, nil
}

package users

import (
	"context"
	"time"

	"github.com/clearvat/clearvat/internal/auth"
	"github.com/clearvat/clearvat/internal/tenancy"
)

const entityUsers = "users"

// Repository provides persistence for user accounts. Identity lookups used
// by the auth resolver go through the root store: they run before a
// principal exists, are keyed by primary key or unique email, and must not
// depend on request context. Everything else goes through the scoped store.
type Repository struct {
	root   tenancy.Store
	scoped tenancy.Store
}

// NewRepository constructs a repository.
func NewRepository(root tenancy.Store, scoped tenancy.Store) *Repository {
	return &Repository{root: root, scoped: scoped}
}

func rowToRecord(row tenancy.Row) *auth.UserRecord {
	return &auth.UserRecord{
		ID:           row.String("id"),
		OrgID:        row.String("org_id"),
		Email:        row.String("email"),
		FullName:     row.String("full_name"),
		Role:         tenancy.RoleFromString(row.String("role")),
		IsActive:     row.Bool("is_active"),
		IsTeamMember: row.Bool("is_team_member"),
	}
}

func rowToUser(row tenancy.Row) User {
	return User{
		ID:           row.String("id"),
		OrgID:        row.String("org_id"),
		Email:        row.String("email"),
		FullName:     row.String("full_name"),
		Role:         tenancy.RoleFromString(row.String("role")),
		IsActive:     row.Bool("is_active"),
		IsTeamMember: row.Bool("is_team_member"),
		CreatedAt:    row.Time("created_at"),
		UpdatedAt:    row.Time("updated_at"),
	}
}

// FindByID fetches the authoritative record for a verified subject.
func (r *Repository) FindByID(ctx context.Context, id string) (*auth.UserRecord, error) {
	row, err := r.root.FindOne(ctx, tenancy.Op{
		Entity: entityUsers,
		Filter: map[string]any{"id": id},
	})
	if err != nil {
		return nil, err
	}
	return rowToRecord(row), nil
}

// FindByEmail fetches login credentials by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	row, err := r.root.FindOne(ctx, tenancy.Op{
		Entity: entityUsers,
		Filter: map[string]any{"email": email},
	})
	if err != nil {
		return nil, err
	}
	return &auth.Credential{
		UserRecord:   *rowToRecord(row),
		PasswordHash: row.String("password_hash"),
	}, nil
}

// List returns the current organization's users.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.scoped.FindMany(ctx, tenancy.Op{
		Entity:  entityUsers,
		OrderBy: "created_at",
	})
	if err != nil {
		return nil, err
	}
	result := make([]User, 0, len(rows))
	for _, row := range rows {
		result = append(result, rowToUser(row))
	}
	return result, nil
}

// Create inserts a user. The caller supplies org_id explicitly; creates are
// never auto-scoped.
func (r *Repository) Create(ctx context.Context, u User, passwordHash string) (User, error) {
	now := time.Now().UTC()
	row, err := r.scoped.Create(ctx, tenancy.Op{
		Entity: entityUsers,
		Data: map[string]any{
			"id":             u.ID,
			"org_id":         u.OrgID,
			"email":          u.Email,
			"full_name":      u.FullName,
			"role":           string(u.Role),
			"password_hash":  passwordHash,
			"is_active":      u.IsActive,
			"is_team_member": u.IsTeamMember,
			"created_at":     now,
			"updated_at":     now,
		},
	})
	if err != nil {
		return User{}, err
	}
	return rowToUser(row), nil
}

// UpdateRole changes a user's role within the current organization.
func (r *Repository) UpdateRole(ctx context.Context, id string, role tenancy.Role) (int64, error) {
	return r.scoped.Update(ctx, tenancy.Op{
		Entity: entityUsers,
		Filter: map[string]any{"id": id},
		Data:   map[string]any{"role": string(role), "updated_at": time.Now().UTC()},
	})
}

// Deactivate disables a user account.
func (r *Repository) Deactivate(ctx context.Context, id string) (int64, error) {
	return r.scoped.Update(ctx, tenancy.Op{
		Entity: entityUsers,
		Filter: map[string]any{"id": id},
		Data:   map[string]any{"is_active": false, "updated_at": time.Now().UTC()},
	})
}

var _ auth.UserStore = (*Repository)(nil)
var _ auth.CredentialStore = (*Repository)(nil)

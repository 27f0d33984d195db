package orgs

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearvat/clearvat/internal/shared"
)

// Repository provides PostgreSQL backed persistence for organizations.
// Organizations are the partition root, not a scoped entity, so this
// repository talks to the pool directly.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get fetches an organization by id.
func (r *Repository) Get(ctx context.Context, id string) (*Organization, error) {
	var org Organization
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, vat_number, subscription_plan, status, created_at, updated_at
		 FROM organizations WHERE id = $1`, id,
	).Scan(&org.ID, &org.Name, &org.VATNumber, &org.SubscriptionPlan, &org.Status, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

// Update patches name, vat number and subscription plan.
func (r *Repository) Update(ctx context.Context, org Organization) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE organizations SET name = $2, vat_number = $3, subscription_plan = $4, updated_at = $5
		 WHERE id = $1`,
		org.ID, org.Name, org.VATNumber, org.SubscriptionPlan, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RegisterParams carries the organization and its first admin user.
type RegisterParams struct {
	OrgID        string
	Name         string
	VATNumber    string
	Plan         SubscriptionPlan
	AdminID      string
	AdminEmail   string
	AdminName    string
	PasswordHash string
}

// Register creates the organization and its first admin user in one
// transaction. Either both rows exist afterwards or neither does.
func (r *Repository) Register(ctx context.Context, p RegisterParams) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`INSERT INTO organizations (id, name, vat_number, subscription_plan, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 'ACTIVE', $5, $5)`,
		p.OrgID, p.Name, p.VATNumber, p.Plan, now)
	if err != nil {
		return translateConflict(err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, org_id, email, full_name, role, password_hash, is_active, is_team_member, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 'SUPER_ADMIN', $5, TRUE, TRUE, $6, $6)`,
		p.AdminID, p.OrgID, p.AdminEmail, p.AdminName, p.PasswordHash, now)
	if err != nil {
		return translateConflict(err)
	}

	return tx.Commit(ctx)
}

func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrConflict
	}
	return err
}

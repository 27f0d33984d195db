package clients

import (
	"context"
	"time"

	"github.com/clearvat/clearvat/internal/tenancy"
)

const entityClients = "clients"

// Repository persists clients through the organization-scoped store.
type Repository struct {
	store tenancy.Store
}

// NewRepository constructs a repository.
func NewRepository(store tenancy.Store) *Repository {
	return &Repository{store: store}
}

func rowToClient(row tenancy.Row) Client {
	return Client{
		ID:            row.String("id"),
		OrgID:         row.String("org_id"),
		Name:          row.String("name"),
		TIN:           row.String("tin"),
		VATNumber:     row.String("vat_number"),
		TaxablePeriod: TaxablePeriod(row.String("taxable_period")),
		ContactEmail:  row.String("contact_email"),
		Status:        row.String("status"),
		CreatedAt:     row.Time("created_at"),
		UpdatedAt:     row.Time("updated_at"),
	}
}

// List returns one page of clients plus the total count for the filter.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Client, int64, error) {
	filter := map[string]any{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Period != "" {
		filter["taxable_period"] = string(f.Period)
	}
	if f.Per <= 0 {
		f.Per = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	total, err := r.store.Count(ctx, tenancy.Op{Entity: entityClients, Filter: filter})
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.store.FindMany(ctx, tenancy.Op{
		Entity:  entityClients,
		Filter:  filter,
		OrderBy: "name",
		Limit:   f.Per,
		Offset:  (f.Page - 1) * f.Per,
	})
	if err != nil {
		return nil, 0, err
	}
	result := make([]Client, 0, len(rows))
	for _, row := range rows {
		result = append(result, rowToClient(row))
	}
	return result, total, nil
}

// Get fetches one client by id within the current organization.
func (r *Repository) Get(ctx context.Context, id string) (Client, error) {
	row, err := r.store.FindOne(ctx, tenancy.Op{
		Entity: entityClients,
		Filter: map[string]any{"id": id},
	})
	if err != nil {
		return Client{}, err
	}
	return rowToClient(row), nil
}

// Create inserts a client. The payload carries org_id explicitly.
func (r *Repository) Create(ctx context.Context, c Client) (Client, error) {
	now := time.Now().UTC()
	row, err := r.store.Create(ctx, tenancy.Op{
		Entity: entityClients,
		Data: map[string]any{
			"id":             c.ID,
			"org_id":         c.OrgID,
			"name":           c.Name,
			"tin":            c.TIN,
			"vat_number":     c.VATNumber,
			"taxable_period": string(c.TaxablePeriod),
			"contact_email":  c.ContactEmail,
			"status":         c.Status,
			"created_at":     now,
			"updated_at":     now,
		},
	})
	if err != nil {
		return Client{}, err
	}
	return rowToClient(row), nil
}

// Update replaces the mutable fields of a client.
func (r *Repository) Update(ctx context.Context, c Client) (int64, error) {
	return r.store.Update(ctx, tenancy.Op{
		Entity: entityClients,
		Filter: map[string]any{"id": c.ID},
		Data: map[string]any{
			"name":           c.Name,
			"tin":            c.TIN,
			"vat_number":     c.VATNumber,
			"taxable_period": string(c.TaxablePeriod),
			"contact_email":  c.ContactEmail,
			"updated_at":     time.Now().UTC(),
		},
	})
}

// UpdateStatus changes the engagement status.
func (r *Repository) UpdateStatus(ctx context.Context, id, status string) (int64, error) {
	return r.store.Update(ctx, tenancy.Op{
		Entity: entityClients,
		Filter: map[string]any{"id": id},
		Data:   map[string]any{"status": status, "updated_at": time.Now().UTC()},
	})
}

// Delete removes a client.
func (r *Repository) Delete(ctx context.Context, id string) (int64, error) {
	return r.store.Delete(ctx, tenancy.Op{
		Entity: entityClients,
		Filter: map[string]any{"id": id},
	})
}

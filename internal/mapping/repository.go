package mapping

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clearvat/clearvat/internal/tenancy"
)

const entityTemplates = "mapping_templates"

// Repository persists mapping templates through the organization-scoped
// store. The column map travels as jsonb.
type Repository struct {
	store tenancy.Store
}

// NewRepository constructs a repository.
func NewRepository(store tenancy.Store) *Repository {
	return &Repository{store: store}
}

func rowToTemplate(row tenancy.Row) Template {
	t := Template{
		ID:        row.String("id"),
		OrgID:     row.String("org_id"),
		Name:      row.String("name"),
		IsDefault: row.Bool("is_default"),
		CreatedAt: row.Time("created_at"),
		UpdatedAt: row.Time("updated_at"),
	}
	switch v := row["column_map"].(type) {
	case []byte:
		_ = json.Unmarshal(v, &t.ColumnMap)
	case string:
		_ = json.Unmarshal([]byte(v), &t.ColumnMap)
	case map[string]any:
		t.ColumnMap = make(map[string]string, len(v))
		for k, raw := range v {
			if s, ok := raw.(string); ok {
				t.ColumnMap[k] = s
			}
		}
	}
	return t
}

// List returns the organization's templates.
func (r *Repository) List(ctx context.Context) ([]Template, error) {
	rows, err := r.store.FindMany(ctx, tenancy.Op{
		Entity:  entityTemplates,
		OrderBy: "name",
	})
	if err != nil {
		return nil, err
	}
	result := make([]Template, 0, len(rows))
	for _, row := range rows {
		result = append(result, rowToTemplate(row))
	}
	return result, nil
}

// Get fetches one template within the current organization.
func (r *Repository) Get(ctx context.Context, id string) (Template, error) {
	row, err := r.store.FindOne(ctx, tenancy.Op{
		Entity: entityTemplates,
		Filter: map[string]any{"id": id},
	})
	if err != nil {
		return Template{}, err
	}
	return rowToTemplate(row), nil
}

// Create inserts a template with org_id explicit in the payload.
func (r *Repository) Create(ctx context.Context, t Template) (Template, error) {
	columns, err := json.Marshal(t.ColumnMap)
	if err != nil {
		return Template{}, err
	}
	now := time.Now().UTC()
	row, err := r.store.Create(ctx, tenancy.Op{
		Entity: entityTemplates,
		Data: map[string]any{
			"id":         t.ID,
			"org_id":     t.OrgID,
			"name":       t.Name,
			"column_map": columns,
			"is_default": t.IsDefault,
			"created_at": now,
			"updated_at": now,
		},
	})
	if err != nil {
		return Template{}, err
	}
	return rowToTemplate(row), nil
}

// Update replaces name, column map and default flag.
func (r *Repository) Update(ctx context.Context, t Template) (int64, error) {
	columns, err := json.Marshal(t.ColumnMap)
	if err != nil {
		return 0, err
	}
	return r.store.Update(ctx, tenancy.Op{
		Entity: entityTemplates,
		Filter: map[string]any{"id": t.ID},
		Data: map[string]any{
			"name":       t.Name,
			"column_map": columns,
			"is_default": t.IsDefault,
			"updated_at": time.Now().UTC(),
		},
	})
}

// Delete removes a template.
func (r *Repository) Delete(ctx context.Context, id string) (int64, error) {
	return r.store.Delete(ctx, tenancy.Op{
		Entity: entityTemplates,
		Filter: map[string]any{"id": id},
	})
}

package branding

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

const entityBrandings = "brandings"

// Repository persists branding through the organization-scoped store. Each
// organization holds at most one row; the colors map travels as jsonb.
type Repository struct {
	store tenancy.Store
}

// NewRepository constructs a repository.
func NewRepository(store tenancy.Store) *Repository {
	return &Repository{store: store}
}

func rowToBranding(row tenancy.Row) Branding {
	b := Branding{
		ID:             row.String("id"),
		OrgID:          row.String("org_id"),
		CompanyName:    row.String("company_name"),
		CompanyWebsite: row.String("company_website"),
		SupportEmail:   row.String("support_email"),
		SupportPhone:   row.String("support_phone"),
		FooterText:     row.String("footer_text"),
		LogoURL:        row.String("logo_url"),
		FaviconURL:     row.String("favicon_url"),
		Enabled:        row.Bool("enabled"),
		UpdatedAt:      row.Time("updated_at"),
	}
	switch v := row["colors"].(type) {
	case []byte:
		_ = json.Unmarshal(v, &b.Colors)
	case string:
		_ = json.Unmarshal([]byte(v), &b.Colors)
	case map[string]any:
		b.Colors = make(map[string]string, len(v))
		for k, raw := range v {
			if s, ok := raw.(string); ok {
				b.Colors[k] = s
			}
		}
	}
	return b
}

// Get fetches the current organization's branding.
func (r *Repository) Get(ctx context.Context) (Branding, error) {
	row, err := r.store.FindOne(ctx, tenancy.Op{Entity: entityBrandings})
	if err != nil {
		return Branding{}, err
	}
	return rowToBranding(row), nil
}

// Upsert writes the organization's branding, creating the row on first
// update.
func (r *Repository) Upsert(ctx context.Context, b Branding) (Branding, error) {
	colors, err := json.Marshal(b.Colors)
	if err != nil {
		return Branding{}, err
	}
	data := map[string]any{
		"company_name":    b.CompanyName,
		"company_website": b.CompanyWebsite,
		"support_email":   b.SupportEmail,
		"support_phone":   b.SupportPhone,
		"colors":          colors,
		"footer_text":     b.FooterText,
		"logo_url":        b.LogoURL,
		"favicon_url":     b.FaviconURL,
		"enabled":         b.Enabled,
		"updated_at":      time.Now().UTC(),
	}

	affected, err := r.store.Update(ctx, tenancy.Op{Entity: entityBrandings, Data: data})
	if err != nil {
		return Branding{}, err
	}
	if affected == 0 {
		data["id"] = uuid.NewString()
		data["org_id"] = b.OrgID
		row, err := r.store.Create(ctx, tenancy.Op{Entity: entityBrandings, Data: data})
		if err == nil {
			return rowToBranding(row), nil
		}
		if !errors.Is(err, shared.ErrConflict) {
			return Branding{}, err
		}
		// Lost a create race; the row exists now, apply as an update.
		delete(data, "id")
		delete(data, "org_id")
		if _, err := r.store.Update(ctx, tenancy.Op{Entity: entityBrandings, Data: data}); err != nil {
			return Branding{}, err
		}
	}
	return r.Get(ctx)
}

package uploads

import (
	"context"
	"time"

	"github.com/clearvat/clearvat/internal/tenancy"
)

const entityUploads = "uploads"

// Repository persists upload metadata through the organization-scoped store.
type Repository struct {
	store tenancy.Store
}

// NewRepository constructs a repository.
func NewRepository(store tenancy.Store) *Repository {
	return &Repository{store: store}
}

func rowToUpload(row tenancy.Row) Upload {
	return Upload{
		ID:          row.String("id"),
		OrgID:       row.String("org_id"),
		UploaderID:  row.String("uploader_id"),
		FileName:    row.String("file_name"),
		StoragePath: row.String("storage_path"),
		ContentType: row.String("content_type"),
		SizeBytes:   row.Int("size_bytes"),
		Status:      row.String("status"),
		CreatedAt:   row.Time("created_at"),
	}
}

// List returns the organization's uploads, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]Upload, error) {
	rows, err := r.store.FindMany(ctx, tenancy.Op{
		Entity:  entityUploads,
		OrderBy: "created_at DESC",
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	result := make([]Upload, 0, len(rows))
	for _, row := range rows {
		result = append(result, rowToUpload(row))
	}
	return result, nil
}

// Get fetches one upload within the current organization.
func (r *Repository) Get(ctx context.Context, id string) (Upload, error) {
	row, err := r.store.FindOne(ctx, tenancy.Op{
		Entity: entityUploads,
		Filter: map[string]any{"id": id},
	})
	if err != nil {
		return Upload{}, err
	}
	return rowToUpload(row), nil
}

// Create inserts upload metadata with org_id explicit in the payload.
func (r *Repository) Create(ctx context.Context, u Upload) (Upload, error) {
	row, err := r.store.Create(ctx, tenancy.Op{
		Entity: entityUploads,
		Data: map[string]any{
			"id":           u.ID,
			"org_id":       u.OrgID,
			"uploader_id":  u.UploaderID,
			"file_name":    u.FileName,
			"storage_path": u.StoragePath,
			"content_type": u.ContentType,
			"size_bytes":   u.SizeBytes,
			"status":       u.Status,
			"created_at":   time.Now().UTC(),
		},
	})
	if err != nil {
		return Upload{}, err
	}
	return rowToUpload(row), nil
}

// Delete removes upload metadata.
func (r *Repository) Delete(ctx context.Context, id string) (int64, error) {
	return r.store.Delete(ctx, tenancy.Op{
		Entity: entityUploads,
		Filter: map[string]any{"id": id},
	})
}

package submissions

import (
	"context"
	"time"

	"github.com/clearvat/clearvat/internal/tenancy"
)

const entitySubmissions = "submissions"

// Repository persists submissions through the organization-scoped store.
type Repository struct {
	store tenancy.Store
}

// NewRepository constructs a repository.
func NewRepository(store tenancy.Store) *Repository {
	return &Repository{store: store}
}

func rowToSubmission(row tenancy.Row) Submission {
	return Submission{
		ID:           row.String("id"),
		OrgID:        row.String("org_id"),
		ClientID:     row.String("client_id"),
		Period:       row.String("period"),
		ScheduleType: ScheduleType(row.String("schedule_type")),
		Stage:        Stage(row.Int("stage")),
		Status:       row.String("status"),
		CreatedAt:    row.Time("created_at"),
		UpdatedAt:    row.Time("updated_at"),
	}
}

// List returns submissions optionally narrowed by client and period.
func (r *Repository) List(ctx context.Context, clientID, period string) ([]Submission, error) {
	filter := map[string]any{}
	if clientID != "" {
		filter["client_id"] = clientID
	}
	if period != "" {
		filter["period"] = period
	}
	rows, err := r.store.FindMany(ctx, tenancy.Op{
		Entity:  entitySubmissions,
		Filter:  filter,
		OrderBy: "created_at DESC",
	})
	if err != nil {
		return nil, err
	}
	result := make([]Submission, 0, len(rows))
	for _, row := range rows {
		result = append(result, rowToSubmission(row))
	}
	return result, nil
}

// Get fetches one submission within the current organization.
func (r *Repository) Get(ctx context.Context, id string) (Submission, error) {
	row, err := r.store.FindOne(ctx, tenancy.Op{
		Entity: entitySubmissions,
		Filter: map[string]any{"id": id},
	})
	if err != nil {
		return Submission{}, err
	}
	return rowToSubmission(row), nil
}

// Create inserts a submission with org_id explicit in the payload.
func (r *Repository) Create(ctx context.Context, s Submission) (Submission, error) {
	now := time.Now().UTC()
	row, err := r.store.Create(ctx, tenancy.Op{
		Entity: entitySubmissions,
		Data: map[string]any{
			"id":            s.ID,
			"org_id":        s.OrgID,
			"client_id":     s.ClientID,
			"period":        s.Period,
			"schedule_type": string(s.ScheduleType),
			"stage":         int(s.Stage),
			"status":        s.Status,
			"created_at":    now,
			"updated_at":    now,
		},
	})
	if err != nil {
		return Submission{}, err
	}
	return rowToSubmission(row), nil
}

// Update patches period and schedule type.
func (r *Repository) Update(ctx context.Context, s Submission) (int64, error) {
	return r.store.Update(ctx, tenancy.Op{
		Entity: entitySubmissions,
		Filter: map[string]any{"id": s.ID},
		Data: map[string]any{
			"period":        s.Period,
			"schedule_type": string(s.ScheduleType),
			"updated_at":    time.Now().UTC(),
		},
	})
}

// SetStage moves the submission to the given stage and status.
func (r *Repository) SetStage(ctx context.Context, id string, stage Stage, status string) (int64, error) {
	return r.store.Update(ctx, tenancy.Op{
		Entity: entitySubmissions,
		Filter: map[string]any{"id": id},
		Data: map[string]any{
			"stage":      int(stage),
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	})
}

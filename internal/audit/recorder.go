// Package audit persists organization-scoped audit trail entries for every
// mutating operation.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clearvat/clearvat/internal/tenancy"
)

// Entry represents a record stored in audit_logs.
type Entry struct {
	ID       string         `json:"id"`
	OrgID    string         `json:"org_id"`
	ActorID  string         `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// Recorder writes entries into audit_logs through the scoped store. Creates
// are not auto-scoped, so the organization id is taken from the request
// context and written explicitly.
type Recorder struct {
	store tenancy.Store
}

// NewRecorder returns a new Recorder.
func NewRecorder(store tenancy.Store) *Recorder {
	return &Recorder{store: store}
}

// Record persists the entry, attributing it to the current principal.
func (rec *Recorder) Record(ctx context.Context, action, entity, entityID string, meta map[string]any) error {
	if action == "" || entity == "" || entityID == "" {
		return errors.New("audit: entry requires action/entity/entity_id")
	}
	principal := tenancy.PrincipalFrom(ctx)
	if principal == nil {
		return tenancy.ErrNoOrgContext
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = rec.store.Create(ctx, tenancy.Op{
		Entity: "audit_logs",
		Data: map[string]any{
			"id":          uuid.NewString(),
			"org_id":      principal.OrgID,
			"actor_id":    principal.UserID,
			"action":      action,
			"entity":      entity,
			"entity_id":   entityID,
			"meta":        metaJSON,
			"occurred_at": time.Now().UTC(),
		},
	})
	return err
}

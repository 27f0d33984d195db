package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

// Handler serves the organization audit timeline.
type Handler struct {
	logger *slog.Logger
	store  tenancy.Store
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, store tenancy.Store) *Handler {
	return &Handler{logger: logger, store: store}
}

// Timeline handles GET /audit/timeline. The store injects the organization
// predicate; entity and actor filters narrow within it.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	filter := map[string]any{}
	if entity := r.URL.Query().Get("entity"); entity != "" {
		filter["entity"] = entity
	}
	if actor := r.URL.Query().Get("actor_id"); actor != "" {
		filter["actor_id"] = actor
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	rows, err := h.store.FindMany(r.Context(), tenancy.Op{
		Entity:  "audit_logs",
		Filter:  filter,
		OrderBy: "occurred_at DESC",
		Limit:   limit,
	})
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not load timeline")
		return
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			ID:       row.String("id"),
			OrgID:    row.String("org_id"),
			ActorID:  row.String("actor_id"),
			Action:   row.String("action"),
			Entity:   row.String("entity"),
			EntityID: row.String("entity_id"),
			At:       row.Time("occurred_at"),
		})
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

package mapping

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clearvat/clearvat/internal/audit"
	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

// Handler wires HTTP endpoints for mapping templates.
type Handler struct {
	logger    *slog.Logger
	repo      *Repository
	audit     *audit.Recorder
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, repo *Repository, recorder *audit.Recorder) *Handler {
	return &Handler{logger: logger, repo: repo, audit: recorder, validator: validator.New()}
}

// List handles GET /mapping-templates.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("list templates", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not list templates")
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"templates": result})
}

// Get handles GET /mapping-templates/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	template, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "template not found")
			return
		}
		h.logger.Error("get template", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not load template")
		return
	}
	shared.WriteJSON(w, http.StatusOK, template)
}

type templateRequest struct {
	Name      string            `json:"name" validate:"required,min=2"`
	ColumnMap map[string]string `json:"column_map" validate:"required,min=1"`
	IsDefault bool              `json:"is_default"`
}

// Create handles POST /mapping-templates.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	principal := tenancy.PrincipalFrom(r.Context())
	if principal == nil {
		shared.WriteError(w, http.StatusUnauthorized, "MISSING_TOKEN", "not authenticated")
		return
	}
	created, err := h.repo.Create(r.Context(), Template{
		ID:        uuid.NewString(),
		OrgID:     principal.OrgID,
		Name:      req.Name,
		ColumnMap: req.ColumnMap,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		h.logger.Error("create template", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not create template")
		return
	}
	if err := h.audit.Record(r.Context(), "template.created", "mapping_templates", created.ID, nil); err != nil {
		h.logger.Warn("audit template create", slog.Any("error", err))
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

// Update handles PUT /mapping-templates/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	affected, err := h.repo.Update(r.Context(), Template{
		ID:        id,
		Name:      req.Name,
		ColumnMap: req.ColumnMap,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		h.logger.Error("update template", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not update template")
		return
	}
	if affected == 0 {
		shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "template not found")
		return
	}
	template, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("reload template", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not load template")
		return
	}
	shared.WriteJSON(w, http.StatusOK, template)
}

// Delete handles DELETE /mapping-templates/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	affected, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("delete template", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not delete template")
		return
	}
	if affected == 0 {
		shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "template not found")
		return
	}
	if err := h.audit.Record(r.Context(), "template.deleted", "mapping_templates", id, nil); err != nil {
		h.logger.Warn("audit template delete", slog.Any("error", err))
	}
	w.WriteHeader(http.StatusNoContent)
}

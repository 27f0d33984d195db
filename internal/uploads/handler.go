package uploads

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clearvat/clearvat/internal/audit"
	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

// Handler wires HTTP endpoints for upload metadata.
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

// List handles GET /uploads.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	result, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list uploads", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not list uploads")
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"uploads": result})
}

// Get handles GET /uploads/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	upload, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "upload not found")
			return
		}
		h.logger.Error("get upload", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not load upload")
		return
	}
	shared.WriteJSON(w, http.StatusOK, upload)
}

type createRequest struct {
	FileName    string `json:"file_name" validate:"required"`
	StoragePath string `json:"storage_path" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	SizeBytes   int64  `json:"size_bytes" validate:"required,gt=0"`
}

// Create handles POST /uploads, registering metadata after the client has
// pushed the blob to storage.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
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
	created, err := h.repo.Create(r.Context(), Upload{
		ID:          uuid.NewString(),
		OrgID:       principal.OrgID,
		UploaderID:  principal.UserID,
		FileName:    req.FileName,
		StoragePath: req.StoragePath,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		Status:      StatusPending,
	})
	if err != nil {
		h.logger.Error("create upload", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not register upload")
		return
	}
	if err := h.audit.Record(r.Context(), "upload.registered", "uploads", created.ID,
		map[string]any{"file_name": created.FileName}); err != nil {
		h.logger.Warn("audit upload", slog.Any("error", err))
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

// Delete handles DELETE /uploads/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	affected, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("delete upload", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not delete upload")
		return
	}
	if affected == 0 {
		shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "upload not found")
		return
	}
	if err := h.audit.Record(r.Context(), "upload.deleted", "uploads", id, nil); err != nil {
		h.logger.Warn("audit upload delete", slog.Any("error", err))
	}
	w.WriteHeader(http.StatusNoContent)
}

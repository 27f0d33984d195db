package submissions

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clearvat/clearvat/internal/shared"
)

// Handler wires HTTP endpoints for submission management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// List handles GET /submissions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), r.URL.Query().Get("client_id"), r.URL.Query().Get("period"))
	if err != nil {
		h.logger.Error("list submissions", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not list submissions")
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"submissions": result})
}

// Get handles GET /submissions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	submission, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "submission not found")
			return
		}
		h.logger.Error("get submission", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not load submission")
		return
	}
	shared.WriteJSON(w, http.StatusOK, submission)
}

type createRequest struct {
	ClientID     string `json:"client_id" validate:"required,uuid4"`
	Period       string `json:"period" validate:"required"`
	ScheduleType string `json:"schedule_type" validate:"required"`
}

// Create handles POST /submissions.
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
	created, err := h.service.Create(r.Context(), req.ClientID, req.Period, ScheduleType(req.ScheduleType))
	if err != nil {
		h.logger.Error("create submission", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not create submission")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

type updateRequest struct {
	Period       string `json:"period"`
	ScheduleType string `json:"schedule_type"`
}

// Update handles PATCH /submissions/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.Period, ScheduleType(req.ScheduleType))
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "submission not found")
		case errors.Is(err, ErrClosed):
			shared.WriteError(w, http.StatusConflict, "CLOSED", "submission is closed")
		default:
			h.logger.Error("update submission", slog.Any("error", err))
			shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not update submission")
		}
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

// Advance handles POST /submissions/{id}/advance.
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	advanced, err := h.service.Advance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "submission not found")
		case errors.Is(err, ErrClosed):
			shared.WriteError(w, http.StatusConflict, "CLOSED", "submission is closed")
		default:
			h.logger.Error("advance submission", slog.Any("error", err))
			shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not advance submission")
		}
		return
	}
	shared.WriteJSON(w, http.StatusOK, advanced)
}

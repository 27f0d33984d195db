package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

// Handler wires HTTP endpoints for user management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// List handles GET /users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not list users")
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"users": result})
}

type inviteRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=SUPER_ADMIN VAT_TEAM_LEAD VAT_TEAM_MEMBER CLIENT"`
}

// Invite handles POST /users.
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	created, err := h.service.Invite(r.Context(), req.Email, req.FullName, req.Password, tenancy.RoleFromString(req.Role))
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			shared.WriteError(w, http.StatusConflict, "CONFLICT", "email already registered")
			return
		}
		h.logger.Error("invite user", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not invite user")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=SUPER_ADMIN VAT_TEAM_LEAD VAT_TEAM_MEMBER CLIENT"`
}

// UpdateRole handles PATCH /users/{id}/role.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateRoleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	if err := h.service.UpdateRole(r.Context(), id, tenancy.RoleFromString(req.Role)); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		h.logger.Error("update role", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not update role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deactivate handles DELETE /users/{id}.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
			return
		}
		h.logger.Error("deactivate user", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not deactivate user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package orgs

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/clearvat/clearvat/internal/shared"
)

// Handler wires HTTP endpoints for organization management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

type registerRequest struct {
	Name       string `json:"name" validate:"required,min=2"`
	VATNumber  string `json:"vat_number" validate:"required"`
	Plan       string `json:"plan" validate:"omitempty,oneof=STARTER PROFESSIONAL ENTERPRISE"`
	AdminEmail string `json:"admin_email" validate:"required,email"`
	AdminName  string `json:"admin_name" validate:"required"`
	Password   string `json:"password" validate:"required,min=8"`
}

// Register handles POST /orgs/register, the public tenant signup.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	orgID, adminID, err := h.service.Register(r.Context(), RegisterInput{
		Name:       req.Name,
		VATNumber:  req.VATNumber,
		Plan:       SubscriptionPlan(req.Plan),
		AdminEmail: req.AdminEmail,
		AdminName:  req.AdminName,
		Password:   req.Password,
	})
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			shared.WriteError(w, http.StatusConflict, "CONFLICT", "organization or email already registered")
			return
		}
		h.logger.Error("register organization", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "registration failed")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"org_id": orgID, "admin_id": adminID})
}

// Get handles GET /orgs/current.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.Current(r.Context())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "organization not found")
			return
		}
		h.logger.Error("get organization", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not load organization")
		return
	}
	shared.WriteJSON(w, http.StatusOK, org)
}

type updateRequest struct {
	Name      string `json:"name"`
	VATNumber string `json:"vat_number"`
	Plan      string `json:"plan" validate:"omitempty,oneof=STARTER PROFESSIONAL ENTERPRISE"`
}

// Update handles PATCH /orgs/current.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	org, err := h.service.Update(r.Context(), req.Name, req.VATNumber, SubscriptionPlan(req.Plan))
	if err != nil {
		h.logger.Error("update organization", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not update organization")
		return
	}
	shared.WriteJSON(w, http.StatusOK, org)
}

// Metrics handles GET /orgs/current/metrics.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Metrics(r.Context())
	if err != nil {
		h.logger.Error("organization metrics", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not compute metrics")
		return
	}
	shared.WriteJSON(w, http.StatusOK, m)
}

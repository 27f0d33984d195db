package branding

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/clearvat/clearvat/internal/audit"
	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

// Handler wires HTTP endpoints for white-label branding.
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

// Get handles GET /branding.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.repo.Get(r.Context())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "branding not configured")
			return
		}
		h.logger.Error("get branding", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not load branding")
		return
	}
	shared.WriteJSON(w, http.StatusOK, b)
}

// updateRequest is a partial patch; an absent field leaves the stored value
// alone.
type updateRequest struct {
	CompanyName    *string            `json:"company_name"`
	CompanyWebsite *string            `json:"company_website" validate:"omitempty,url"`
	SupportEmail   *string            `json:"support_email" validate:"omitempty,email"`
	SupportPhone   *string            `json:"support_phone"`
	Colors         *map[string]string `json:"colors"`
	FooterText     *string            `json:"footer_text"`
	LogoURL        *string            `json:"logo_url" validate:"omitempty,url"`
	FaviconURL     *string            `json:"favicon_url" validate:"omitempty,url"`
	Enabled        *bool              `json:"enabled"`
}

// Update handles PATCH /branding, creating the configuration on first write.
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
	principal := tenancy.PrincipalFrom(r.Context())
	if principal == nil {
		shared.WriteError(w, http.StatusUnauthorized, "MISSING_TOKEN", "not authenticated")
		return
	}

	current, err := h.repo.Get(r.Context())
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		h.logger.Error("load branding", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not update branding")
		return
	}
	if errors.Is(err, shared.ErrNotFound) {
		current = Branding{OrgID: principal.OrgID, Enabled: true}
	}

	applyUpdate(&current, req)
	saved, err := h.repo.Upsert(r.Context(), current)
	if err != nil {
		h.logger.Error("update branding", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not update branding")
		return
	}

	if err := h.audit.Record(r.Context(), "branding.updated", "brandings", saved.ID, nil); err != nil {
		h.logger.Warn("audit branding", slog.Any("error", err))
	}
	shared.WriteJSON(w, http.StatusOK, saved)
}

func applyUpdate(b *Branding, req updateRequest) {
	if req.CompanyName != nil {
		b.CompanyName = *req.CompanyName
	}
	if req.CompanyWebsite != nil {
		b.CompanyWebsite = *req.CompanyWebsite
	}
	if req.SupportEmail != nil {
		b.SupportEmail = *req.SupportEmail
	}
	if req.SupportPhone != nil {
		b.SupportPhone = *req.SupportPhone
	}
	if req.Colors != nil {
		b.Colors = *req.Colors
	}
	if req.FooterText != nil {
		b.FooterText = *req.FooterText
	}
	if req.LogoURL != nil {
		b.LogoURL = *req.LogoURL
	}
	if req.FaviconURL != nil {
		b.FaviconURL = *req.FaviconURL
	}
	if req.Enabled != nil {
		b.Enabled = *req.Enabled
	}
}

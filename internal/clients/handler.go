package clients

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clearvat/clearvat/internal/shared"
)

// Handler wires HTTP endpoints for client management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	idem      *shared.IdempotencyStore
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// WithIdempotency enables Idempotency-Key handling on bulk import.
func (h *Handler) WithIdempotency(store *shared.IdempotencyStore) *Handler {
	h.idem = store
	return h
}

// List handles GET /clients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f := ListFilter{
		Status: r.URL.Query().Get("status"),
		Period: TaxablePeriod(r.URL.Query().Get("taxable_period")),
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		f.Page, _ = strconv.Atoi(raw)
	}
	if raw := r.URL.Query().Get("per_page"); raw != "" {
		f.Per, _ = strconv.Atoi(raw)
	}

	result, pagination, err := h.service.List(r.Context(), f)
	if err != nil {
		h.logger.Error("list clients", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not list clients")
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"clients":    result,
		"pagination": pagination,
	})
}

// Get handles GET /clients/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	client, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "client not found")
			return
		}
		h.logger.Error("get client", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not load client")
		return
	}
	shared.WriteJSON(w, http.StatusOK, client)
}

type clientRequest struct {
	Name          string `json:"name" validate:"required,min=2"`
	TIN           string `json:"tin" validate:"required"`
	VATNumber     string `json:"vat_number"`
	TaxablePeriod string `json:"taxable_period" validate:"omitempty,oneof=MONTHLY QUARTERLY"`
	ContactEmail  string `json:"contact_email" validate:"omitempty,email"`
}

// Create handles POST /clients.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), Client{
		Name:          req.Name,
		TIN:           req.TIN,
		VATNumber:     req.VATNumber,
		TaxablePeriod: TaxablePeriod(req.TaxablePeriod),
		ContactEmail:  req.ContactEmail,
	})
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			shared.WriteError(w, http.StatusConflict, "CONFLICT", "client already exists")
			return
		}
		h.logger.Error("create client", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not create client")
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

// Update handles PUT /clients/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), Client{
		ID:            chi.URLParam(r, "id"),
		Name:          req.Name,
		TIN:           req.TIN,
		VATNumber:     req.VATNumber,
		TaxablePeriod: TaxablePeriod(req.TaxablePeriod),
		ContactEmail:  req.ContactEmail,
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "client not found")
			return
		}
		h.logger.Error("update client", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not update client")
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE SUSPENDED"`
}

// UpdateStatus handles PATCH /clients/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	if err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "client not found")
			return
		}
		h.logger.Error("update client status", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not update status")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /clients/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.WriteError(w, http.StatusNotFound, "NOT_FOUND", "client not found")
			return
		}
		h.logger.Error("delete client", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not delete client")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	Rows []struct {
		Name          string `json:"name"`
		TIN           string `json:"tin"`
		VATNumber     string `json:"vat_number"`
		TaxablePeriod string `json:"taxable_period"`
		ContactEmail  string `json:"contact_email"`
	} `json:"rows" validate:"required,min=1,max=1000"`
}

// BulkImport handles POST /clients/import.
func (h *Handler) BulkImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	idemKey := r.Header.Get("Idempotency-Key")
	if h.idem != nil && idemKey != "" {
		if err := h.idem.CheckAndInsert(r.Context(), idemKey, "clients"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				shared.WriteError(w, http.StatusConflict, "DUPLICATE_REQUEST", "import already processed")
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "import failed")
			return
		}
	}

	rows := make([]ImportRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, ImportRow{
			Name:          row.Name,
			TIN:           row.TIN,
			VATNumber:     row.VATNumber,
			TaxablePeriod: TaxablePeriod(row.TaxablePeriod),
			ContactEmail:  row.ContactEmail,
		})
	}
	result, err := h.service.BulkImport(r.Context(), rows)
	if err != nil {
		if h.idem != nil && idemKey != "" {
			if delErr := h.idem.Delete(r.Context(), idemKey); delErr != nil {
				h.logger.Warn("idempotency rollback", slog.Any("error", delErr))
			}
		}
		h.logger.Error("bulk import", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "import failed")
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

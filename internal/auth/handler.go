package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
	User         struct {
		ID           string       `json:"id"`
		Email        string       `json:"email"`
		FullName     string       `json:"full_name,omitempty"`
		Role         tenancy.Role `json:"role"`
		OrgID        string       `json:"org_id"`
		IsTeamMember bool         `json:"is_team_member"`
	} `json:"user"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "VALIDATION", "email and password are required")
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			shared.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "login failed")
		return
	}

	shared.WriteJSON(w, http.StatusOK, sessionResponse(session))
}

func sessionResponse(session *Session) loginResponse {
	var res loginResponse
	res.AccessToken = session.AccessToken
	res.RefreshToken = session.RefreshToken
	res.ExpiresAt = session.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	res.User.ID = session.User.ID
	res.User.Email = session.User.Email
	res.User.FullName = session.User.FullName
	res.User.Role = session.User.Role
	res.User.OrgID = session.User.OrgID
	res.User.IsTeamMember = session.User.IsTeamMember
	return res
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh handles POST /auth/refresh, exchanging a refresh token for a new
// session. The route is public; the refresh token itself is the credential.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "VALIDATION", "refresh_token is required")
		return
	}

	session, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		var authErr *Error
		switch {
		case errors.As(err, &authErr):
			shared.WriteError(w, authErr.Status(), string(authErr.Code), "invalid refresh token")
		case errors.Is(err, shared.ErrInvalidCredentials):
			shared.WriteError(w, http.StatusUnauthorized, string(CodeInvalidToken), "invalid refresh token")
		default:
			h.logger.Error("refresh", slog.Any("error", err))
			shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "refresh failed")
		}
		return
	}
	shared.WriteJSON(w, http.StatusOK, sessionResponse(session))
}

// Logout handles POST /auth/logout. The route is protected, so the pipeline
// has already verified the token being revoked.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := tenancy.AccessTokenFrom(r.Context())
	if token == "" {
		shared.WriteError(w, http.StatusUnauthorized, string(CodeMissingToken), "no active session")
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		h.logger.Warn("logout revoke", slog.Any("error", err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me, echoing the resolved principal.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal := tenancy.PrincipalFrom(r.Context())
	if principal == nil {
		shared.WriteError(w, http.StatusUnauthorized, string(CodeMissingToken), "not authenticated")
		return
	}
	shared.WriteJSON(w, http.StatusOK, principal)
}

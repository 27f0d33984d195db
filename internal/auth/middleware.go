package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

// RouteMeta declares the access policy for one route. Routes are public or
// protected at registration time; there is no annotation mechanism.
type RouteMeta struct {
	Public bool
	Roles  []tenancy.Role
}

// Protected is the default policy: authenticated, any role.
func Protected() RouteMeta { return RouteMeta{} }

// Public marks a route that bypasses the verification pipeline entirely.
func Public() RouteMeta { return RouteMeta{Public: true} }

// RequireRoles restricts a route to the given roles.
func RequireRoles(roles ...tenancy.Role) RouteMeta { return RouteMeta{Roles: roles} }

// Pipeline runs verify -> resolve -> attach for every protected route. The
// stages are strictly sequential within a request; the principal travels in
// the request context and never in package state.
type Pipeline struct {
	verifier TokenVerifier
	resolver *Resolver
	logger   *slog.Logger
	failures FailureRecorder
}

// FailureRecorder counts rejected requests by error code.
type FailureRecorder interface {
	RecordAuthFailure(code string)
}

// NewPipeline constructs the verification pipeline.
func NewPipeline(verifier TokenVerifier, resolver *Resolver, logger *slog.Logger) *Pipeline {
	return &Pipeline{verifier: verifier, resolver: resolver, logger: logger}
}

// WithFailureRecorder attaches a rejection counter and returns the pipeline.
func (p *Pipeline) WithFailureRecorder(rec FailureRecorder) *Pipeline {
	p.failures = rec
	return p
}

// bearerToken extracts the credential from the Authorization header. Any
// scheme other than Bearer is treated as a missing token.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingToken("missing bearer token")
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMissingToken("malformed authorization header")
	}
	return strings.TrimSpace(token), nil
}

// Guard returns the middleware enforcing the route's access policy. The
// policy is consulted before the token verifier runs.
func (p *Pipeline) Guard(meta RouteMeta) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if meta.Public {
				next.ServeHTTP(w, r)
				return
			}

			token, err := bearerToken(r)
			if err != nil {
				p.reject(w, err)
				return
			}

			identity, err := p.verifier.Verify(r.Context(), token)
			if err != nil {
				p.reject(w, err)
				return
			}

			principal, err := p.resolver.Resolve(r.Context(), identity, token)
			if err != nil {
				p.reject(w, err)
				return
			}

			if len(meta.Roles) > 0 && !hasRole(principal.Role, meta.Roles) {
				p.reject(w, &Error{Code: CodeForbidden, Message: "insufficient role"})
				return
			}

			ctx := tenancy.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hasRole(role tenancy.Role, allowed []tenancy.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

func (p *Pipeline) reject(w http.ResponseWriter, err error) {
	var authErr *Error
	if !errors.As(err, &authErr) {
		if p.logger != nil {
			p.logger.Error("auth pipeline failure", slog.Any("error", err))
		}
		shared.WriteError(w, http.StatusInternalServerError, "INTERNAL", "authentication failed")
		return
	}
	if p.failures != nil {
		p.failures.RecordAuthFailure(string(authErr.Code))
	}
	if authErr.Code == CodeProviderUnavailable && p.logger != nil {
		p.logger.Error("identity provider unavailable", slog.Any("error", authErr.Err))
	}
	shared.WriteError(w, authErr.Status(), string(authErr.Code), authErr.Message)
}

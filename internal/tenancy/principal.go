// Package tenancy owns the request-scoped organization identity and the
// data-access layer that enforces organization isolation on every query.
package tenancy

import "context"

// Role enumerates the access levels a principal can hold.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleTeamLead   Role = "VAT_TEAM_LEAD"
	RoleTeamMember Role = "VAT_TEAM_MEMBER"
	RoleClient     Role = "CLIENT"
)

// RoleFromString maps a raw role claim to a known Role, "" when unknown.
func RoleFromString(raw string) Role {
	switch Role(raw) {
	case RoleSuperAdmin, RoleTeamLead, RoleTeamMember, RoleClient:
		return Role(raw)
	}
	return ""
}

// Principal is the authenticated, organization-attributed identity resolved
// once per request. It is immutable after resolution.
type Principal struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name,omitempty"`
	Role         Role   `json:"role"`
	OrgID        string `json:"org_id"`
	IsTeamMember bool   `json:"is_team_member"`
	AccessToken  string `json:"-"`
}

type principalContextKey struct{}

// WithPrincipal stores the resolved principal in the request context. The
// context is the only propagation mechanism; there is no process-wide carrier.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFrom extracts the principal from context, nil when absent.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

// OrgFrom returns the organization id for the current request, "" when no
// principal has been attached.
func OrgFrom(ctx context.Context) string {
	if p := PrincipalFrom(ctx); p != nil {
		return p.OrgID
	}
	return ""
}

// AccessTokenFrom returns the raw bearer token for the current request.
func AccessTokenFrom(ctx context.Context) string {
	if p := PrincipalFrom(ctx); p != nil {
		return p.AccessToken
	}
	return ""
}

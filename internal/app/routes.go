package app

import (
	"net/http"

	"github.com/clearvat/clearvat/internal/auth"
	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

// Route binds one HTTP endpoint to its handler and access policy.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	Meta    auth.RouteMeta
}

var teamRoles = []tenancy.Role{tenancy.RoleSuperAdmin, tenancy.RoleTeamLead, tenancy.RoleTeamMember}
var leadRoles = []tenancy.Role{tenancy.RoleSuperAdmin, tenancy.RoleTeamLead}

// routeTable is the single authoritative mapping of routes to access
// policies. A route missing from this table does not exist.
func routeTable(p RouterParams) []Route {
	healthz := func(w http.ResponseWriter, r *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}

	return []Route{
		{http.MethodGet, "/healthz", healthz, auth.Public()},

		{http.MethodPost, "/auth/login", p.AuthHandler.Login, auth.Public()},
		{http.MethodPost, "/auth/refresh", p.AuthHandler.Refresh, auth.Public()},
		{http.MethodPost, "/auth/logout", p.AuthHandler.Logout, auth.Protected()},
		{http.MethodGet, "/auth/me", p.AuthHandler.Me, auth.Protected()},

		{http.MethodPost, "/orgs/register", p.OrgsHandler.Register, auth.Public()},
		{http.MethodGet, "/orgs/current", p.OrgsHandler.Get, auth.Protected()},
		{http.MethodPatch, "/orgs/current", p.OrgsHandler.Update, auth.RequireRoles(leadRoles...)},
		{http.MethodGet, "/orgs/current/metrics", p.OrgsHandler.Metrics, auth.RequireRoles(leadRoles...)},

		{http.MethodGet, "/users", p.UsersHandler.List, auth.RequireRoles(teamRoles...)},
		{http.MethodPost, "/users", p.UsersHandler.Invite, auth.RequireRoles(leadRoles...)},
		{http.MethodPatch, "/users/{id}/role", p.UsersHandler.UpdateRole, auth.RequireRoles(leadRoles...)},
		{http.MethodDelete, "/users/{id}", p.UsersHandler.Deactivate, auth.RequireRoles(leadRoles...)},

		{http.MethodGet, "/clients", p.ClientsHandler.List, auth.Protected()},
		{http.MethodPost, "/clients", p.ClientsHandler.Create, auth.RequireRoles(teamRoles...)},
		{http.MethodPost, "/clients/import", p.ClientsHandler.BulkImport, auth.RequireRoles(leadRoles...)},
		{http.MethodGet, "/clients/{id}", p.ClientsHandler.Get, auth.Protected()},
		{http.MethodPut, "/clients/{id}", p.ClientsHandler.Update, auth.RequireRoles(teamRoles...)},
		{http.MethodPatch, "/clients/{id}/status", p.ClientsHandler.UpdateStatus, auth.RequireRoles(teamRoles...)},
		{http.MethodDelete, "/clients/{id}", p.ClientsHandler.Delete, auth.RequireRoles(leadRoles...)},

		{http.MethodGet, "/submissions", p.SubmissionsHandler.List, auth.Protected()},
		{http.MethodPost, "/submissions", p.SubmissionsHandler.Create, auth.RequireRoles(teamRoles...)},
		{http.MethodGet, "/submissions/{id}", p.SubmissionsHandler.Get, auth.Protected()},
		{http.MethodPatch, "/submissions/{id}", p.SubmissionsHandler.Update, auth.RequireRoles(teamRoles...)},
		{http.MethodPost, "/submissions/{id}/advance", p.SubmissionsHandler.Advance, auth.RequireRoles(teamRoles...)},

		{http.MethodGet, "/uploads", p.UploadsHandler.List, auth.Protected()},
		{http.MethodPost, "/uploads", p.UploadsHandler.Create, auth.Protected()},
		{http.MethodGet, "/uploads/{id}", p.UploadsHandler.Get, auth.Protected()},
		{http.MethodDelete, "/uploads/{id}", p.UploadsHandler.Delete, auth.RequireRoles(teamRoles...)},

		{http.MethodGet, "/mapping-templates", p.MappingHandler.List, auth.RequireRoles(teamRoles...)},
		{http.MethodPost, "/mapping-templates", p.MappingHandler.Create, auth.RequireRoles(teamRoles...)},
		{http.MethodGet, "/mapping-templates/{id}", p.MappingHandler.Get, auth.RequireRoles(teamRoles...)},
		{http.MethodPut, "/mapping-templates/{id}", p.MappingHandler.Update, auth.RequireRoles(teamRoles...)},
		{http.MethodDelete, "/mapping-templates/{id}", p.MappingHandler.Delete, auth.RequireRoles(leadRoles...)},

		{http.MethodGet, "/branding", p.BrandingHandler.Get, auth.Protected()},
		{http.MethodPatch, "/branding", p.BrandingHandler.Update, auth.RequireRoles(leadRoles...)},

		{http.MethodGet, "/audit/timeline", p.AuditHandler.Timeline, auth.RequireRoles(leadRoles...)},
	}
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/clearvat/clearvat/internal/audit"
	"github.com/clearvat/clearvat/internal/auth"
	"github.com/clearvat/clearvat/internal/branding"
	"github.com/clearvat/clearvat/internal/clients"
	"github.com/clearvat/clearvat/internal/mapping"
	"github.com/clearvat/clearvat/internal/observability"
	"github.com/clearvat/clearvat/internal/orgs"
	"github.com/clearvat/clearvat/internal/submissions"
	"github.com/clearvat/clearvat/internal/uploads"
	"github.com/clearvat/clearvat/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Pipeline           *auth.Pipeline
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	OrgsHandler        *orgs.Handler
	ClientsHandler     *clients.Handler
	SubmissionsHandler *submissions.Handler
	UploadsHandler     *uploads.Handler
	MappingHandler     *mapping.Handler
	BrandingHandler    *branding.Handler
	AuditHandler       *audit.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router from the explicit route table. Every
// route's access policy lives in the table; the auth pipeline guard is
// attached per route, so there is no ambient "is this public" state.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	for _, route := range routeTable(params) {
		r.With(params.Pipeline.Guard(route.Meta)).Method(route.Method, route.Pattern, route.Handler)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

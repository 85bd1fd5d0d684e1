package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store           store.Store
	UserService     *service.UserService
	RolesService    *service.RolesService
	DeletionService *service.DeletionService

	// Metrics is served on /metrics when set.
	Metrics http.Handler
	// Workflows is reported on /readyz when set.
	Workflows WorkflowCounter
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerRoles()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// secured wraps h with bearer authn, a scope check, actor loading and a
// per-user rate limit.
func (r *Router) secured(h http.Handler, scope string, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAnyScope(scope),
		httpx.RateLimitByUser(limit),
		ActorMiddleware(r.UserService),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		UserService:     r.UserService,
		RolesService:    r.RolesService,
		DeletionService: r.DeletionService,
	}

	r.Mux.Handle("GET /v1/users/{id}",
		r.secured(http.HandlerFunc(h.HandleGet), "users:read", httpx.ReadLimit))

	// Mutations share the stricter budget.
	r.Mux.Handle("DELETE /v1/users/{id}",
		r.secured(http.HandlerFunc(h.HandleDelete), "users:write", httpx.MutationLimit))
	r.Mux.Handle("PATCH /v1/users/{id}/role",
		r.secured(http.HandlerFunc(h.HandleChangeRole), "users:write", httpx.MutationLimit))
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RolesService: r.RolesService}

	r.Mux.Handle("GET /v1/roles", r.secured(h, "users:read", httpx.ReadLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.ReadLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.Workflows),
			httpx.RateLimitByIP(httpx.ReadLimit),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics)
	}
}

package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crewdeck/crewdeck/internal/domain"
	"github.com/crewdeck/crewdeck/internal/service"
	"github.com/crewdeck/crewdeck/internal/store"
	"github.com/crewdeck/crewdeck/pkg/httpx"
	"github.com/crewdeck/crewdeck/pkg/jwtx"
	"github.com/crewdeck/crewdeck/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	TokenService     *service.TokenService
	UserService      *service.UserService
	InviteService    *service.InviteService
	BootstrapService *service.BootstrapService
	ProjectService   *service.ProjectService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerProjects()
	r.registerSystem()
}

// authn builds the per-request authentication middleware. The user
// service doubles as the subject source so deactivations bite
// immediately.
func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.verifier, r.UserService)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
	}

	// POST /auth/login - strict rate limit (brute force prevention)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(loginHandler.ServeHTTP),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	inviteMint := &InviteMintHandler{InviteService: r.InviteService}

	// POST /auth/invite - admin only
	r.Mux.Handle("POST /auth/invite",
		httpx.Chain(http.HandlerFunc(inviteMint.ServeHTTP),
			r.authn(),
			httpx.RequireRole(domain.RoleAdmin.String()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	inviteRedeem := &InviteRedeemHandler{InviteService: r.InviteService}

	// POST /auth/register-via-invite - unauthenticated, token-gated
	r.Mux.Handle("POST /auth/register-via-invite",
		httpx.Chain(http.HandlerFunc(inviteRedeem.ServeHTTP),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	seedHandler := &SeedAdminHandler{BootstrapService: r.BootstrapService}

	// POST /dev/seed-admin - unauthenticated bootstrap, gated by config
	r.Mux.Handle("POST /dev/seed-admin",
		httpx.Chain(http.HandlerFunc(seedHandler.ServeHTTP),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerUsers() {
	usersHandler := &UsersHandler{UserService: r.UserService}

	r.Mux.Handle("GET /users",
		httpx.Chain(http.HandlerFunc(usersHandler.HandleList),
			r.authn(),
			httpx.RequireRole(domain.RoleAdmin.String()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("PATCH /users/{id}/role",
		httpx.Chain(http.HandlerFunc(usersHandler.HandleUpdateRole),
			r.authn(),
			httpx.RequireRole(domain.RoleAdmin.String()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("PATCH /users/{id}/status",
		httpx.Chain(http.HandlerFunc(usersHandler.HandleUpdateStatus),
			r.authn(),
			httpx.RequireRole(domain.RoleAdmin.String()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProjects() {
	projectsHandler := &ProjectsHandler{ProjectService: r.ProjectService}

	anyRole := httpx.RequireRole(
		domain.RoleAdmin.String(),
		domain.RoleManager.String(),
		domain.RoleStaff.String(),
	)

	// Any authenticated role may create and read; mutation of existing
	// projects is an admin concern.
	r.Mux.Handle("POST /projects",
		httpx.Chain(http.HandlerFunc(projectsHandler.HandleCreate),
			r.authn(),
			anyRole,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /projects",
		httpx.Chain(http.HandlerFunc(projectsHandler.HandleList),
			r.authn(),
			anyRole,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("PATCH /projects/{id}",
		httpx.Chain(http.HandlerFunc(projectsHandler.HandleUpdate),
			r.authn(),
			httpx.RequireRole(domain.RoleAdmin.String()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("DELETE /projects/{id}",
		httpx.Chain(http.HandlerFunc(projectsHandler.HandleDelete),
			r.authn(),
			httpx.RequireRole(domain.RoleAdmin.String()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}

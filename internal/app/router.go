package app

import (
	"log/slog"
	"net/http"

	"github.com/heartmarshall/studyvault-backend/internal/auth"
	"github.com/heartmarshall/studyvault-backend/internal/config"
	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/internal/transport/middleware"
	"github.com/heartmarshall/studyvault-backend/internal/transport/rest"
)

// Handlers groups the REST handlers mounted by NewRouter.
type Handlers struct {
	Health     *rest.HealthHandler
	Workspace  *rest.WorkspaceHandler
	Moderation *rest.ModerationHandler
	Admin      *rest.AdminHandler
	Metrics    http.Handler
}

// RouterDeps are the cross-cutting pieces of the HTTP stack.
type RouterDeps struct {
	Config  *config.Config
	Logger  *slog.Logger
	Tokens  *auth.JWTManager
	Limiter *middleware.RateLimiter
}

// NewRouter mounts every endpoint on a ServeMux behind the common
// middleware chain.
func NewRouter(h Handlers, deps RouterDeps) http.Handler {
	cfg := deps.Config

	api := http.NewServeMux()

	api.HandleFunc("GET /api/v1/workspace/context", h.Workspace.Context)
	api.HandleFunc("GET /api/v1/catalog/{contentType}", h.Workspace.ListCatalog)
	api.HandleFunc("GET /api/v1/catalog/{contentType}/merged", h.Workspace.MergedCatalog)
	api.HandleFunc("GET /api/v1/datasets/{fileName}", h.Workspace.GetDataset)

	submit := http.Handler(http.HandlerFunc(h.Moderation.Submit))
	if n := cfg.RateLimit.SubmissionsPerMinute; n > 0 && deps.Limiter != nil {
		submit = deps.Limiter.LimitBy(n, middleware.TenantKey)(submit)
	}
	api.Handle("POST /api/v1/datasets", submit)
	api.HandleFunc("POST /api/v1/audit/{contentType}", h.Moderation.Audit)

	api.HandleFunc("GET /api/v1/inbox", h.Moderation.ListInbox)
	api.HandleFunc("GET /api/v1/inbox/{id}", h.Moderation.InboxDetail)
	api.HandleFunc("POST /api/v1/inbox/{id}/move-to-user", h.Moderation.MoveToUser)
	api.HandleFunc("POST /api/v1/inbox/{id}/move-to-shared", h.Moderation.MoveToShared)
	api.HandleFunc("POST /api/v1/inbox/{id}/reject", h.Moderation.Reject)
	api.HandleFunc("POST /api/v1/inbox/{id}/assign", h.Moderation.Assign)

	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	api.Handle("GET /api/v1/admin/workspaces", adminOnly(http.HandlerFunc(h.Admin.ListWorkspaces)))
	api.Handle("POST /api/v1/admin/workspaces", adminOnly(http.HandlerFunc(h.Admin.CreateWorkspace)))
	api.Handle("POST /api/v1/admin/workspaces/{id}/deactivate", adminOnly(http.HandlerFunc(h.Admin.DeactivateWorkspace)))
	api.Handle("PUT /api/v1/admin/workspaces/{id}/school", adminOnly(http.HandlerFunc(h.Admin.AssignSchool)))
	api.Handle("POST /api/v1/admin/schools", adminOnly(http.HandlerFunc(h.Admin.CreateSchool)))

	apiHandler := middleware.Chain(
		middleware.Recovery(deps.Logger),
		middleware.RequestID,
		middleware.Logger(deps.Logger),
		middleware.CORS(cfg.CORS),
		middleware.Auth(deps.Tokens),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)(api)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)
	if cfg.Metrics.Enabled && h.Metrics != nil {
		mux.Handle("GET "+cfg.Metrics.Path, h.Metrics)
	}
	mux.Handle("/api/", apiHandler)

	return mux
}

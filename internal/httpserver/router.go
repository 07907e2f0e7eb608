package httpserver

import (
	"database/sql"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"dronewatch/internal/admin"
	"dronewatch/internal/auth"
	"dronewatch/internal/ratelimit"
	"dronewatch/internal/reports"
)

// RouterParams groups the dependencies the router wires together.
type RouterParams struct {
	Logger         *slog.Logger
	DB             *sql.DB
	Issuer         *auth.Issuer
	AuthHandler    *auth.Handler
	ReportsHandler *reports.Handler
	AdminHandler   *admin.Handler
	AuthLimiter    *ratelimit.Limiter
	Metrics        *Metrics
	CORSOrigins    []string
}

func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	})
	r.Use(secureMiddleware.Handler)

	// Coarse per-IP guard across the whole API; the auth endpoints get
	// their own, much tighter fixed-window limiter below.
	r.Use(httprate.Limit(120, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))

	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Root health check includes database connectivity.
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		dbStatus := "connected"
		status := http.StatusOK
		if err := params.DB.PingContext(req.Context()); err != nil {
			params.Logger.Error("health check db ping", "err", err)
			dbStatus = "disconnected"
			status = http.StatusServiceUnavailable
		}
		auth.WriteJSON(w, status, map[string]interface{}{
			"status":    http.StatusText(status),
			"service":   "Drone Analytics API",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"database":  map[string]string{"status": dbStatus},
		})
	})

	verify := auth.Middleware(params.Issuer)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Group(func(pub chi.Router) {
				pub.Use(ratelimit.Middleware(params.AuthLimiter))
				params.AuthHandler.MountPublic(pub)
			})
			ar.Group(func(priv chi.Router) {
				priv.Use(verify)
				params.AuthHandler.MountProtected(priv)
			})
		})

		api.Group(func(sec chi.Router) {
			sec.Use(verify)
			params.ReportsHandler.MountRoutes(sec)
		})

		api.Route("/admin", func(adm chi.Router) {
			adm.Use(verify)
			adm.Use(auth.RequireRole(auth.RoleAdmin))
			params.AdminHandler.MountRoutes(adm)
		})
	})

	return withCORS(params.CORSOrigins, r)
}

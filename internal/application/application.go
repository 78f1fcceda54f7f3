package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"github.com/eugenenazirov/androfit/internal/api"
	"github.com/eugenenazirov/androfit/internal/appconfig"
	"github.com/eugenenazirov/androfit/internal/config"
	"github.com/eugenenazirov/androfit/internal/metrics"
	"github.com/eugenenazirov/androfit/internal/toast"
	"github.com/eugenenazirov/androfit/internal/web"
)

const sessionKeyLength = 32

// App encapsulates the application dependencies and HTTP server.
type App struct {
	store   *appconfig.Store
	toasts  *toast.SessionStore
	metrics *metrics.Metrics
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store, err := appconfig.NewStore(cfg.Branding)
	if err != nil {
		return nil, fmt.Errorf("failed to apply branding defaults: %w", err)
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(sessionKeyLength)
		if secret == nil {
			return nil, errors.New("failed to generate session secret")
		}
		logger.Warn("no session secret configured, pending toasts will not survive a restart")
	}
	toasts := toast.NewSessionStore(secret, cfg.SecureCookies)

	var m *metrics.Metrics
	if cfg.EnableMetrics {
		m = metrics.New()
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	apiHandler := api.NewHandler(toasts, api.WithMetrics(m), api.WithLogger(logger))
	apiRouter := api.NewRouter(apiHandler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	pages := web.NewHandler(renderer, toasts, authSettings(cfg.Auth), logger)

	rootHandler := BuildRootHandler(RootDeps{
		Store:          store,
		API:            apiRouter,
		Pages:          pages,
		Metrics:        m,
		Logger:         logger,
		RequestLogging: cfg.EnableRequestLogging,
		Resolve: web.ResolveOptions{
			AllowOverrides: cfg.AllowRequestOverrides,
			HeaderPrefix:   cfg.OverrideHeaderPrefix,
			Logger:         logger,
			Metrics:        m,
		},
	})

	return &App{
		store:   store,
		toasts:  toasts,
		metrics: m,
		router:  rootHandler,
		logger:  logger,
		server:  NewServer(cfg, rootHandler),
	}, nil
}

// RootDeps are the parts BuildRootHandler composes.
type RootDeps struct {
	Store          *appconfig.Store
	API            http.Handler
	Pages          *web.Handler
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
	RequestLogging bool
	Resolve        web.ResolveOptions
}

// BuildRootHandler constructs the root HTTP handler: config resolution and
// metrics for every request, the API under /api, /metrics, and the pages.
func BuildRootHandler(deps RootDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(deps.Metrics.Middleware)
	r.Use(web.ResolveConfig(deps.Store, deps.Resolve))

	r.Mount("/api", deps.API)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(api.RequestID)
		if deps.RequestLogging {
			r.Use(api.AccessLog(deps.Logger))
		}
		r.Use(api.Recover(deps.Logger))
		deps.Pages.Mount(r)
	})

	return r
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

func authSettings(cfg config.AuthConfig) web.AuthSettings {
	return web.AuthSettings{
		PublishableKey: cfg.PublishableKey,
		ScriptURL:      cfg.ScriptURL,
		SignInPath:     cfg.SignInPath,
		SignUpPath:     cfg.SignUpPath,
		AfterAuthURL:   cfg.AfterAuthURL,
	}
}

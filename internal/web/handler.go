package web

import (
	"bytes"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eugenenazirov/androfit/internal/appconfig"
	"github.com/eugenenazirov/androfit/internal/toast"
)

// Handler serves the HTML pages and static assets.
type Handler struct {
	renderer *Renderer
	toasts   *toast.SessionStore
	auth     AuthSettings
	static   fs.FS
	logger   *zap.Logger
}

// NewHandler wires the page handlers.
func NewHandler(renderer *Renderer, toasts *toast.SessionStore, auth AuthSettings, logger *zap.Logger) *Handler {
	return &Handler{
		renderer: renderer,
		toasts:   toasts,
		auth:     auth,
		static:   StaticFS(),
		logger:   logger,
	}
}

// Mount registers the page and asset routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/", h.page(PageHome))

	signIn := h.page(PageSignIn)
	r.Get(h.auth.SignInPath, signIn)
	r.Get(h.auth.SignInPath+"/*", signIn)

	signUp := h.page(PageSignUp)
	r.Get(h.auth.SignUpPath, signUp)
	r.Get(h.auth.SignUpPath+"/*", signUp)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(h.static)))
	r.Get("/logo.svg", h.asset("logo.svg"))
	r.Get("/logo-dark.svg", h.asset("logo-dark.svg"))
}

func (h *Handler) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := appconfig.FromContext(r.Context())

		pending, err := h.toasts.Pending(w, r)
		if err != nil {
			h.logger.Warn("failed to load pending toasts", zap.Error(err))
		}

		data := PageData{
			Config: cfg,
			Theme:  ThemeCSS(cfg),
			Toasts: pending,
			Auth:   h.auth,
		}

		var buf bytes.Buffer
		if err := h.renderer.Render(&buf, name, data); err != nil {
			h.logger.Error("failed to render page", zap.String("page", name), zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(buf.Bytes())
	}
}

func (h *Handler) asset(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, h.static, name)
	}
}

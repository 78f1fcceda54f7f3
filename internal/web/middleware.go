package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/eugenenazirov/androfit/internal/appconfig"
	"github.com/eugenenazirov/androfit/internal/metrics"
)

// ResolveOptions controls how ResolveConfig reads request overrides.
type ResolveOptions struct {
	// AllowOverrides enables header overrides; when false every request
	// renders with the store defaults.
	AllowOverrides bool
	HeaderPrefix   string
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

// ResolveConfig resolves the AppConfig for each request and stores it in the
// request context for handlers and templates.
func ResolveConfig(store *appconfig.Store, opts ResolveOptions) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var lookup appconfig.Lookup
			if opts.AllowOverrides {
				lookup = appconfig.HeaderLookup{Header: r.Header, Prefix: opts.HeaderPrefix}
			}

			cfg, report := store.ResolveWithReport(lookup)
			if len(report.Rejected) > 0 {
				logger.Debug("ignored invalid config overrides",
					zap.Strings("fields", report.Rejected),
					zap.String("path", r.URL.Path),
				)
			}
			opts.Metrics.RecordOverrides(report.Applied, report.Rejected)

			next.ServeHTTP(w, r.WithContext(appconfig.NewContext(r.Context(), cfg)))
		})
	}
}

package application

import (
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/androfit/internal/appconfig"
	"github.com/eugenenazirov/androfit/internal/config"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	cfg.Branding.CompanyName = "Pulse"
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if got := app.store.Defaults().CompanyName; got != "Pulse" {
		t.Fatalf("expected branding defaults to reach the store, got %q", got)
	}
	if app.server == nil || app.router == nil || app.toasts == nil || app.metrics == nil {
		t.Fatalf("expected server, router, toasts and metrics to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
}

func TestNewWithoutMetrics(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.EnableMetrics = false

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if app.metrics != nil {
		t.Fatalf("expected metrics to be disabled")
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestNewReturnsErrorForInvalidBranding(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.Branding.Accent = "not-a-color"

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for invalid branding")
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                  port,
		LogLevel:              "info",
		ShutdownGracePeriod:   50 * time.Millisecond,
		ReadHeaderTimeout:     20 * time.Millisecond,
		WriteTimeout:          30 * time.Millisecond,
		IdleTimeout:           40 * time.Millisecond,
		EnableRequestLogging:  false,
		EnableMetrics:         true,
		RateLimitRPS:          0,
		RateLimitBurst:        0,
		SessionSecret:         "application-test-secret-0123456789",
		AllowRequestOverrides: true,
		OverrideHeaderPrefix:  appconfig.DefaultHeaderPrefix,
		Auth: config.AuthConfig{
			PublishableKey: "pk_test_app",
			ScriptURL:      "https://auth.example.com/clerk.js",
			SignInPath:     "/sign-in",
			SignUpPath:     "/sign-up",
			AfterAuthURL:   "/",
		},
		Branding: appconfig.Builtin(),
	}
}

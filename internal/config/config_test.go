package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eugenenazirov/androfit/internal/appconfig"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "SESSION_SECRET", "OVERRIDE_HEADER_PREFIX", "AUTH_PUBLISHABLE_KEY"} {
		t.Setenv(key, "")
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if !cfg.AllowRequestOverrides || cfg.OverrideHeaderPrefix != appconfig.DefaultHeaderPrefix {
		t.Fatalf("expected request overrides enabled under the default prefix")
	}
	if cfg.Branding != appconfig.Builtin() {
		t.Fatalf("expected builtin branding, got %+v", cfg.Branding)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_RPS", "3.5")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("AUTH_PUBLISHABLE_KEY", "pk_test_123")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug level, got %s", cfg.LogLevel)
	}
	if cfg.RateLimitRPS != 3.5 {
		t.Fatalf("expected rps 3.5, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("expected malformed burst to be ignored, got %d", cfg.RateLimitBurst)
	}
	if cfg.Auth.PublishableKey != "pk_test_123" {
		t.Fatalf("expected publishable key from env, got %q", cfg.Auth.PublishableKey)
	}
}

func TestLoadYAMLOverridesEnvAndCLIOverridesYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")

	path := writeYAML(t, `
port: "7100"
log_level: warn
write_timeout: 3s
enable_request_logging: false
rate_limit:
  rps: 2
  burst: 4
overrides:
  enabled: false
  header_prefix: X-Brand-
auth:
  publishable_key: pk_live_abc
branding:
  companyName: Pulse Gym
  accent: "#ff0000"
`)

	port := "7200"
	cfg, err := Load(&CLIOverrides{ConfigFile: path, Port: &port})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7200" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.LogLevel != "warn" || cfg.WriteTimeout != 3*time.Second {
		t.Fatalf("expected YAML values, got level=%s write=%s", cfg.LogLevel, cfg.WriteTimeout)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging disabled from YAML")
	}
	if cfg.RateLimitRPS != 2 || cfg.RateLimitBurst != 4 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.AllowRequestOverrides || cfg.OverrideHeaderPrefix != "X-Brand-" {
		t.Fatalf("unexpected override settings: %v %q", cfg.AllowRequestOverrides, cfg.OverrideHeaderPrefix)
	}
	if cfg.Auth.PublishableKey != "pk_live_abc" || cfg.Auth.SignInPath != "/sign-in" {
		t.Fatalf("unexpected auth config: %+v", cfg.Auth)
	}
	if cfg.Branding.CompanyName != "Pulse Gym" || cfg.Branding.Accent != "#ff0000" {
		t.Fatalf("expected branding overlay, got %+v", cfg.Branding)
	}
	if cfg.Branding.AccentDark != appconfig.Builtin().AccentDark {
		t.Fatalf("expected untouched branding fields to keep defaults")
	}
}

func TestLoadPartialRateLimitSectionKeepsOtherValue(t *testing.T) {
	tests := []struct {
		name      string
		envRPS    string
		body      string
		wantRPS   float64
		wantBurst int
	}{
		{name: "burst only", body: "rate_limit:\n  burst: 100\n", wantRPS: defaultRateLimitRPS, wantBurst: 100},
		{name: "burst only over env rps", envRPS: "10", body: "rate_limit:\n  burst: 100\n", wantRPS: 10, wantBurst: 100},
		{name: "rps only", body: "rate_limit:\n  rps: 5\n", wantRPS: 5, wantBurst: defaultRateLimitBurst},
		{name: "explicit zero disables", body: "rate_limit:\n  rps: 0\n", wantRPS: 0, wantBurst: defaultRateLimitBurst},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			if tc.envRPS != "" {
				t.Setenv("RATE_LIMIT_RPS", tc.envRPS)
			}

			cfg, err := Load(&CLIOverrides{ConfigFile: writeYAML(t, tc.body)})
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if cfg.RateLimitRPS != tc.wantRPS || cfg.RateLimitBurst != tc.wantBurst {
				t.Fatalf("expected %v/%d, got %v/%d", tc.wantRPS, tc.wantBurst, cfg.RateLimitRPS, cfg.RateLimitBurst)
			}
		})
	}
}

func TestLoadRejectsInvalidBranding(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
branding:
  accent: blue
  tagline: hi
`)

	_, err := Load(&CLIOverrides{ConfigFile: path})
	if !errors.Is(err, appconfig.ErrInvalidValue) || !errors.Is(err, appconfig.ErrUnknownField) {
		t.Fatalf("expected branding validation errors, got %v", err)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := map[string]func(t *testing.T) *CLIOverrides{
		"log level": func(t *testing.T) *CLIOverrides {
			level := "loud"
			return &CLIOverrides{LogLevel: &level}
		},
		"short secret": func(t *testing.T) *CLIOverrides {
			t.Setenv("SESSION_SECRET", "short")
			return nil
		},
		"header prefix": func(t *testing.T) *CLIOverrides {
			prefix := "X Bad:"
			return &CLIOverrides{OverrideHeaderPrefix: &prefix}
		},
		"missing file": func(t *testing.T) *CLIOverrides {
			return &CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")}
		},
		"negative yaml rps": func(t *testing.T) *CLIOverrides {
			return &CLIOverrides{ConfigFile: writeYAML(t, "rate_limit:\n  rps: -1\n")}
		},
		"bad yaml": func(t *testing.T) *CLIOverrides {
			return &CLIOverrides{ConfigFile: writeYAML(t, "port: [unterminated")}
		},
	}

	for name, build := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			if _, err := Load(build(t)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestValidHeaderPrefix(t *testing.T) {
	if !validHeaderPrefix("X-Androfit-") {
		t.Fatalf("expected default prefix to be valid")
	}
	for _, bad := range []string{"", "X Androfit", "X-Androfit:", "Ünicode-"} {
		if validHeaderPrefix(bad) {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

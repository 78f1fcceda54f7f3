package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/androfit/internal/appconfig"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	minSessionSecretLen   = 32
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	LogLevel             string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	EnableMetrics        bool
	RateLimitRPS         float64
	RateLimitBurst       int

	// SessionSecret signs the toast cookie. Empty means a random key per
	// process, which drops pending toasts on restart.
	SessionSecret string
	SecureCookies bool

	AllowRequestOverrides bool
	OverrideHeaderPrefix  string

	Auth AuthConfig

	// Branding is the deployment default AppConfig: the compiled-in values
	// with the YAML branding section overlaid.
	Branding appconfig.AppConfig
}

// AuthConfig points the sign-in, sign-up and profile widgets at the external
// identity provider.
type AuthConfig struct {
	PublishableKey string
	ScriptURL      string
	SignInPath     string
	SignUpPath     string
	AfterAuthURL   string
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string            `yaml:"port"`
	LogLevel             string            `yaml:"log_level"`
	ShutdownGracePeriod  string            `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string            `yaml:"read_header_timeout"`
	WriteTimeout         string            `yaml:"write_timeout"`
	IdleTimeout          string            `yaml:"idle_timeout"`
	EnableRequestLogging *bool             `yaml:"enable_request_logging"`
	EnableMetrics        *bool             `yaml:"enable_metrics"`
	RateLimit            *yamlRateLimit    `yaml:"rate_limit"`
	Session              yamlSession       `yaml:"session"`
	Overrides            yamlOverrides     `yaml:"overrides"`
	Auth                 yamlAuth          `yaml:"auth"`
	Branding             map[string]string `yaml:"branding"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlSession struct {
	Secret        string `yaml:"secret"`
	SecureCookies *bool  `yaml:"secure_cookies"`
}

type yamlOverrides struct {
	Enabled      *bool  `yaml:"enabled"`
	HeaderPrefix string `yaml:"header_prefix"`
}

type yamlAuth struct {
	PublishableKey string `yaml:"publishable_key"`
	ScriptURL      string `yaml:"script_url"`
	SignInPath     string `yaml:"sign_in_path"`
	SignUpPath     string `yaml:"sign_up_path"`
	AfterAuthURL   string `yaml:"after_auth_url"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile           string
	Port                 *string
	LogLevel             *string
	RateLimitRPS         *float64
	RateLimitBurst       *int
	OverrideHeaderPrefix *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                  defaultPort,
		LogLevel:              defaultLogLevel,
		ShutdownGracePeriod:   10 * time.Second,
		ReadHeaderTimeout:     5 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
		EnableRequestLogging:  true,
		EnableMetrics:         true,
		RateLimitRPS:          defaultRateLimitRPS,
		RateLimitBurst:        defaultRateLimitBurst,
		AllowRequestOverrides: true,
		OverrideHeaderPrefix:  appconfig.DefaultHeaderPrefix,
		Auth: AuthConfig{
			ScriptURL:    "https://cdn.jsdelivr.net/npm/@clerk/clerk-js@5/dist/clerk.browser.js",
			SignInPath:   "/sign-in",
			SignUpPath:   "/sign-up",
			AfterAuthURL: "/",
		},
		Branding: appconfig.Builtin(),
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	durations := []struct {
		raw string
		dst *time.Duration
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		if v, err := time.ParseDuration(d.raw); err == nil {
			*d.dst = v
		}
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.EnableMetrics != nil {
		cfg.EnableMetrics = *yamlCfg.EnableMetrics
	}

	if rl := yamlCfg.RateLimit; rl != nil {
		if rl.RPS != nil {
			cfg.RateLimitRPS = *rl.RPS
		}
		if rl.Burst != nil {
			cfg.RateLimitBurst = *rl.Burst
		}
	}

	if yamlCfg.Session.Secret != "" {
		cfg.SessionSecret = yamlCfg.Session.Secret
	}
	if yamlCfg.Session.SecureCookies != nil {
		cfg.SecureCookies = *yamlCfg.Session.SecureCookies
	}

	if yamlCfg.Overrides.Enabled != nil {
		cfg.AllowRequestOverrides = *yamlCfg.Overrides.Enabled
	}
	if yamlCfg.Overrides.HeaderPrefix != "" {
		cfg.OverrideHeaderPrefix = yamlCfg.Overrides.HeaderPrefix
	}

	applyAuth(&cfg.Auth, yamlCfg.Auth)

	if len(yamlCfg.Branding) > 0 {
		branding, err := appconfig.Overlay(cfg.Branding, yamlCfg.Branding)
		if err != nil {
			return fmt.Errorf("branding: %w", err)
		}
		cfg.Branding = branding
	}

	return nil
}

func applyAuth(dst *AuthConfig, src yamlAuth) {
	if src.PublishableKey != "" {
		dst.PublishableKey = src.PublishableKey
	}
	if src.ScriptURL != "" {
		dst.ScriptURL = src.ScriptURL
	}
	if src.SignInPath != "" {
		dst.SignInPath = src.SignInPath
	}
	if src.SignUpPath != "" {
		dst.SignUpPath = src.SignUpPath
	}
	if src.AfterAuthURL != "" {
		dst.AfterAuthURL = src.AfterAuthURL
	}
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		cfg.SessionSecret = secret
	}

	if prefix := strings.TrimSpace(os.Getenv("OVERRIDE_HEADER_PREFIX")); prefix != "" {
		cfg.OverrideHeaderPrefix = prefix
	}

	if key := strings.TrimSpace(os.Getenv("AUTH_PUBLISHABLE_KEY")); key != "" {
		cfg.Auth.PublishableKey = key
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.OverrideHeaderPrefix != nil && *overrides.OverrideHeaderPrefix != "" {
		cfg.OverrideHeaderPrefix = *overrides.OverrideHeaderPrefix
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	var errs []error
	if cfg.RateLimitRPS < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be >= 0"))
	}
	if cfg.RateLimitBurst < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be >= 0"))
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	if cfg.SessionSecret != "" && len(cfg.SessionSecret) < minSessionSecretLen {
		errs = append(errs, fmt.Errorf("session secret must be at least %d bytes", minSessionSecretLen))
	}
	if !validHeaderPrefix(cfg.OverrideHeaderPrefix) {
		errs = append(errs, fmt.Errorf("invalid override header prefix %q", cfg.OverrideHeaderPrefix))
	}
	if !strings.HasPrefix(cfg.Auth.SignInPath, "/") || !strings.HasPrefix(cfg.Auth.SignUpPath, "/") {
		errs = append(errs, errors.New("auth paths must start with /"))
	}
	return errors.Join(errs...)
}

// validHeaderPrefix accepts header-token characters only.
func validHeaderPrefix(prefix string) bool {
	if prefix == "" {
		return false
	}
	for _, r := range prefix {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}

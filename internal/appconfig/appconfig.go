package appconfig

import (
	"errors"
	"fmt"
)

// AppConfig is the branding and feature-flag bundle used for a single render.
type AppConfig struct {
	CompanyName     string `json:"companyName"`
	PageTitle       string `json:"pageTitle"`
	PageDescription string `json:"pageDescription"`

	SupportsChatInput         bool `json:"supportsChatInput"`
	SupportsVideoInput        bool `json:"supportsVideoInput"`
	SupportsScreenShare       bool `json:"supportsScreenShare"`
	IsPreConnectBufferEnabled bool `json:"isPreConnectBufferEnabled"`

	Logo            string `json:"logo"`
	Accent          string `json:"accent"`
	LogoDark        string `json:"logoDark"`
	AccentDark      string `json:"accentDark"`
	StartButtonText string `json:"startButtonText"`
}

var builtin = AppConfig{
	CompanyName:     "AndrofitAI",
	PageTitle:       "AndrofitAI - Your Personal Fitness Coach",
	PageDescription: "An energetic, voice-interactive AI personal gym coach for personalized workout sessions",

	SupportsChatInput:         true,
	SupportsVideoInput:        true,
	SupportsScreenShare:       true,
	IsPreConnectBufferEnabled: true,

	Logo:            "/logo.svg",
	Accent:          "#3b82f6",
	LogoDark:        "/logo-dark.svg",
	AccentDark:      "#60a5fa",
	StartButtonText: "Start Workout",
}

// Builtin returns the compiled-in defaults.
func Builtin() AppConfig {
	return builtin
}

var (
	// ErrInvalidValue is returned when a configuration value fails validation.
	ErrInvalidValue = errors.New("invalid configuration value")
	// ErrUnknownField is returned when a key does not name an AppConfig field.
	ErrUnknownField = errors.New("unknown configuration field")
)

// Store holds the default AppConfig. It is never mutated after construction,
// so a single Store is shared by all requests without locking.
type Store struct {
	defaults AppConfig
}

// DefaultStore returns a Store backed by the compiled-in defaults.
func DefaultStore() *Store {
	return &Store{defaults: builtin}
}

// NewStore validates defaults and returns a Store serving them.
func NewStore(defaults AppConfig) (*Store, error) {
	var errs []error
	for _, f := range fields {
		if !f.valid(defaults) {
			errs = append(errs, fmt.Errorf("%w: default %s", ErrInvalidValue, f.key))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Store{defaults: defaults}, nil
}

// Defaults returns a copy of the default configuration.
func (s *Store) Defaults() AppConfig {
	return s.defaults
}

// Resolve merges overrides from lookup onto the store defaults.
func (s *Store) Resolve(lookup Lookup) AppConfig {
	return Resolve(s.defaults, lookup)
}

// ResolveWithReport is Resolve plus the list of applied and rejected keys.
func (s *Store) ResolveWithReport(lookup Lookup) (AppConfig, Report) {
	return ResolveWithReport(s.defaults, lookup)
}

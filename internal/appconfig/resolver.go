package appconfig

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Report lists the override keys a resolution applied and rejected.
type Report struct {
	Applied  []string
	Rejected []string
}

// Resolve merges the overrides found in lookup onto defaults. Absent and
// invalid overrides keep the default value; a default that is itself invalid
// is replaced by the compiled-in value, so the result is always complete.
func Resolve(defaults AppConfig, lookup Lookup) AppConfig {
	cfg, _ := ResolveWithReport(defaults, lookup)
	return cfg
}

// ResolveWithReport behaves like Resolve and also reports which keys were
// applied and which were rejected.
func ResolveWithReport(defaults AppConfig, lookup Lookup) (AppConfig, Report) {
	cfg := complete(defaults)
	var report Report
	if lookup == nil {
		return cfg, report
	}

	for _, f := range fields {
		raw := lookup.Get(f.key)
		if raw == "" {
			continue
		}
		if f.apply(&cfg, raw) {
			report.Applied = append(report.Applied, f.key)
		} else {
			report.Rejected = append(report.Rejected, f.key)
		}
	}
	return cfg, report
}

// Overlay applies values onto base the way Resolve does, but returns every
// unknown key and invalid value joined into one error. It is meant for
// deployment-time branding, where a typo should stop startup.
func Overlay(base AppConfig, values map[string]string) (AppConfig, error) {
	cfg := complete(base)
	var errs []error

	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f.key] = struct{}{}
	}
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if _, ok := known[key]; !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownField, key))
		}
	}

	for _, f := range fields {
		raw, ok := values[f.key]
		if !ok {
			continue
		}
		if !f.apply(&cfg, raw) {
			errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalidValue, f.key, raw))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func complete(cfg AppConfig) AppConfig {
	for _, f := range fields {
		if f.valid(cfg) {
			continue
		}
		*f.text(&cfg) = *f.text(&builtin)
	}
	return cfg
}

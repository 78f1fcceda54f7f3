// Package toast dispatches transient alert notifications. The Dispatcher
// assigns identity and lifetime; drawing, stacking and dismissal are left to
// the Sink and the client-side script that renders it.
package toast

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultDuration is how long a toast stays visible unless dismissed.
const DefaultDuration = 10 * time.Second

// Text limits, in runes. Longer input is truncated by the Dispatcher.
const (
	MaxTitleRunes       = 100
	MaxDescriptionRunes = 300
)

const fallbackTitle = "Notice"

// ErrNoSink is returned when a Dispatcher has nowhere to present toasts.
var ErrNoSink = errors.New("toast: no sink configured")

// ID identifies a displayed toast.
type ID string

// Toast is a single dismissible alert.
type Toast struct {
	ID          ID            `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	Duration    time.Duration `json:"duration"`
}

// ExpiresAt is the instant the toast auto-dismisses.
func (t Toast) ExpiresAt() time.Time {
	return t.CreatedAt.Add(t.Duration)
}

// Expired reports whether the toast is no longer visible at now.
func (t Toast) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt())
}

// DurationMillis is the duration in milliseconds, as the client script expects.
func (t Toast) DurationMillis() int64 {
	return t.Duration.Milliseconds()
}

// Sink presents toasts to the user.
type Sink interface {
	Present(Toast) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Toast) error

// Present calls f(t).
func (f SinkFunc) Present(t Toast) error {
	return f(t)
}

// Dispatcher builds toasts and hands them to a Sink.
type Dispatcher struct {
	sink     Sink
	clock    clockwork.Clock
	newID    func() ID
	policy   *bluemonday.Policy
	duration time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// WithIDGenerator overrides how toast identifiers are minted.
func WithIDGenerator(fn func() ID) Option {
	return func(d *Dispatcher) {
		d.newID = fn
	}
}

// NewDispatcher returns a Dispatcher presenting toasts through sink.
func NewDispatcher(sink Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sink:     sink,
		clock:    clockwork.NewRealClock(),
		newID:    func() ID { return ID(uuid.NewString()) },
		policy:   bluemonday.StrictPolicy(),
		duration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Display presents a toast and returns its identifier. Every call yields a
// new identifier, even for identical content. On a sink failure the
// identifier is still returned together with the error.
func (d *Dispatcher) Display(title, description string) (ID, error) {
	t, err := d.Dispatch(title, description)
	return t.ID, err
}

// Dispatch is Display returning the full toast.
func (d *Dispatcher) Dispatch(title, description string) (Toast, error) {
	t := Toast{
		ID:          d.newID(),
		Title:       d.plain(title, MaxTitleRunes),
		Description: d.plain(description, MaxDescriptionRunes),
		CreatedAt:   d.clock.Now().UTC(),
		Duration:    d.duration,
	}
	if t.Title == "" {
		t.Title = fallbackTitle
	}

	if d.sink == nil {
		return t, ErrNoSink
	}
	if err := d.sink.Present(t); err != nil {
		return t, fmt.Errorf("present toast %s: %w", t.ID, err)
	}
	return t, nil
}

// plain strips markup and control characters, leaving text that templates
// escape on output, cut to at most maxRunes.
func (d *Dispatcher) plain(s string, maxRunes int) string {
	s = html.UnescapeString(d.policy.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.In(r, unicode.Zl, unicode.Zp) {
			return ' '
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:maxRunes]))
}

package toast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
)

const (
	sessionName   = "androfit_toasts"
	sessionMaxAge = 5 * 60

	// cookieMaxLength is the securecookie limit on the encoded value.
	cookieMaxLength = 4096
	// maxPendingToasts and maxPendingBytes bound the queued JSON payloads so
	// the signed, base64-wrapped cookie stays under cookieMaxLength.
	maxPendingToasts = 5
	maxPendingBytes  = 1900
)

// ErrToastTooLarge is returned when a single toast cannot fit in the cookie.
var ErrToastTooLarge = errors.New("toast: encoded toast exceeds cookie budget")

// SessionStore carries pending toasts between requests as flash messages in
// a signed cookie, so a toast raised by an API call shows on the next render.
type SessionStore struct {
	store sessions.Store
	clock clockwork.Clock
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionClock overrides the clock used to drop expired toasts.
func WithSessionClock(clock clockwork.Clock) SessionOption {
	return func(s *SessionStore) {
		s.clock = clock
	}
}

// NewSessionStore returns a cookie-backed store signed with secret.
func NewSessionStore(secret []byte, secure bool, opts ...SessionOption) *SessionStore {
	cs := sessions.NewCookieStore(secret)
	cs.MaxLength(cookieMaxLength)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	s := &SessionStore{
		store: cs,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sink returns a Sink bound to one request/response pair. It must be used
// before the response header is written. When the queue is full the oldest
// pending toasts are dropped.
func (s *SessionStore) Sink(w http.ResponseWriter, r *http.Request) Sink {
	return SinkFunc(func(t Toast) error {
		payload, err := encodeToast(t)
		if err != nil {
			return err
		}
		if len(payload) > maxPendingBytes {
			return fmt.Errorf("%w: %d bytes", ErrToastTooLarge, len(payload))
		}

		sess, err := s.session(r)
		if err != nil {
			return err
		}
		queue := append(s.live(sess.Flashes()), payload)
		for _, p := range trimQueue(queue) {
			sess.AddFlash(p)
		}
		if err := sess.Save(r, w); err != nil {
			return fmt.Errorf("save toast session: %w", err)
		}
		return nil
	})
}

// live returns the raw payloads of flashes that still decode and have not
// expired.
func (s *SessionStore) live(flashes []any) []string {
	now := s.clock.Now()
	out := make([]string, 0, len(flashes))
	for _, raw := range flashes {
		if t, ok := decodeToast(raw); ok && !t.Expired(now) {
			out = append(out, raw.(string))
		}
	}
	return out
}

// trimQueue drops the oldest payloads until the queue fits both the count
// and byte budgets. The newest payload is always kept.
func trimQueue(queue []string) []string {
	total := 0
	for _, p := range queue {
		total += len(p)
	}
	for len(queue) > 1 && (len(queue) > maxPendingToasts || total > maxPendingBytes) {
		total -= len(queue[0])
		queue = queue[1:]
	}
	return queue
}

func encodeToast(t Toast) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(t); err != nil {
		return "", fmt.Errorf("encode toast: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func decodeToast(raw any) (Toast, bool) {
	payload, ok := raw.(string)
	if !ok {
		return Toast{}, false
	}
	var t Toast
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return Toast{}, false
	}
	return t, true
}

// Pending pops the toasts queued for this client, dropping expired and
// unreadable entries.
func (s *SessionStore) Pending(w http.ResponseWriter, r *http.Request) ([]Toast, error) {
	sess, err := s.session(r)
	if err != nil {
		return nil, err
	}

	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil, nil
	}

	now := s.clock.Now()
	pending := make([]Toast, 0, len(flashes))
	for _, raw := range flashes {
		t, ok := decodeToast(raw)
		if !ok || t.Expired(now) {
			continue
		}
		pending = append(pending, t)
	}

	if err := sess.Save(r, w); err != nil {
		return pending, fmt.Errorf("save toast session: %w", err)
	}
	return pending, nil
}

// session loads the toast session. A cookie that no longer decodes (rotated
// secret, tampering) yields a fresh session instead of an error.
func (s *SessionStore) session(r *http.Request) (*sessions.Session, error) {
	sess, err := s.store.Get(r, sessionName)
	if err == nil {
		return sess, nil
	}

	var scErr securecookie.Error
	if errors.As(err, &scErr) && scErr.IsDecode() && sess != nil {
		return sess, nil
	}
	return nil, fmt.Errorf("load toast session: %w", err)
}

// Package session persists the bearer credential and cached user profile
// across restarts, and signals credential changes to whoever needs to
// react (the realtime channel above all).
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/beanbar-pos/client/internal/enum"
	"github.com/beanbar-pos/client/internal/gateway"
)

// Profile is the cached user identity.
type Profile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the persisted client-side auth state.
type Session struct {
	Token string   `json:"token"`
	User  *Profile `json:"user,omitempty"`
}

// Store holds the session in memory and mirrors it to disk. It satisfies
// gateway.CredentialSource.
type Store struct {
	mu       sync.Mutex
	path     string
	session  Session
	watchers []chan string
	log      zerolog.Logger

	now func() time.Time
}

var _ gateway.CredentialSource = (*Store)(nil)

// NewStore creates a session store backed by the given file path. An
// empty path defaults to a file under the user config dir.
func NewStore(path string, log zerolog.Logger) (*Store, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("session path: %w", err)
		}
		path = filepath.Join(dir, "beanbar", "session.json")
	}
	return &Store{path: path, log: log, now: time.Now}, nil
}

// Load reads a previously persisted session. A missing file simply means
// no session.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	s.broadcast()
	return nil
}

// SetCredential stores the token and profile from a successful login and
// persists them.
func (s *Store) SetCredential(token string, user *Profile) error {
	s.mu.Lock()
	s.session = Session{Token: token, User: user}
	err := s.persistLocked()
	s.mu.Unlock()
	s.broadcast()
	return err
}

// Clear wipes the session (logout).
func (s *Store) Clear() error {
	s.mu.Lock()
	s.session = Session{}
	err := s.persistLocked()
	s.mu.Unlock()
	s.broadcast()
	return err
}

// Credential returns the current bearer token, or "" when there is none.
// Tokens that parse as JWTs with an elapsed expiry count as absent; the
// client never holds the signing secret, so the claim is read unverified.
func (s *Store) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := s.session.Token
	if tok == "" {
		return ""
	}
	if expired(tok, s.now()) {
		return ""
	}
	return tok
}

// User returns the cached profile, if any.
func (s *Store) User() *Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.User == nil {
		return nil
	}
	u := *s.session.User
	return &u
}

// Role returns the cached user's role, defaulting to customer when no
// profile is cached.
func (s *Store) Role() string {
	if u := s.User(); u != nil && u.Role != "" {
		return u.Role
	}
	return enum.RoleCustomer
}

// Watch returns a credential-change feed primed with the current token.
// Each send carries the latest token ("" for none); intermediate values
// may be skipped, which is exactly what a level-triggered consumer wants.
func (s *Store) Watch() <-chan string {
	ch := make(chan string, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	tok := s.session.Token
	s.mu.Unlock()

	if tok != "" && expired(tok, s.now()) {
		tok = ""
	}
	ch <- tok
	return ch
}

func (s *Store) broadcast() {
	tok := s.Credential()
	s.mu.Lock()
	watchers := append([]chan string(nil), s.watchers...)
	s.mu.Unlock()
	for _, ch := range watchers {
		// keep only the latest level in the buffer
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- tok:
		default:
		}
	}
}

func (s *Store) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	data, err := json.MarshalIndent(s.session, "", "  ")
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// expired reports whether tok is a JWT with an elapsed exp claim. Tokens
// that are not JWTs are treated as opaque and never expire client-side.
func expired(tok string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(now)
}

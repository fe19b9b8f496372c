// Package auth manages the authenticated session and the identity
// providers behind it.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
	"github.com/Veraticus/paddy/internal/service"
)

// User-facing authentication messages.
const (
	MsgInvalidCredential = "Invalid email or password."
	MsgPasswordMismatch  = "Passwords do not match."
	MsgGoogleLogin       = "Google login failed. Please try again."
	MsgGoogleSignUp      = "Google sign-up failed. Please try again."
)

// Mode selects between the login and registration forms.
type Mode int

// Modes of the authentication form.
const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// sessionValidator is implemented by providers that can check a restored
// session without a network call.
type sessionValidator interface {
	ValidateSession(identity *model.Identity) error
}

// Store holds the current identity and the form mode.
type Store struct {
	provider    service.AuthProvider
	current     *model.Identity
	now         func() time.Time
	sessionFile string
	mode        Mode
	mu          sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithSessionFile persists the identity to path so later processes share it.
func WithSessionFile(path string) Option {
	return func(s *Store) {
		s.sessionFile = path
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a logged-out session store.
func NewStore(provider service.AuthProvider, opts ...Option) *Store {
	s := &Store{
		provider: provider,
		now:      time.Now,
		mode:     ModeLogin,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login signs in with an email and password.
func (s *Store) Login(ctx context.Context, cred model.Credential) (*model.Identity, error) {
	cred.Email = strings.TrimSpace(cred.Email)
	if cred.Email == "" || cred.Password == "" {
		return nil, common.NewUserError(MsgInvalidCredential, common.ErrInvalidCredential)
	}

	identity, err := s.provider.SignIn(ctx, cred)
	if err != nil {
		if !errors.Is(err, common.ErrInvalidCredential) {
			err = fmt.Errorf("%w: %w", common.ErrInvalidCredential, err)
		}
		slog.Debug("Sign-in failed", "email", cred.Email, "error", err)
		return nil, common.NewUserError(MsgInvalidCredential, err)
	}

	s.establish(identity)
	return identity, nil
}

// Register creates an account and signs it in. A confirmation that does not
// match the password fails before the provider is contacted.
func (s *Store) Register(ctx context.Context, cred model.Credential, confirmPassword string) (*model.Identity, error) {
	if cred.Password != confirmPassword {
		return nil, common.NewUserError(MsgPasswordMismatch, common.ErrPasswordMismatch)
	}
	cred.Email = strings.TrimSpace(cred.Email)

	identity, err := s.provider.SignUp(ctx, cred)
	if err != nil {
		var regErr *common.RegistrationError
		if !errors.As(err, &regErr) {
			regErr = &common.RegistrationError{Err: err, Detail: err.Error()}
		}
		slog.Debug("Registration failed", "email", cred.Email, "error", err)
		return nil, common.NewUserError("Registration failed. "+regErr.Detail, regErr)
	}

	s.establish(identity)
	return identity, nil
}

// LoginWithProvider runs the Google flow. The failure message depends on
// whether the form is in login or registration mode.
func (s *Store) LoginWithProvider(ctx context.Context) (*model.Identity, error) {
	message := MsgGoogleLogin
	if s.Mode() == ModeRegister {
		message = MsgGoogleSignUp
	}

	identity, err := s.provider.SignInWithGoogle(ctx)
	if err != nil {
		if !errors.Is(err, common.ErrProviderFailed) {
			err = fmt.Errorf("%w: %w", common.ErrProviderFailed, err)
		}
		slog.Debug("Google sign-in failed", "error", err)
		return nil, common.NewUserError(message, err)
	}

	s.establish(identity)
	return identity, nil
}

// Logout clears the session. It always succeeds locally; provider and
// session file errors are only logged.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	identity := s.current
	s.current = nil
	s.mu.Unlock()

	if identity != nil {
		if err := s.provider.SignOut(ctx, identity); err != nil {
			slog.Warn("Provider sign-out failed", "provider", s.provider.Name(), "error", err)
		}
	}
	s.removeSession()
}

// Current returns the signed-in identity, or nil when logged out or the
// session has expired.
func (s *Store) Current() *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || s.current.Expired(s.now()) {
		return nil
	}
	identity := *s.current
	return &identity
}

// Mode returns the current form mode.
func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// ToggleMode switches between login and registration and returns the new mode.
func (s *Store) ToggleMode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeLogin {
		s.mode = ModeRegister
	} else {
		s.mode = ModeLogin
	}
	return s.mode
}

// Restore loads a persisted session. It returns nil without error when there
// is no usable session.
func (s *Store) Restore(_ context.Context) (*model.Identity, error) {
	if s.sessionFile == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.sessionFile) // #nosec G304
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var identity model.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		slog.Warn("Discarding unreadable session file", "file", s.sessionFile, "error", err)
		s.removeSession()
		return nil, nil
	}

	switch {
	case identity.Provider != s.provider.Name():
		slog.Debug("Ignoring session from another provider", "provider", identity.Provider)
		return nil, nil
	case identity.Expired(s.now()):
		slog.Info("Saved session has expired", "email", identity.Email)
		s.removeSession()
		return nil, nil
	}

	if validator, ok := s.provider.(sessionValidator); ok {
		if err := validator.ValidateSession(&identity); err != nil {
			slog.Warn("Discarding invalid session", "error", err)
			s.removeSession()
			return nil, nil
		}
	}

	s.mu.Lock()
	s.current = &identity
	s.mu.Unlock()

	out := identity
	return &out, nil
}

func (s *Store) establish(identity *model.Identity) {
	s.mu.Lock()
	stored := *identity
	s.current = &stored
	s.mu.Unlock()

	slog.Info("Signed in", "email", identity.Email, "provider", identity.Provider)

	if err := s.saveSession(identity); err != nil {
		slog.Warn("Failed to save session", "file", s.sessionFile, "error", err)
	}
}

func (s *Store) saveSession(identity *model.Identity) error {
	if s.sessionFile == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.sessionFile), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	f, err := os.OpenFile(s.sessionFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(identity); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return nil
}

func (s *Store) removeSession() {
	if s.sessionFile == "" {
		return
	}
	if err := os.Remove(s.sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to remove session file", "file", s.sessionFile, "error", err)
	}
}

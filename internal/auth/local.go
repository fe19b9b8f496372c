package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
	"github.com/Veraticus/paddy/internal/service"
)

// ProviderLocal is the name of the SQLite-backed provider.
const ProviderLocal = "local"

// Sign-in methods recorded on local accounts.
const (
	methodPassword = "password"
	methodGoogle   = "google.com"
)

const minPasswordLength = 6

// LocalProvider keeps accounts in the local database.
type LocalProvider struct {
	users  service.UserStore
	tokens *TokenIssuer
	google GoogleFlow
	now    func() time.Time
	cost   int
}

// NewLocalProvider creates a provider over users. google may be nil.
func NewLocalProvider(users service.UserStore, tokens *TokenIssuer, google GoogleFlow) *LocalProvider {
	return &LocalProvider{
		users:  users,
		tokens: tokens,
		google: google,
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
	}
}

// Name implements service.AuthProvider.
func (p *LocalProvider) Name() string {
	return ProviderLocal
}

// SignIn checks the password against the stored bcrypt hash.
func (p *LocalProvider) SignIn(ctx context.Context, cred model.Credential) (*model.Identity, error) {
	user, err := p.users.GetUserByEmail(ctx, cred.Email)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: no account for %s", common.ErrInvalidCredential, cred.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidCredential, err)
	}
	if user.PasswordHash == "" {
		return nil, fmt.Errorf("%w: %s signs in with Google", common.ErrInvalidCredential, cred.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cred.Password)); err != nil {
		return nil, fmt.Errorf("%w: password mismatch", common.ErrInvalidCredential)
	}
	return p.issue(user)
}

// SignUp creates an account and signs it in.
func (p *LocalProvider) SignUp(ctx context.Context, cred model.Credential) (*model.Identity, error) {
	email := strings.TrimSpace(cred.Email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, &common.RegistrationError{Err: err, Detail: registrationDetails["INVALID_EMAIL"]}
	}
	if len(cred.Password) < minPasswordLength {
		return nil, &common.RegistrationError{Detail: registrationDetails["WEAK_PASSWORD"]}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), p.cost)
	if err != nil {
		return nil, &common.RegistrationError{Err: err, Detail: "Password could not be stored."}
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Provider:     methodPassword,
		CreatedAt:    p.now(),
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return nil, &common.RegistrationError{Err: err, Detail: registrationDetails["EMAIL_EXISTS"]}
		}
		return nil, &common.RegistrationError{Err: err, Detail: "The account could not be saved."}
	}

	slog.Info("Registered local account", "email", email)
	return p.issue(user)
}

// SignInWithGoogle signs in the Google account's verified email, creating a
// local account on first use. Unverified emails are refused since they would
// otherwise match password accounts they do not own.
func (p *LocalProvider) SignInWithGoogle(ctx context.Context) (*model.Identity, error) {
	if p.google == nil {
		return nil, fmt.Errorf("%w: Google sign-in is not configured", common.ErrProviderFailed)
	}

	account, err := p.google.Authorize(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrProviderFailed, err)
	}
	if !account.Verified {
		return nil, fmt.Errorf("%w: Google has not verified %s", common.ErrProviderFailed, account.Email)
	}

	user, err := p.users.GetUserByEmail(ctx, account.Email)
	if errors.Is(err, common.ErrNotFound) {
		user = &model.User{
			ID:        uuid.NewString(),
			Email:     account.Email,
			Provider:  methodGoogle,
			CreatedAt: p.now(),
		}
		if err := p.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrProviderFailed, err)
		}
		slog.Info("Registered Google account", "email", account.Email)
	} else if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrProviderFailed, err)
	}

	return p.issue(user)
}

// SignOut has nothing to revoke for local sessions.
func (p *LocalProvider) SignOut(context.Context, *model.Identity) error {
	return nil
}

// ValidateSession verifies a restored session token.
func (p *LocalProvider) ValidateSession(identity *model.Identity) error {
	claims, err := p.tokens.Verify(identity.IDToken)
	if err != nil {
		return err
	}
	if claims.Subject != identity.UserID {
		return errors.New("session token subject does not match identity")
	}
	return nil
}

func (p *LocalProvider) issue(user *model.User) (*model.Identity, error) {
	token, expires, err := p.tokens.Issue(user, ProviderLocal)
	if err != nil {
		return nil, err
	}
	return &model.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		Provider:  ProviderLocal,
		IDToken:   token,
		ExpiresAt: expires,
	}, nil
}

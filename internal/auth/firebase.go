package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
)

// ProviderFirebase is the name of the Firebase Authentication provider.
const ProviderFirebase = "firebase"

// registrationDetails maps Identity Toolkit error codes to readable text.
var registrationDetails = map[string]string{
	"EMAIL_EXISTS":                "The email address is already in use by another account.",
	"INVALID_EMAIL":               "The email address is badly formatted.",
	"MISSING_EMAIL":               "The email address is badly formatted.",
	"WEAK_PASSWORD":               "Password should be at least 6 characters.",
	"MISSING_PASSWORD":            "Password should be at least 6 characters.",
	"OPERATION_NOT_ALLOWED":       "Email/password accounts are not enabled.",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "Too many attempts. Try again later.",
}

// FirebaseProvider signs users in with Firebase Authentication.
type FirebaseProvider struct {
	rp     *identitytoolkit.RelyingpartyService
	google GoogleFlow
}

// NewFirebaseProvider creates a provider for the project owning apiKey.
// google may be nil, in which case Google sign-in is unavailable.
func NewFirebaseProvider(ctx context.Context, apiKey string, google GoogleFlow, opts ...option.ClientOption) (*FirebaseProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: firebase.api_key is required", common.ErrMissingConfig)
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit client: %w", err)
	}

	return &FirebaseProvider{rp: svc.Relyingparty, google: google}, nil
}

// Name implements service.AuthProvider.
func (p *FirebaseProvider) Name() string {
	return ProviderFirebase
}

// SignIn verifies an email and password.
func (p *FirebaseProvider) SignIn(ctx context.Context, cred model.Credential) (*model.Identity, error) {
	resp, err := p.rp.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             cred.Email,
		Password:          cred.Password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrInvalidCredential, apiErrorCode(err))
	}
	return p.identity(resp.LocalId, resp.Email, resp.IdToken)
}

// SignUp creates an account and signs it in.
func (p *FirebaseProvider) SignUp(ctx context.Context, cred model.Credential) (*model.Identity, error) {
	resp, err := p.rp.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    cred.Email,
		Password: cred.Password,
	}).Context(ctx).Do()
	if err != nil {
		code := apiErrorCode(err)
		return nil, &common.RegistrationError{Err: err, Detail: registrationDetail(code)}
	}

	if resp.IdToken == "" {
		// Older projects do not return tokens from signup.
		return p.SignIn(ctx, cred)
	}
	return p.identity(resp.LocalId, resp.Email, resp.IdToken)
}

// SignInWithGoogle exchanges a Google ID token for a Firebase session,
// creating the Firebase account on first use.
func (p *FirebaseProvider) SignInWithGoogle(ctx context.Context) (*model.Identity, error) {
	if p.google == nil {
		return nil, fmt.Errorf("%w: Google sign-in is not configured", common.ErrProviderFailed)
	}

	account, err := p.google.Authorize(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrProviderFailed, err)
	}

	postBody := url.Values{}
	postBody.Set("id_token", account.IDToken)
	postBody.Set("providerId", "google.com")

	resp, err := p.rp.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          postBody.Encode(),
		RequestUri:        "http://localhost",
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrProviderFailed, apiErrorCode(err))
	}

	email := resp.Email
	if email == "" {
		email = account.Email
	}
	return p.identity(resp.LocalId, email, resp.IdToken)
}

// SignOut is local for Firebase; ID tokens expire on their own.
func (p *FirebaseProvider) SignOut(_ context.Context, identity *model.Identity) error {
	if identity != nil {
		slog.Debug("Discarding Firebase session", "user", identity.UserID)
	}
	return nil
}

func (p *FirebaseProvider) identity(localID, email, idToken string) (*model.Identity, error) {
	if idToken == "" {
		return nil, errors.New("identity toolkit returned no ID token")
	}
	expires, err := tokenExpiry(idToken)
	if err != nil {
		return nil, err
	}
	return &model.Identity{
		UserID:    localID,
		Email:     email,
		Provider:  ProviderFirebase,
		IDToken:   idToken,
		ExpiresAt: expires,
	}, nil
}

// apiErrorCode extracts the Identity Toolkit error code, such as
// "EMAIL_EXISTS" from "EMAIL_EXISTS" or "WEAK_PASSWORD : Password should...".
func apiErrorCode(err error) string {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	code, _, _ := strings.Cut(apiErr.Message, " : ")
	return strings.TrimSpace(code)
}

func registrationDetail(code string) string {
	if detail, ok := registrationDetails[code]; ok {
		return detail
	}
	return code
}

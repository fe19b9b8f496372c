package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/Veraticus/paddy/internal/common"
)

const (
	callbackPath        = "/callback"
	defaultOAuthTimeout = 5 * time.Minute
)

// GoogleAccount is the outcome of a completed Google consent flow.
type GoogleAccount struct {
	Subject string
	Email   string
	IDToken string
	// Verified reports whether Google has verified Email.
	Verified bool
}

// GoogleFlow obtains a Google account from the user.
type GoogleFlow interface {
	Authorize(ctx context.Context) (*GoogleAccount, error)
}

// OAuthConfig configures the browser consent flow.
type OAuthConfig struct {
	// OpenURL opens the consent page. When nil the URL is only logged.
	OpenURL      func(url string) error
	Endpoint     oauth2.Endpoint
	ClientID     string
	ClientSecret string
	// UserinfoOptions are passed to the userinfo client.
	UserinfoOptions []option.ClientOption
	CallbackPort    int
	Timeout         time.Duration
}

// OAuthFlow runs the installed-app flow with a loopback callback listener.
type OAuthFlow struct {
	cfg OAuthConfig
}

// NewOAuthFlow creates a Google consent flow.
func NewOAuthFlow(cfg OAuthConfig) (*OAuthFlow, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: google.client_id and google.client_secret are required for Google sign-in", common.ErrMissingConfig)
	}
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = google.Endpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultOAuthTimeout
	}
	return &OAuthFlow{cfg: cfg}, nil
}

// Authorize opens the consent page, waits for the callback, exchanges the
// code, and looks up the account's email.
func (f *OAuthFlow) Authorize(ctx context.Context) (*GoogleAccount, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", f.cfg.CallbackPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	oauthConfig := &oauth2.Config{
		ClientID:     f.cfg.ClientID,
		ClientSecret: f.cfg.ClientSecret,
		Endpoint:     f.cfg.Endpoint,
		RedirectURL:  fmt.Sprintf("http://127.0.0.1:%d%s", port, callbackPath),
		Scopes:       []string{"openid", oauth2api.UserinfoEmailScope},
	}

	state := uuid.NewString()
	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.Handle(callbackPath, callbackHandler(state, codeChan, errorChan))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(errorChan, fmt.Errorf("callback server failed: %w", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Error shutting down callback server", "error", err)
		}
	}()

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	slog.Info("Google sign-in required, waiting for browser consent", "url", authURL)
	if f.cfg.OpenURL != nil {
		if err := f.cfg.OpenURL(authURL); err != nil {
			slog.Debug("Failed to open browser", "error", err)
		}
	}

	var code string
	select {
	case code = <-codeChan:
		slog.Debug("Received authorization code")
	case err := <-errorChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.cfg.Timeout):
		return nil, fmt.Errorf("authentication timeout - no response received within %s", f.cfg.Timeout)
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, errors.New("token response carried no id_token")
	}

	opts := append([]option.ClientOption{option.WithTokenSource(oauthConfig.TokenSource(ctx, token))}, f.cfg.UserinfoOptions...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Google account: %w", err)
	}
	if info.Email == "" {
		return nil, errors.New("google account has no email address")
	}

	return &GoogleAccount{
		Subject:  info.Id,
		Email:    info.Email,
		IDToken:  idToken,
		Verified: info.VerifiedEmail != nil && *info.VerifiedEmail,
	}, nil
}

func callbackHandler(state string, codes chan<- string, errs chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		var err error
		switch {
		case query.Get("error") != "":
			err = fmt.Errorf("authorization denied: %s", query.Get("error"))
		case query.Get("state") != state:
			err = errors.New("authorization state mismatch")
		case query.Get("code") == "":
			err = errors.New("no authorization code received")
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err != nil {
			sendErr(errs, err)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprint(w, `<html><body>
				<h1>Authentication Failed</h1>
				<p>Please return to the terminal and try again.</p>
			</body></html>`)
			return
		}

		select {
		case codes <- query.Get("code"):
		default:
		}
		_, _ = fmt.Fprint(w, `<html><body>
			<h1>Authentication Successful!</h1>
			<p>You can close this window and return to the terminal.</p>
			<script>window.setTimeout(function(){window.close();}, 3000);</script>
		</body></html>`)
	}
}

func sendErr(errs chan<- error, err error) {
	select {
	case errs <- err:
	default:
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"google.golang.org/api/option"

	"github.com/Veraticus/paddy/internal/auth"
	"github.com/Veraticus/paddy/internal/config"
	"github.com/Veraticus/paddy/internal/firestore"
	"github.com/Veraticus/paddy/internal/form"
	"github.com/Veraticus/paddy/internal/predict"
	"github.com/Veraticus/paddy/internal/service"
	"github.com/Veraticus/paddy/internal/storage"
	"github.com/Veraticus/paddy/internal/workflow"
)

// envKeyReplacer maps nested keys such as prediction.base_url onto
// PADDY_PREDICTION_BASE_URL.
var envKeyReplacer = strings.NewReplacer(".", "_")

// app holds the wired components shared by every command.
type app struct {
	settings *config.Settings
	session  *auth.Store
	workflow *workflow.Workflow
	db       *storage.SQLiteStorage
}

// newApp loads settings from viper and wires the session store, predictor,
// and history backend into a workflow.
func newApp(ctx context.Context, v *viper.Viper) (*app, error) {
	settings, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	a := &app{settings: settings}
	if settings.NeedsDatabase() {
		a.db, err = initStorage(ctx, settings.Database.Path)
		if err != nil {
			return nil, err
		}
	}

	provider, err := a.initProvider(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	history, err := a.initHistory(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	predictor, err := predict.NewClient(predict.Config{
		BaseURL:     settings.Prediction.BaseURL,
		ImagePath:   settings.Prediction.ImagePath,
		TabularPath: settings.Prediction.TabularPath,
		Timeout:     settings.Prediction.Timeout,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.session = auth.NewStore(provider, auth.WithSessionFile(settings.Auth.SessionFile))
	a.workflow = workflow.New(a.session, form.NewManager(), predictor, history)

	slog.Debug("Application initialized",
		"auth_provider", settings.Auth.Provider,
		"history_backend", settings.History.Backend,
		"prediction_url", settings.Prediction.BaseURL)

	return a, nil
}

// Close releases the database, if one was opened.
func (a *app) Close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

func (a *app) initProvider(ctx context.Context) (service.AuthProvider, error) {
	google := a.initGoogleFlow()

	switch a.settings.Auth.Provider {
	case config.ProviderFirebase:
		return auth.NewFirebaseProvider(ctx, a.settings.Firebase.APIKey, google)
	default:
		key, err := signingKey(a.settings.Auth.SigningKey)
		if err != nil {
			return nil, err
		}
		tokens, err := auth.NewTokenIssuer(key, auth.DefaultSessionTTL)
		if err != nil {
			return nil, err
		}
		return auth.NewLocalProvider(a.db, tokens, google), nil
	}
}

// initGoogleFlow returns nil when no OAuth client is configured; the
// providers then report Google sign-in as unavailable.
func (a *app) initGoogleFlow() auth.GoogleFlow {
	flow, err := auth.NewOAuthFlow(auth.OAuthConfig{
		ClientID:     a.settings.Google.ClientID,
		ClientSecret: a.settings.Google.ClientSecret,
		CallbackPort: a.settings.Google.CallbackPort,
		OpenURL:      openBrowser,
	})
	if err != nil {
		slog.Debug("Google sign-in disabled", "reason", err)
		return nil
	}
	return flow
}

func (a *app) initHistory(ctx context.Context) (service.HistoryStore, error) {
	if a.settings.History.Backend != config.BackendFirestore {
		return a.db, nil
	}

	var opts []option.ClientOption
	if a.settings.Firestore.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(a.settings.Firestore.CredentialsFile))
	}
	return firestore.New(ctx, firestore.Config{
		ProjectID:  a.settings.Firestore.ProjectID,
		Database:   a.settings.Firestore.Database,
		Collection: a.settings.Firestore.Collection,
	}, opts...)
}

// initStorage opens the SQLite database and brings its schema up to date.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// signingKey decodes a configured key or falls back to the key file in the
// data directory.
func signingKey(configured string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	return auth.LoadOrCreateKey(filepath.Join(config.DataDir(), "signing.key"))
}

// openBrowser tries to open the URL in the default browser.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:gosec
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:gosec
	case "darwin":
		cmd = exec.Command("open", url) //nolint:gosec
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
	return cmd.Start()
}

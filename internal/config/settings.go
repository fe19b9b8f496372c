package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/spf13/viper"
)

// Supported auth providers and history backends.
const (
	ProviderLocal    = "local"
	ProviderFirebase = "firebase"

	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Settings is the typed view of the application configuration.
type Settings struct {
	Firestore  FirestoreSettings
	Prediction PredictionSettings
	Auth       AuthSettings
	Google     GoogleSettings
	Firebase   FirebaseSettings
	History    HistorySettings
	Database   DatabaseSettings
	Sheets     SheetsSettings
}

// PredictionSettings locates the prediction endpoints.
type PredictionSettings struct {
	BaseURL     string
	ImagePath   string
	TabularPath string
	Timeout     time.Duration
}

// AuthSettings selects and configures the identity provider.
type AuthSettings struct {
	Provider    string
	SessionFile string
	SigningKey  string
}

// GoogleSettings holds the OAuth2 client used for "Sign in with Google".
type GoogleSettings struct {
	ClientID     string
	ClientSecret string
	CallbackPort int
}

// FirebaseSettings holds the web API key of the Firebase project.
type FirebaseSettings struct {
	APIKey string
}

// HistorySettings selects where prediction records are stored.
type HistorySettings struct {
	Backend string
}

// DatabaseSettings locates the local SQLite database.
type DatabaseSettings struct {
	Path string
}

// FirestoreSettings locates the prediction collection in Cloud Firestore.
type FirestoreSettings struct {
	ProjectID       string
	Database        string
	Collection      string
	CredentialsFile string
}

// SheetsSettings configures exporting history to Google Sheets. OAuth
// exports reuse the Google client ID and secret.
type SheetsSettings struct {
	SpreadsheetID      string
	SpreadsheetName    string
	ServiceAccountFile string
	RefreshToken       string
	TimeZone           string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("prediction.base_url", "http://localhost:8000")
	v.SetDefault("prediction.image_path", "/predict-image/")
	v.SetDefault("prediction.tabular_path", "/predict-tabular/")
	v.SetDefault("prediction.timeout", 60*time.Second)

	v.SetDefault("auth.provider", ProviderLocal)
	v.SetDefault("auth.session_file", filepath.Join(DataDir(), "session.json"))

	v.SetDefault("google.callback_port", 8085)

	v.SetDefault("history.backend", BackendSQLite)
	v.SetDefault("database.path", filepath.Join(DataDir(), "paddy.db"))

	v.SetDefault("firestore.database", "(default)")
	v.SetDefault("firestore.collection", "predictions")

	v.SetDefault("sheets.spreadsheet_name", "Rice Predictions")
	v.SetDefault("sheets.time_zone", "UTC")
}

// Load reads Settings from v. Values missing from the config file fall back
// to well-known environment variables before validation.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Prediction: PredictionSettings{
			BaseURL:     v.GetString("prediction.base_url"),
			ImagePath:   v.GetString("prediction.image_path"),
			TabularPath: v.GetString("prediction.tabular_path"),
			Timeout:     v.GetDuration("prediction.timeout"),
		},
		Auth: AuthSettings{
			Provider:    v.GetString("auth.provider"),
			SessionFile: ExpandPath(v.GetString("auth.session_file")),
			SigningKey:  v.GetString("auth.signing_key"),
		},
		Google: GoogleSettings{
			ClientID:     v.GetString("google.client_id"),
			ClientSecret: v.GetString("google.client_secret"),
			CallbackPort: v.GetInt("google.callback_port"),
		},
		Firebase: FirebaseSettings{
			APIKey: v.GetString("firebase.api_key"),
		},
		History: HistorySettings{
			Backend: v.GetString("history.backend"),
		},
		Database: DatabaseSettings{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Firestore: FirestoreSettings{
			ProjectID:       v.GetString("firestore.project_id"),
			Database:        v.GetString("firestore.database"),
			Collection:      v.GetString("firestore.collection"),
			CredentialsFile: ExpandPath(v.GetString("firestore.credentials_file")),
		},
		Sheets: SheetsSettings{
			SpreadsheetID:      v.GetString("sheets.spreadsheet_id"),
			SpreadsheetName:    v.GetString("sheets.spreadsheet_name"),
			ServiceAccountFile: ExpandPath(v.GetString("sheets.service_account_file")),
			RefreshToken:       v.GetString("sheets.refresh_token"),
			TimeZone:           v.GetString("sheets.time_zone"),
		},
	}

	// Override with direct environment variables if not set
	if s.Google.ClientID == "" {
		s.Google.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if s.Google.ClientSecret == "" {
		s.Google.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if s.Firebase.APIKey == "" {
		s.Firebase.APIKey = os.Getenv("FIREBASE_API_KEY")
	}
	if s.Firestore.ProjectID == "" {
		s.Firestore.ProjectID = os.Getenv("FIREBASE_PROJECT_ID")
	}
	if s.Firestore.CredentialsFile == "" {
		s.Firestore.CredentialsFile = ExpandPath(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	u, err := url.Parse(s.Prediction.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: prediction.base_url %q is not an absolute URL", common.ErrInvalidConfig, s.Prediction.BaseURL)
	}
	if s.Prediction.Timeout < 0 {
		return fmt.Errorf("%w: prediction.timeout must not be negative", common.ErrInvalidConfig)
	}

	switch s.Auth.Provider {
	case ProviderLocal:
	case ProviderFirebase:
		if s.Firebase.APIKey == "" {
			return fmt.Errorf("%w: firebase.api_key is required for the firebase provider", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown auth.provider %q", common.ErrInvalidConfig, s.Auth.Provider)
	}

	switch s.History.Backend {
	case BackendSQLite:
		if s.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for the sqlite backend", common.ErrMissingConfig)
		}
	case BackendFirestore:
		if s.Firestore.ProjectID == "" {
			return fmt.Errorf("%w: firestore.project_id is required for the firestore backend", common.ErrMissingConfig)
		}
		if s.Firestore.Collection == "" {
			return fmt.Errorf("%w: firestore.collection must not be empty", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown history.backend %q", common.ErrInvalidConfig, s.History.Backend)
	}

	return nil
}

// NeedsDatabase reports whether any component needs the local SQLite file.
func (s *Settings) NeedsDatabase() bool {
	return s.History.Backend == BackendSQLite || s.Auth.Provider == ProviderLocal
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/paddy/internal/auth"
	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/config"
	"github.com/Veraticus/paddy/internal/model"
	"github.com/Veraticus/paddy/internal/workflow"
)

// predictionServer answers both endpoints and counts requests.
type predictionServer struct {
	*httptest.Server
	imageCalls   atomic.Int32
	tabularCalls atomic.Int32
	status       int
}

func newPredictionServer(t *testing.T) *predictionServer {
	t.Helper()
	ps := &predictionServer{status: http.StatusOK}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var message string
		switch r.URL.Path {
		case "/predict-image/":
			ps.imageCalls.Add(1)
			message = "Healthy"
		case "/predict-tabular/":
			ps.tabularCalls.Add(1)
			var sample model.TabularSample
			if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			message = "Blast"
		default:
			http.NotFound(w, r)
			return
		}
		if ps.status != http.StatusOK {
			w.WriteHeader(ps.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
	}))
	t.Cleanup(ps.Close)
	return ps
}

// setupTestEnv points the global viper at a temporary data directory, a
// local provider, and the sqlite backend.
func setupTestEnv(t *testing.T, predictURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	t.Setenv("FIREBASE_API_KEY", "")
	t.Setenv("FIREBASE_PROJECT_ID", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	viper.Reset()
	t.Cleanup(viper.Reset)
	config.SetDefaults(viper.GetViper())
	viper.Set("prediction.base_url", predictURL)
	viper.Set("database.path", filepath.Join(dir, "paddy.db"))
	viper.Set("auth.session_file", filepath.Join(dir, "session.json"))
	return dir
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func register(t *testing.T, email string) {
	t.Helper()
	out, err := execute(t, registerCmd(), "hunter22\nhunter22\n", "--email", email)
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as "+email)
}

func tabularArgs() []string {
	return []string{
		"--max-temp", "34", "--min-temp", "24", "--temp", "29",
		"--precipitation", "12.5", "--soil-ph", "6.2", "--humidity", "80",
	}
}

func TestEndToEnd_RegisterPredictHistoryLogout(t *testing.T) {
	srv := newPredictionServer(t)
	dir := setupTestEnv(t, srv.URL)

	register(t, "farmer@example.com")

	out, err := execute(t, whoamiCmd(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "farmer@example.com")

	image := filepath.Join(dir, "leaf.jpg")
	require.NoError(t, os.WriteFile(image, []byte("\xff\xd8\xff\xe0fake jpeg"), 0600))

	out, err = execute(t, predictCmd(), "", "image", image)
	require.NoError(t, err)
	assert.Contains(t, out, "Healthy")

	out, err = execute(t, predictCmd(), "", append([]string{"tabular"}, tabularArgs()...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Blast")

	out, err = execute(t, historyCmd(), "", "--json")
	require.NoError(t, err)

	var records []model.PredictionRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)

	byType := map[model.PredictionType]model.PredictionRecord{}
	for _, r := range records {
		byType[r.Type] = r
	}
	assert.Equal(t, "Healthy", byType[model.PredictionImage].Result)
	assert.Nil(t, byType[model.PredictionImage].Data)
	require.NotNil(t, byType[model.PredictionTabular].Data)
	assert.InDelta(t, 6.2, byType[model.PredictionTabular].Data.SoilPH, 1e-9)

	_, err = execute(t, logoutCmd(), "")
	require.NoError(t, err)

	_, err = execute(t, whoamiCmd(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
}

func TestLogin_WithSavedAccount(t *testing.T) {
	srv := newPredictionServer(t)
	setupTestEnv(t, srv.URL)

	register(t, "farmer@example.com")
	_, err := execute(t, logoutCmd(), "")
	require.NoError(t, err)

	out, err := execute(t, loginCmd(), "farmer@example.com\n", "--password", "hunter22")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as farmer@example.com")

	_, err = execute(t, loginCmd(), "", "--email", "farmer@example.com", "--password", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, auth.MsgInvalidCredential, common.UserMessage(err, ""))
}

func TestRegister_PasswordMismatch(t *testing.T) {
	srv := newPredictionServer(t)
	setupTestEnv(t, srv.URL)

	_, err := execute(t, registerCmd(), "hunter22\nhunter23\n", "--email", "farmer@example.com")

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPasswordMismatch)
	assert.Equal(t, auth.MsgPasswordMismatch, common.UserMessage(err, ""))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	srv := newPredictionServer(t)
	setupTestEnv(t, srv.URL)

	register(t, "farmer@example.com")

	_, err := execute(t, registerCmd(), "hunter22\nhunter22\n", "--email", "farmer@example.com")

	require.Error(t, err)
	var regErr *common.RegistrationError
	assert.ErrorAs(t, err, &regErr)
	assert.True(t, strings.HasPrefix(common.UserMessage(err, ""), "Registration failed."))
}

func TestLogin_GoogleNotConfigured(t *testing.T) {
	srv := newPredictionServer(t)
	setupTestEnv(t, srv.URL)

	_, err := execute(t, loginCmd(), "", "--google")

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrProviderFailed)
	assert.Equal(t, auth.MsgGoogleLogin, common.UserMessage(err, ""))
}

func TestPredict_NotLoggedIn(t *testing.T) {
	srv := newPredictionServer(t)
	setupTestEnv(t, srv.URL)

	_, err := execute(t, predictCmd(), "", append([]string{"tabular"}, tabularArgs()...)...)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
	assert.Zero(t, srv.tabularCalls.Load())
}

func TestPredictTabular_InvalidField(t *testing.T) {
	srv := newPredictionServer(t)
	setupTestEnv(t, srv.URL)
	register(t, "farmer@example.com")

	args := []string{"tabular", "--max-temp", "34", "--min-temp", "24", "--temp", "29",
		"--precipitation", "12.5", "--soil-ph", "acidic", "--humidity", "80"}
	_, err := execute(t, predictCmd(), "", args...)

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidField)
	assert.Equal(t, "Invalid value for Soil pH.", common.UserMessage(err, ""))
	assert.Zero(t, srv.tabularCalls.Load())
}

func TestPredictImage_ServerError(t *testing.T) {
	srv := newPredictionServer(t)
	srv.status = http.StatusInternalServerError
	dir := setupTestEnv(t, srv.URL)
	register(t, "farmer@example.com")

	image := filepath.Join(dir, "leaf.png")
	require.NoError(t, os.WriteFile(image, []byte("\x89PNG fake"), 0600))

	_, err := execute(t, predictCmd(), "", "image", image)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransport)
	assert.Equal(t, workflow.MsgImageFailed, common.UserMessage(err, ""))

	out, err := execute(t, historyCmd(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "No predictions yet.")
}

func TestPredictImage_UnreadableFile(t *testing.T) {
	srv := newPredictionServer(t)
	dir := setupTestEnv(t, srv.URL)
	register(t, "farmer@example.com")

	_, err := execute(t, predictCmd(), "", "image", filepath.Join(dir, "missing.jpg"))

	require.Error(t, err)
	assert.Equal(t, "Could not read the selected image.", common.UserMessage(err, ""))
	assert.Zero(t, srv.imageCalls.Load())
}

func TestHistory_Empty(t *testing.T) {
	srv := newPredictionServer(t)
	setupTestEnv(t, srv.URL)
	register(t, "farmer@example.com")

	out, err := execute(t, historyCmd(), "", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestMigrate(t *testing.T) {
	srv := newPredictionServer(t)
	setupTestEnv(t, srv.URL)

	out, err := execute(t, migrateCmd(), "", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 0")

	out, err = execute(t, migrateCmd(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "Database is at schema version")

	out, err = execute(t, migrateCmd(), "", "--status")
	require.NoError(t, err)
	assert.NotContains(t, out, "schema version 0 ")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, versionCmd(), "")
	require.NoError(t, err)
	assert.Equal(t, "paddy dev\n", out)
}

func TestHistoryExport_NotConfigured(t *testing.T) {
	srv := newPredictionServer(t)
	setupTestEnv(t, srv.URL)
	register(t, "farmer@example.com")

	_, err := execute(t, historyCmd(), "", "export")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no authentication method configured")
}

func TestSheetsConfigFrom(t *testing.T) {
	base := config.Settings{
		Google: config.GoogleSettings{ClientID: "client", ClientSecret: "secret"},
		Sheets: config.SheetsSettings{SpreadsheetName: "Field 7", TimeZone: "Asia/Manila", RefreshToken: "refresh"},
	}

	t.Run("oauth", func(t *testing.T) {
		cfg := sheetsConfigFrom(&base)
		assert.Equal(t, "client", cfg.ClientID)
		assert.Equal(t, "secret", cfg.ClientSecret)
		assert.Equal(t, "refresh", cfg.RefreshToken)
		assert.Equal(t, "Field 7", cfg.SpreadsheetName)
		assert.Equal(t, "Asia/Manila", cfg.TimeZone)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("service account wins", func(t *testing.T) {
		s := base
		s.Sheets.ServiceAccountFile = "/keys/sa.json"
		cfg := sheetsConfigFrom(&s)
		assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
		assert.Empty(t, cfg.RefreshToken)
		assert.NoError(t, cfg.Validate())
	})
}

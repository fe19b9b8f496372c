package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/paddy/internal/auth"
	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/form"
	"github.com/Veraticus/paddy/internal/model"
	"github.com/Veraticus/paddy/internal/service"
	"github.com/Veraticus/paddy/internal/workflow"
)

type stubProvider struct {
	expires  time.Time
	password string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) SignIn(_ context.Context, cred model.Credential) (*model.Identity, error) {
	if cred.Password != p.password {
		return nil, common.ErrInvalidCredential
	}
	return &model.Identity{UserID: "u1", Email: cred.Email, Provider: "stub", ExpiresAt: p.expires}, nil
}

func (p *stubProvider) SignUp(ctx context.Context, cred model.Credential) (*model.Identity, error) {
	p.password = cred.Password
	return p.SignIn(ctx, cred)
}

func (p *stubProvider) SignInWithGoogle(context.Context) (*model.Identity, error) {
	return nil, errors.New("popup closed")
}

func (p *stubProvider) SignOut(context.Context, *model.Identity) error { return nil }

type stubPredictor struct {
	err error
}

func (p *stubPredictor) SubmitImage(context.Context, *model.ImageAsset) (*service.Prediction, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &service.Prediction{Message: "Predicted disease: Leaf Blast"}, nil
}

func (p *stubPredictor) SubmitTabular(context.Context, model.TabularSample) (*service.Prediction, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &service.Prediction{Message: "Predicted condition: Healthy"}, nil
}

type stubHistory struct {
	records []model.PredictionRecord
	mu      sync.Mutex
}

func (h *stubHistory) Append(_ context.Context, r model.PredictionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *stubHistory) FetchAll(context.Context) ([]model.PredictionRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.PredictionRecord(nil), h.records...), nil
}

type fixture struct {
	clock     time.Time
	predictor *stubPredictor
	history   *stubHistory
	model     Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:     time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC),
		predictor: &stubPredictor{},
		history:   &stubHistory{},
	}
	provider := &stubProvider{password: "secret1", expires: f.clock.Add(time.Hour)}
	session := auth.NewStore(provider, auth.WithClock(func() time.Time { return f.clock }))
	wf := workflow.New(session, form.NewManager(), f.predictor, f.history)
	f.model = New(context.Background(), wf, WithSize(400, 80), WithTimeout(5*time.Second))
	return f
}

// send feeds msg to the model and runs any resulting workflow effects.
func (f *fixture) send(t *testing.T, msg tea.Msg) {
	t.Helper()
	next, cmd := f.model.Update(msg)
	f.model = next.(Model)
	f.drain(t, cmd)
}

func (f *fixture) drain(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			f.drain(t, c)
		}
	case actionMsg:
		f.send(t, msg)
	}
}

func (f *fixture) typeText(t *testing.T, s string) {
	t.Helper()
	f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (f *fixture) press(t *testing.T, k tea.KeyType) {
	t.Helper()
	f.send(t, tea.KeyMsg{Type: k})
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	f.typeText(t, "farmer@example.com")
	f.press(t, tea.KeyTab)
	f.typeText(t, "secret1")
	f.press(t, tea.KeyEnter)
	require.True(t, f.model.State().Authenticated())
}

func TestModel_LoginFailureShowsMessage(t *testing.T) {
	f := newFixture(t)
	f.typeText(t, "farmer@example.com")
	f.press(t, tea.KeyEnter) // moves to password
	f.typeText(t, "wrong")
	f.press(t, tea.KeyEnter)

	assert.False(t, f.model.State().Authenticated())
	assert.Contains(t, f.model.View(), "Invalid email or password.")
}

func TestModel_LoginShowsMainScreen(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	view := f.model.View()
	assert.Contains(t, view, "signed in as farmer@example.com")
	assert.Contains(t, view, "Environmental data")
	assert.Contains(t, view, "Press ctrl+p to load past predictions.")
}

func TestModel_RegisterMismatch(t *testing.T) {
	f := newFixture(t)
	f.press(t, tea.KeyCtrlT)
	assert.Contains(t, f.model.View(), "Register")

	f.typeText(t, "new@example.com")
	f.press(t, tea.KeyTab)
	f.typeText(t, "secret1")
	f.press(t, tea.KeyTab)
	f.typeText(t, "secret2")
	f.press(t, tea.KeyEnter)

	assert.False(t, f.model.State().Authenticated())
	assert.Contains(t, f.model.View(), "Passwords do not match.")
}

func TestModel_GoogleFailure(t *testing.T) {
	f := newFixture(t)
	f.press(t, tea.KeyCtrlG)
	assert.Contains(t, f.model.View(), "Google login failed. Please try again.")
}

func TestModel_ImageWithoutFile(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.press(t, tea.KeyEnter)

	assert.Contains(t, f.model.View(), "Please upload an image.")
	assert.Empty(t, f.history.records)
}

func TestModel_ImageSubmission(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	path := filepath.Join(t.TempDir(), "leaf.jpg")
	require.NoError(t, os.WriteFile(path, []byte("\xff\xd8\xff\xe0"), 0600))
	f.typeText(t, path)
	f.press(t, tea.KeyEnter)

	state := f.model.State()
	assert.Equal(t, "leaf.jpg", state.FileName)
	assert.Equal(t, "Predicted disease: Leaf Blast", state.Message)
	assert.False(t, state.Busy())
	require.Len(t, f.history.records, 1)
	assert.Equal(t, model.PredictionImage, f.history.records[0].Type)
}

func TestModel_TabularSubmissionAndHistory(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	for _, v := range []string{"33.5", "24.1", "28.7", "0", "6.2", "81"} {
		f.press(t, tea.KeyTab)
		f.typeText(t, v)
	}
	f.press(t, tea.KeyEnter)
	assert.Equal(t, "Predicted condition: Healthy", f.model.State().Message)

	f.press(t, tea.KeyCtrlP)
	view := f.model.View()
	assert.Contains(t, view, "[Tabular] Predicted condition: Healthy")
	assert.Contains(t, view, "Soil pH 6.2")
}

func TestModel_TabularFailure(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.predictor.err = common.ErrTransport

	for _, v := range []string{"1", "2", "3", "4", "5", "6"} {
		f.press(t, tea.KeyTab)
		f.typeText(t, v)
	}
	f.press(t, tea.KeyEnter)

	assert.Contains(t, f.model.View(), "Error processing tabular data.")
	assert.Empty(t, f.history.records)
}

func TestModel_SecondSubmitWhileSubmitting(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	next, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	f.model = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, f.model.State().Submitting(workflow.FormImage))

	next, second := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	f.model = next.(Model)
	assert.Nil(t, second)
	assert.Equal(t, workflow.MsgInFlight, f.model.State().Message)

	f.drain(t, cmd)
	assert.False(t, f.model.State().Submitting(workflow.FormImage))
}

func TestModel_LogoutClearsForm(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.press(t, tea.KeyTab)
	f.typeText(t, "33.5")

	f.press(t, tea.KeyCtrlO)
	assert.False(t, f.model.State().Authenticated())
	assert.Contains(t, f.model.View(), "Login")

	f.login(t)
	for _, ti := range f.model.formInputs {
		assert.Empty(t, ti.Value())
	}
	assert.Empty(t, f.model.wf.Form().Values()[model.FieldMaximumTemperature])
}

func TestModel_BackspaceDoesNotFetchHistory(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.typeText(t, "leaf")

	// Many terminals send ctrl+h for backspace.
	f.press(t, tea.KeyCtrlH)
	assert.Equal(t, "lea", f.model.formInputs[inputImage].Value())
	assert.False(t, f.model.State().HistoryLoaded)
}

func TestModel_ExpiredSessionShowsLogin(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	for _, v := range []string{"33.5", "24.1", "28.7", "0", "6.2", "81"} {
		f.press(t, tea.KeyTab)
		f.typeText(t, v)
	}

	f.clock = f.clock.Add(2 * time.Hour)
	f.press(t, tea.KeyEnter)

	assert.False(t, f.model.State().Authenticated())
	view := f.model.View()
	assert.Contains(t, view, "Login")
	assert.Contains(t, view, workflow.MsgSessionExpired)
	assert.Empty(t, f.history.records)
	for _, ti := range f.model.formInputs {
		assert.Empty(t, ti.Value())
	}

	f.login(t)
	assert.True(t, f.model.State().Authenticated())
}

func TestModel_Quit(t *testing.T) {
	f := newFixture(t)
	next, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, next.View())
}

func TestFormatRecord(t *testing.T) {
	record := model.PredictionRecord{
		Type:   model.PredictionTabular,
		Result: "Healthy",
		Data:   &model.TabularSample{MaximumTemperature: 33.5, SoilPH: 6.2},
	}
	line := FormatRecord(record)
	assert.Contains(t, line, "[Tabular] Healthy")
	assert.Contains(t, line, "Max Temperature 33.5")
	assert.Contains(t, line, "Soil pH 6.2")

	assert.Equal(t, "[Image] Leaf Blast", FormatRecord(model.PredictionRecord{Type: model.PredictionImage, Result: "Leaf Blast"}))
}

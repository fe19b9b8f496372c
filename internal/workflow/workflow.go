package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/paddy/internal/auth"
	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/form"
	"github.com/Veraticus/paddy/internal/model"
	"github.com/Veraticus/paddy/internal/service"
)

// User-facing messages.
const (
	MsgMissingImage   = "Please upload an image."
	MsgImageFailed    = "Error processing the image."
	MsgTabularFailed  = "Error processing tabular data."
	MsgPersistFailed  = "Prediction could not be saved to history."
	MsgHistoryFailed  = "Could not load past predictions."
	MsgInFlight       = "A submission is already in progress."
	MsgNotLoggedIn    = "Please log in first."
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgUnreadableFile = "Could not read the selected image."
)

// Session is the authentication state the workflow drives.
type Session interface {
	Login(ctx context.Context, cred model.Credential) (*model.Identity, error)
	Register(ctx context.Context, cred model.Credential, confirmPassword string) (*model.Identity, error)
	LoginWithProvider(ctx context.Context) (*model.Identity, error)
	Logout(ctx context.Context)
	Restore(ctx context.Context) (*model.Identity, error)
	Current() *model.Identity
	Mode() auth.Mode
	ToggleMode() auth.Mode
}

// Workflow runs the effects of the prediction client and reports each
// outcome as an Action.
type Workflow struct {
	session   Session
	form      *form.Manager
	predictor service.Predictor
	history   service.HistoryStore
	now       func() time.Time
	newID     func() string
	inFlight  [2]bool
	mu        sync.Mutex
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithClock overrides the timestamp source for new records.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		w.now = now
	}
}

// WithIDGenerator overrides how record IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(w *Workflow) {
		w.newID = newID
	}
}

// New creates a workflow over its collaborators.
func New(session Session, fm *form.Manager, predictor service.Predictor, history service.HistoryStore, opts ...Option) *Workflow {
	w := &Workflow{
		session:   session,
		form:      fm,
		predictor: predictor,
		history:   history,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Form returns the form state the workflow submits from.
func (w *Workflow) Form() *form.Manager {
	return w.form
}

// Initial returns the state to start from, restoring a saved session.
func (w *Workflow) Initial(ctx context.Context) State {
	state := State{Mode: w.session.Mode()}
	identity, err := w.session.Restore(ctx)
	if err != nil {
		slog.Warn("Failed to restore session", "error", err)
		return state
	}
	if identity == nil {
		return state
	}
	return Reduce(state, LoginSucceeded{Identity: identity})
}

// Login signs in with an email and password.
func (w *Workflow) Login(ctx context.Context, cred model.Credential) Action {
	identity, err := w.session.Login(ctx, cred)
	if err != nil {
		return AuthFailed{Message: common.UserMessage(err, auth.MsgInvalidCredential), Err: err}
	}
	return LoginSucceeded{Identity: identity}
}

// Register creates an account and signs it in.
func (w *Workflow) Register(ctx context.Context, cred model.Credential, confirmPassword string) Action {
	identity, err := w.session.Register(ctx, cred, confirmPassword)
	if err != nil {
		return AuthFailed{Message: common.UserMessage(err, "Registration failed."), Err: err}
	}
	return LoginSucceeded{Identity: identity}
}

// LoginWithProvider runs the Google sign-in flow.
func (w *Workflow) LoginWithProvider(ctx context.Context) Action {
	identity, err := w.session.LoginWithProvider(ctx)
	if err != nil {
		return AuthFailed{Message: common.UserMessage(err, auth.MsgGoogleLogin), Err: err}
	}
	return LoginSucceeded{Identity: identity}
}

// ToggleMode switches between the login and registration forms.
func (w *Workflow) ToggleMode() Action {
	return ModeToggled{Mode: w.session.ToggleMode()}
}

// Logout ends the session and clears the form.
func (w *Workflow) Logout(ctx context.Context) Action {
	w.session.Logout(ctx)
	w.form.Reset()
	return LoggedOut{}
}

// expire ends a session that lapsed without a logout, such as an expired
// token, so the views fall back to the login screen.
func (w *Workflow) expire(ctx context.Context) Action {
	w.session.Logout(ctx)
	w.form.Reset()
	slog.Info("Session expired, returning to login")
	return SessionExpired{Message: MsgSessionExpired, Err: common.ErrNotLoggedIn}
}

// SelectImage loads the image at path into the form.
func (w *Workflow) SelectImage(path string) Action {
	if err := w.form.SelectImage(path); err != nil {
		slog.Debug("Image selection failed", "path", path, "error", err)
		return SubmitRejected{Form: FormImage, Message: common.UserMessage(err, MsgUnreadableFile), Err: err}
	}
	return ImageSelected{FileName: w.form.Image().Name}
}

// SubmitImage sends the selected image for prediction and records the result.
func (w *Workflow) SubmitImage(ctx context.Context) Action {
	if !w.acquire(FormImage) {
		return SubmitRejected{Form: FormImage, Message: MsgInFlight, Err: common.ErrSubmissionInFlight}
	}
	defer w.release(FormImage)

	if w.session.Current() == nil {
		return w.expire(ctx)
	}

	asset := w.form.Image()
	if asset.Empty() {
		return SubmitSettled{Form: FormImage, Message: MsgMissingImage, Err: common.ErrMissingInput}
	}

	result, err := w.predictor.SubmitImage(ctx, asset)
	if err != nil {
		common.LogError(err, "Image prediction failed", common.Fields{"file": asset.Name})
		return SubmitSettled{Form: FormImage, Message: MsgImageFailed, Err: err}
	}

	return w.record(ctx, FormImage, model.PredictionRecord{
		Type:   model.PredictionImage,
		Result: result.Message,
	})
}

// SubmitTabular sends the measurements for prediction and records the result.
func (w *Workflow) SubmitTabular(ctx context.Context) Action {
	if !w.acquire(FormTabular) {
		return SubmitRejected{Form: FormTabular, Message: MsgInFlight, Err: common.ErrSubmissionInFlight}
	}
	defer w.release(FormTabular)

	if w.session.Current() == nil {
		return w.expire(ctx)
	}

	sample, err := w.form.Sample()
	if err != nil {
		return SubmitSettled{Form: FormTabular, Message: common.UserMessage(err, MsgTabularFailed), Err: err}
	}

	result, err := w.predictor.SubmitTabular(ctx, sample)
	if err != nil {
		common.LogError(err, "Tabular prediction failed", nil)
		return SubmitSettled{Form: FormTabular, Message: MsgTabularFailed, Err: err}
	}

	return w.record(ctx, FormTabular, model.PredictionRecord{
		Type:   model.PredictionTabular,
		Result: result.Message,
		Data:   &sample,
	})
}

// record appends a successful prediction to history. A failed append keeps
// the result and adds a warning.
func (w *Workflow) record(ctx context.Context, f Form, record model.PredictionRecord) Action {
	record.ID = w.newID()
	record.Timestamp = w.now()

	if err := w.history.Append(ctx, record); err != nil {
		if !errors.Is(err, common.ErrPersistence) {
			err = fmt.Errorf("%w: %w", common.ErrPersistence, err)
		}
		common.LogError(err, "Failed to save prediction", common.Fields{"id": record.ID, "type": string(record.Type)})
		return SubmitSettled{Form: f, Message: record.Result, Warning: MsgPersistFailed}
	}

	slog.Debug("Prediction saved", "id", record.ID, "type", record.Type)
	return SubmitSettled{Form: f, Message: record.Result, Record: &record}
}

// FetchHistory loads every persisted prediction.
func (w *Workflow) FetchHistory(ctx context.Context) Action {
	if w.session.Current() == nil {
		return w.expire(ctx)
	}
	records, err := w.history.FetchAll(ctx)
	if err != nil {
		common.LogError(err, "Failed to load history", nil)
		return HistoryFailed{Message: MsgHistoryFailed, Err: err}
	}
	return HistoryLoaded{Records: records}
}

func (w *Workflow) acquire(f Form) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight[f] {
		return false
	}
	w.inFlight[f] = true
	return true
}

func (w *Workflow) release(f Form) {
	w.mu.Lock()
	w.inFlight[f] = false
	w.mu.Unlock()
}

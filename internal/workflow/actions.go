package workflow

import (
	"github.com/Veraticus/paddy/internal/auth"
	"github.com/Veraticus/paddy/internal/model"
)

// Action is a state transition produced by the user or by an effect.
type Action interface {
	action()
}

// LoginSucceeded moves to the logged-in phase.
type LoginSucceeded struct {
	Identity *model.Identity
}

// AuthFailed reports a failed login, registration, or Google flow.
type AuthFailed struct {
	Err     error
	Message string
}

// ModeToggled switches the authentication form.
type ModeToggled struct {
	Mode auth.Mode
}

// LoggedOut returns to the logged-out phase with empty forms.
type LoggedOut struct{}

// SessionExpired returns to the logged-out phase when the session ended on
// its own. Message is shown on the login screen.
type SessionExpired struct {
	Err     error
	Message string
}

// ImageSelected records the chosen file name.
type ImageSelected struct {
	FileName string
}

// SubmitStarted marks a form as submitting.
type SubmitStarted struct {
	Form Form
}

// SubmitSettled ends a submission, successful or not. Record is set only
// when the prediction was persisted.
type SubmitSettled struct {
	Err     error
	Record  *model.PredictionRecord
	Message string
	Warning string
	Form    Form
}

// SubmitRejected reports a submission refused without leaving the current
// submitting state.
type SubmitRejected struct {
	Err     error
	Message string
	Form    Form
}

// HistoryLoaded replaces the displayed history.
type HistoryLoaded struct {
	Records []model.PredictionRecord
}

// HistoryFailed reports a failed history fetch.
type HistoryFailed struct {
	Err     error
	Message string
}

func (LoginSucceeded) action() {}
func (AuthFailed) action()     {}
func (ModeToggled) action()    {}
func (LoggedOut) action()      {}
func (SessionExpired) action() {}
func (ImageSelected) action()  {}
func (SubmitStarted) action()  {}
func (SubmitSettled) action()  {}
func (SubmitRejected) action() {}
func (HistoryLoaded) action()  {}
func (HistoryFailed) action()  {}

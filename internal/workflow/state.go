// Package workflow drives the prediction client: a pure reducer over the
// application state and the effects that produce its actions.
package workflow

import (
	"github.com/Veraticus/paddy/internal/auth"
	"github.com/Veraticus/paddy/internal/model"
)

// Phase is the authentication phase of the application.
type Phase int

// Phases.
const (
	PhaseLoggedOut Phase = iota
	PhaseLoggedIn
)

func (p Phase) String() string {
	if p == PhaseLoggedIn {
		return "logged in"
	}
	return "logged out"
}

// Form identifies one of the two submission forms.
type Form int

// Forms.
const (
	FormImage Form = iota
	FormTabular
)

func (f Form) String() string {
	if f == FormTabular {
		return "tabular"
	}
	return "image"
}

// State is everything the views render.
type State struct {
	Identity   *model.Identity
	Message    string
	Warning    string
	AuthError  string
	HistoryErr string
	FileName   string
	History    []model.PredictionRecord
	Phase      Phase
	Mode       auth.Mode
	submitting [2]bool
	// HistoryLoaded is set once a fetch has succeeded.
	HistoryLoaded bool
}

// Authenticated reports whether a user is signed in.
func (s State) Authenticated() bool {
	return s.Phase == PhaseLoggedIn
}

// Submitting reports whether a submission of form is pending.
func (s State) Submitting(f Form) bool {
	return s.submitting[f]
}

// Busy reports whether any submission is pending.
func (s State) Busy() bool {
	return s.submitting[FormImage] || s.submitting[FormTabular]
}

// Reduce returns the state that follows s after a. It never mutates s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case LoginSucceeded:
		return State{
			Phase:    PhaseLoggedIn,
			Mode:     s.Mode,
			Identity: a.Identity,
		}

	case AuthFailed:
		s.AuthError = a.Message
		return s

	case ModeToggled:
		s.Mode = a.Mode
		s.AuthError = ""
		return s

	case LoggedOut:
		return State{Mode: s.Mode}

	case SessionExpired:
		return State{Mode: s.Mode, AuthError: a.Message}

	case ImageSelected:
		if !s.Authenticated() {
			return s
		}
		s.FileName = a.FileName
		return s

	case SubmitStarted:
		if !s.Authenticated() {
			return s
		}
		s.submitting[a.Form] = true
		s.Message = ""
		s.Warning = ""
		return s

	case SubmitSettled:
		s.submitting[a.Form] = false
		if !s.Authenticated() {
			return s
		}
		s.Message = a.Message
		s.Warning = a.Warning
		if a.Record != nil && s.HistoryLoaded {
			history := make([]model.PredictionRecord, len(s.History), len(s.History)+1)
			copy(history, s.History)
			s.History = append(history, *a.Record)
		}
		return s

	case SubmitRejected:
		if !s.Authenticated() {
			return s
		}
		s.Message = a.Message
		return s

	case HistoryLoaded:
		if !s.Authenticated() {
			return s
		}
		s.History = a.Records
		s.HistoryLoaded = true
		s.HistoryErr = ""
		return s

	case HistoryFailed:
		if !s.Authenticated() {
			return s
		}
		s.HistoryErr = a.Message
		return s
	}
	return s
}

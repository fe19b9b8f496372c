// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/paddy/internal/model"
)

// AuthProvider authenticates users against an identity backend.
type AuthProvider interface {
	// Name identifies the provider in logs and persisted sessions.
	Name() string
	SignIn(ctx context.Context, cred model.Credential) (*model.Identity, error)
	SignUp(ctx context.Context, cred model.Credential) (*model.Identity, error)
	// SignInWithGoogle runs the browser consent flow and signs in (or signs
	// up) the resulting Google account.
	SignInWithGoogle(ctx context.Context) (*model.Identity, error)
	SignOut(ctx context.Context, identity *model.Identity) error
}

// Predictor submits samples to the remote prediction endpoint.
type Predictor interface {
	SubmitImage(ctx context.Context, asset *model.ImageAsset) (*Prediction, error)
	SubmitTabular(ctx context.Context, sample model.TabularSample) (*Prediction, error)
}

// Prediction is the decoded response of the prediction endpoint.
type Prediction struct {
	Message       string
	Condition     string
	Probabilities []float64
}

// HistoryStore persists prediction records. It is append-only.
type HistoryStore interface {
	Append(ctx context.Context, record model.PredictionRecord) error
	// FetchAll returns every record in the order the store yields them.
	FetchAll(ctx context.Context) ([]model.PredictionRecord, error)
}

// UserStore keeps locally registered accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// RetryOptions configures retry behavior for operations that may be retried,
// such as exporting history to a spreadsheet.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

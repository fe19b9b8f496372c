package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Veraticus/paddy/internal/auth"
	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
	"github.com/Veraticus/paddy/internal/service"
)

type fakeSession struct {
	current  *model.Identity
	restored *model.Identity
	loginErr error
	mode     auth.Mode
	signUps  int
	mu       sync.Mutex
}

func (s *fakeSession) Login(_ context.Context, cred model.Credential) (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	s.current = &model.Identity{UserID: "uid-1", Email: cred.Email, Provider: "fake"}
	return s.current, nil
}

func (s *fakeSession) Register(ctx context.Context, cred model.Credential, confirm string) (*model.Identity, error) {
	if cred.Password != confirm {
		return nil, common.NewUserError(auth.MsgPasswordMismatch, common.ErrPasswordMismatch)
	}
	s.mu.Lock()
	s.signUps++
	s.mu.Unlock()
	return s.Login(ctx, cred)
}

func (s *fakeSession) LoginWithProvider(context.Context) (*model.Identity, error) {
	return nil, common.NewUserError(auth.MsgGoogleLogin, common.ErrProviderFailed)
}

func (s *fakeSession) Logout(context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

func (s *fakeSession) Restore(context.Context) (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.restored
	return s.restored, nil
}

func (s *fakeSession) Current() *model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *fakeSession) Mode() auth.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *fakeSession) ToggleMode() auth.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == auth.ModeLogin {
		s.mode = auth.ModeRegister
	} else {
		s.mode = auth.ModeLogin
	}
	return s.mode
}

// fakePredictor answers with message, or err when set. When gate is set,
// calls block until it is closed.
type fakePredictor struct {
	err     error
	gate    chan struct{}
	entered chan struct{}
	message string
	images  atomic.Int32
	tabular atomic.Int32
	samples []model.TabularSample
	mu      sync.Mutex
}

func (p *fakePredictor) wait(ctx context.Context) error {
	if p.entered != nil {
		p.entered <- struct{}{}
	}
	if p.gate == nil {
		return nil
	}
	select {
	case <-p.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *fakePredictor) SubmitImage(ctx context.Context, _ *model.ImageAsset) (*service.Prediction, error) {
	p.images.Add(1)
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	return &service.Prediction{Message: p.message}, nil
}

func (p *fakePredictor) SubmitTabular(ctx context.Context, sample model.TabularSample) (*service.Prediction, error) {
	p.tabular.Add(1)
	p.mu.Lock()
	p.samples = append(p.samples, sample)
	p.mu.Unlock()
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	return &service.Prediction{Message: p.message}, nil
}

type memHistory struct {
	appendErr error
	fetchErr  error
	records   []model.PredictionRecord
	mu        sync.Mutex
}

func (h *memHistory) Append(_ context.Context, record model.PredictionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.appendErr != nil {
		return h.appendErr
	}
	h.records = append(h.records, record)
	return nil
}

func (h *memHistory) FetchAll(context.Context) ([]model.PredictionRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fetchErr != nil {
		return nil, h.fetchErr
	}
	return append([]model.PredictionRecord(nil), h.records...), nil
}

func (h *memHistory) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

var errUnavailable = errors.New("service unavailable")

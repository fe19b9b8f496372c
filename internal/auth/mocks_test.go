package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
)

type mockProvider struct {
	mock.Mock
	name string
}

func (m *mockProvider) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

func (m *mockProvider) SignIn(ctx context.Context, cred model.Credential) (*model.Identity, error) {
	args := m.Called(ctx, cred)
	if identity, ok := args.Get(0).(*model.Identity); ok {
		return identity, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) SignUp(ctx context.Context, cred model.Credential) (*model.Identity, error) {
	args := m.Called(ctx, cred)
	if identity, ok := args.Get(0).(*model.Identity); ok {
		return identity, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) SignInWithGoogle(ctx context.Context) (*model.Identity, error) {
	args := m.Called(ctx)
	if identity, ok := args.Get(0).(*model.Identity); ok {
		return identity, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) SignOut(ctx context.Context, identity *model.Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

type mockGoogleFlow struct {
	mock.Mock
}

func (m *mockGoogleFlow) Authorize(ctx context.Context) (*GoogleAccount, error) {
	args := m.Called(ctx)
	if account, ok := args.Get(0).(*GoogleAccount); ok {
		return account, args.Error(1)
	}
	return nil, args.Error(1)
}

// memUserStore is an in-memory service.UserStore.
type memUserStore struct {
	users map[string]*model.User
	mu    sync.Mutex
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*model.User)}
}

func (s *memUserStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, ok := s.users[key]; ok {
		return common.ErrDuplicate
	}
	stored := *user
	s.users[key] = &stored
	return nil
}

func (s *memUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *user
	return &out, nil
}

// testKey is a 32-byte signing key.
var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(testKey, time.Hour)
	require.NoError(t, err)
	return issuer
}

// fakeIDToken builds a JWT with the given expiry, as a hosted provider would.
func fakeIDToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "uid-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("provider-secret"))
	require.NoError(t, err)
	return token
}

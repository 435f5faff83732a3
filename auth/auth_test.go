package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alohafunds/engine/fund"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("mahalo123"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewService("test-secret", time.Hour, "Admin@Company.com", string(hash))
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestLogin(t *testing.T) {
	s := newTestService(t)

	token, err := s.Login(" admin@company.com ", "mahalo123")
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)

	claims, err := s.Parse(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin@company.com", claims.Email)
	assert.WithinDuration(t, token.ExpiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestLogin_Rejected(t *testing.T) {
	s := newTestService(t)

	_, err := s.Login("admin@company.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login("other@company.com", "mahalo123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	disabled := NewService("secret", time.Hour, "", "")
	_, err = disabled.Login("admin@company.com", "mahalo123")
	assert.ErrorIs(t, err, ErrLoginDisabled)
}

func TestParse_Expired(t *testing.T) {
	s := newTestService(t)
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issuedAt }
	token, err := s.Login("admin@company.com", "mahalo123")
	require.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, err = s.Parse(token.AccessToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_WrongSecret(t *testing.T) {
	s := newTestService(t)
	token, err := s.Login("admin@company.com", "mahalo123")
	require.NoError(t, err)

	other := NewService("another-secret", time.Hour, "admin@company.com", string(s.passwordHash))
	_, err = other.Parse(token.AccessToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func callerFor(t *testing.T, s *Service, header string) fund.AuthContext {
	t.Helper()
	var got fund.AuthContext
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestMiddleware(t *testing.T) {
	s := newTestService(t)
	token, err := s.Login("admin@company.com", "mahalo123")
	require.NoError(t, err)

	admin := callerFor(t, s, "Bearer "+token.AccessToken)
	assert.True(t, admin.CanMutate())
	assert.Equal(t, "admin@company.com", admin.Subject())

	assert.Equal(t, fund.Guest{}, callerFor(t, s, ""))
	assert.Equal(t, fund.Guest{}, callerFor(t, s, "Bearer garbage"))
	assert.Equal(t, fund.Guest{}, callerFor(t, s, token.AccessToken), "missing Bearer prefix")
}

func TestFromContext_DefaultsToGuest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, FromContext(req.Context()).CanMutate())
}

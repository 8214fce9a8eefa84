package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"saasbase/config"
	deliverycontext "saasbase/internal/delivery/context"
	"saasbase/internal/domain/entity"
	domainerrors "saasbase/internal/domain/errors"
	"saasbase/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubValidator is the minimal usecase surface the session guard touches.
type stubValidator struct {
	validation    *usecase.SessionValidation
	validationErr error
	seenToken     string
}

func (s *stubValidator) AuthorizationURL(_ context.Context, _ usecase.BeginLoginInput) (*usecase.BeginLoginOutput, error) {
	return nil, nil
}

func (s *stubValidator) CompleteLogin(_ context.Context, _ usecase.CompleteLoginInput) (*usecase.CompleteLoginOutput, error) {
	return nil, nil
}

func (s *stubValidator) ValidateSessionToken(_ context.Context, token string) (*usecase.SessionValidation, error) {
	s.seenToken = token

	return s.validation, s.validationErr
}

func (s *stubValidator) Logout(_ context.Context, _ string) error { return nil }

func (s *stubValidator) LogoutAll(_ context.Context, _ uuid.UUID) error { return nil }

func (s *stubValidator) CleanupExpiredSessions(_ context.Context) (int64, error) { return 0, nil }

func sessionTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth = &config.AuthConfig{AfterLoginURL: "/dashboard"}

	return cfg
}

func guardedContext(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func TestRequireSession_MissingCookie(t *testing.T) {
	m := NewSessionMiddleware(&stubValidator{}, sessionTestConfig())

	c, _ := guardedContext()
	err := m.RequireSession(func(echo.Context) error {
		t.Fatal("handler should not run")

		return nil
	})(c)

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
}

func TestRequireSession_ValidSession(t *testing.T) {
	user := &entity.User{ID: uuid.New(), Email: "jane@example.com"}
	session := &entity.Session{
		ID:        "digest",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(entity.SessionMaxDuration),
	}
	stub := &stubValidator{validation: &usecase.SessionValidation{Session: session, User: user}}
	m := NewSessionMiddleware(stub, sessionTestConfig())

	c, rec := guardedContext(&http.Cookie{Name: "session", Value: "rawtoken"})

	var handlerRan bool
	err := m.RequireSession(func(c echo.Context) error {
		handlerRan = true
		assert.Same(t, user, c.Get(string(deliverycontext.KeyAuthUser)))
		assert.Same(t, session, c.Get(string(deliverycontext.KeyAuthSession)))

		return c.NoContent(http.StatusOK)
	})(c)

	require.NoError(t, err)
	assert.True(t, handlerRan)
	assert.Equal(t, "rawtoken", stub.seenToken)

	// The cookie lifetime tracks the session expiry.
	var sessionCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "session" {
			sessionCookie = ck
		}
	}
	require.NotNil(t, sessionCookie)
	assert.Equal(t, "rawtoken", sessionCookie.Value)
	assert.WithinDuration(t, session.ExpiresAt, sessionCookie.Expires, 2*time.Second)
}

func TestRequireSession_InvalidSessionClearsCookie(t *testing.T) {
	stub := &stubValidator{validationErr: domainerrors.ErrUnauthenticated}
	m := NewSessionMiddleware(stub, sessionTestConfig())

	c, rec := guardedContext(&http.Cookie{Name: "session", Value: "deadtoken"})

	err := m.RequireSession(func(echo.Context) error {
		t.Fatal("handler should not run")

		return nil
	})(c)

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

	var sessionCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "session" {
			sessionCookie = ck
		}
	}
	require.NotNil(t, sessionCookie)
	assert.Negative(t, sessionCookie.MaxAge)
}

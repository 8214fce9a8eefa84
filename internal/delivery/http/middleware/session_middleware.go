package middleware

import (
	"saasbase/config"
	deliverycontext "saasbase/internal/delivery/context"
	"saasbase/internal/delivery/http/cookie"
	domainerrors "saasbase/internal/domain/errors"
	"saasbase/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SessionMiddleware guards routes that require a signed-in user.
type SessionMiddleware struct {
	uc  usecase.AuthUsecase
	cfg *config.Config
}

// NewSessionMiddleware is the constructor for SessionMiddleware.
func NewSessionMiddleware(uc usecase.AuthUsecase, cfg *config.Config) *SessionMiddleware {
	return &SessionMiddleware{uc: uc, cfg: cfg}
}

// RequireSession validates the session cookie and stores the resolved user
// and session on the request. Validation may extend the session's expiry, in
// which case the cookie is rewritten to match.
func (m *SessionMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := cookie.Read(c, cookie.SessionName)
		if token == "" {
			return domainerrors.ErrUnauthenticated.WrapMessage("missing session cookie")
		}

		validation, err := m.uc.ValidateSessionToken(c.Request().Context(), token)
		if err != nil {
			cookie.ClearSession(c, m.cfg.Auth.SecureCookies)

			return err
		}

		// Keep the cookie lifetime in step with the (possibly extended) session.
		cookie.SetSession(c, token, validation.Session.ExpiresAt, m.cfg.Auth.SecureCookies)

		c.Set(string(deliverycontext.KeyAuthUser), validation.User)
		c.Set(string(deliverycontext.KeyAuthSession), validation.Session)

		return next(c)
	}
}

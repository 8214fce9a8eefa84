package handler

import (
	"log/slog"
	"net/http"

	"saasbase/config"
	"saasbase/internal/delivery/http/cookie"
	"saasbase/internal/domain/entity"
	domainerrors "saasbase/internal/domain/errors"
	"saasbase/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// OAuthHandler drives the browser-facing login redirect and callback flow.
// Flow endpoints answer with redirects or bare status codes rather than JSON
// bodies, since the other end is always a browser mid-navigation.
type OAuthHandler struct {
	uc     usecase.AuthUsecase
	cfg    *config.Config
	logger *slog.Logger
}

// NewOAuthHandler is the constructor for OAuthHandler, injected by Fx.
func NewOAuthHandler(uc usecase.AuthUsecase, cfg *config.Config, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{uc: uc, cfg: cfg, logger: logger}
}

// Begin starts a login attempt: it derives the callback URL from the request
// origin, stashes the anti-forgery state (and Google's PKCE verifier) in
// short-lived cookies, and redirects to the provider's consent screen.
func (h *OAuthHandler) Begin(c echo.Context) error {
	provider, ok := entity.ParseProvider(c.Param("provider"))
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}

	output, err := h.uc.AuthorizationURL(c.Request().Context(), usecase.BeginLoginInput{
		Provider:    provider,
		RedirectURI: h.callbackURL(c, provider),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	secure := h.cfg.Auth.SecureCookies
	cookie.SetState(c, provider.StateCookieName(), output.State, secure)
	if output.CodeVerifier != "" {
		cookie.SetState(c, cookie.CodeVerifierName, output.CodeVerifier, secure)
	}

	return c.Redirect(http.StatusFound, output.URL)
}

// Callback finishes a login attempt. Providers send the code and state on the
// query string; Apple POSTs them as form fields instead, possibly alongside a
// one-time 'user' JSON field.
func (h *OAuthHandler) Callback(c echo.Context) error {
	provider, ok := entity.ParseProvider(c.Param("provider"))
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}

	code := c.FormValue("code")
	state := c.FormValue("state")
	storedState := cookie.Read(c, provider.StateCookieName())

	if code == "" || state == "" || storedState == "" {
		return c.NoContent(http.StatusBadRequest)
	}
	if state != storedState {
		h.logger.Warn("Login state mismatch", slog.String("provider", provider.String()))

		return c.NoContent(http.StatusBadRequest)
	}

	input := usecase.CompleteLoginInput{
		Provider:    provider,
		Code:        code,
		RedirectURI: h.callbackURL(c, provider),
	}

	if provider == entity.ProviderGoogle {
		input.CodeVerifier = cookie.Read(c, cookie.CodeVerifierName)
		if input.CodeVerifier == "" {
			return c.NoContent(http.StatusBadRequest)
		}
	}
	if provider == entity.ProviderApple {
		input.UserPayload = c.FormValue("user")
	}

	output, err := h.uc.CompleteLogin(c.Request().Context(), input)

	// The attempt cookies are spent either way.
	secure := h.cfg.Auth.SecureCookies
	cookie.Clear(c, provider.StateCookieName(), secure)
	if provider == entity.ProviderGoogle {
		cookie.Clear(c, cookie.CodeVerifierName, secure)
	}

	if err != nil {
		var appErr domainerrors.AppError
		if errors.As(err, &appErr) {
			if appErr.HTTPCode() >= http.StatusInternalServerError {
				h.logger.Error("Login failed",
					slog.String("provider", provider.String()),
					slog.String("error", err.Error()),
				)
			}

			return c.NoContent(appErr.HTTPCode())
		}

		h.logger.Error("Login failed",
			slog.String("provider", provider.String()),
			slog.String("error", err.Error()),
		)

		return c.NoContent(http.StatusInternalServerError)
	}

	cookie.SetSession(c, output.Token, output.Session.ExpiresAt, secure)

	return c.Redirect(http.StatusFound, h.cfg.Auth.AfterLoginURL)
}

// callbackURL derives the absolute callback URL from the request origin, so
// one deployment can serve several hostnames.
func (h *OAuthHandler) callbackURL(c echo.Context, provider entity.Provider) string {
	return c.Scheme() + "://" + c.Request().Host + "/api/login/" + provider.String() + "/callback"
}

package handler

import (
	"net/http"

	"saasbase/config"
	deliverycontext "saasbase/internal/delivery/context"
	"saasbase/internal/delivery/http/cookie"
	"saasbase/internal/delivery/http/response"
	"saasbase/internal/domain/entity"
	domainerrors "saasbase/internal/domain/errors"
	"saasbase/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// SessionHandler serves the session-backed JSON API: current user lookup and
// the logout operations.
type SessionHandler struct {
	uc  usecase.AuthUsecase
	cfg *config.Config
}

// NewSessionHandler is the constructor for SessionHandler, injected by Fx.
func NewSessionHandler(uc usecase.AuthUsecase, cfg *config.Config) *SessionHandler {
	return &SessionHandler{uc: uc, cfg: cfg}
}

// userResponse is the wire shape of a user. The session id never leaves the server.
type userResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// Me returns the authenticated user. Requires the session middleware.
func (h *SessionHandler) Me(c echo.Context) error {
	user, ok := c.Get(string(deliverycontext.KeyAuthUser)).(*entity.User)
	if !ok {
		return domainerrors.ErrUnauthenticated.WrapMessage("no authenticated user on request")
	}

	return response.Success(c, http.StatusOK, userResponse{
		ID:            user.ID.String(),
		Email:         user.Email,
		Name:          user.Name,
		AvatarURL:     user.AvatarURL,
		EmailVerified: user.EmailVerified,
	}, "")
}

// Logout revokes the current session and clears its cookie. Revoking an
// already-dead session still succeeds, so the client always converges on
// being signed out.
func (h *SessionHandler) Logout(c echo.Context) error {
	token := cookie.Read(c, cookie.SessionName)

	if err := h.uc.Logout(c.Request().Context(), token); err != nil {
		return errors.WithStack(err)
	}

	cookie.ClearSession(c, h.cfg.Auth.SecureCookies)

	return response.Success(c, http.StatusOK, nil, "Signed out")
}

// LogoutAll revokes every session the authenticated user owns, including the
// current one. Requires the session middleware.
func (h *SessionHandler) LogoutAll(c echo.Context) error {
	user, ok := c.Get(string(deliverycontext.KeyAuthUser)).(*entity.User)
	if !ok {
		return domainerrors.ErrUnauthenticated.WrapMessage("no authenticated user on request")
	}

	if err := h.uc.LogoutAll(c.Request().Context(), user.ID); err != nil {
		return errors.WithStack(err)
	}

	cookie.ClearSession(c, h.cfg.Auth.SecureCookies)

	return response.Success(c, http.StatusOK, nil, "Signed out everywhere")
}

// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "saasbase/internal/delivery/context"
	"saasbase/internal/domain/entity"
	domainerrors "saasbase/internal/domain/errors"
	"saasbase/internal/domain/repository"
	"saasbase/internal/domain/service"
	"saasbase/internal/metrics"
	"saasbase/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// authService implements the AuthUsecase interface.
type authService struct {
	providers service.OAuthProviders
	tokens    service.TokenService
	txManager repository.TransactionManager
	recorder  metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthService is the constructor for authService.
func NewAuthService(
	providers service.OAuthProviders,
	tokens service.TokenService,
	txManager repository.TransactionManager,
	recorder metrics.Recorder,
	logger *slog.Logger,
) usecase.AuthUsecase {
	return &authService{
		providers: providers,
		tokens:    tokens,
		txManager: txManager,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// AuthorizationURL starts a login attempt against the named provider.
func (srv *authService) AuthorizationURL(ctx context.Context, input usecase.BeginLoginInput) (*usecase.BeginLoginOutput, error) {
	adapter, ok := srv.providers.Get(input.Provider)
	if !ok {
		return nil, domainerrors.ErrUnsupportedProvider.WrapMessage(string(input.Provider))
	}

	state, err := srv.tokens.GenerateState()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate state")
	}

	req := service.AuthorizationRequest{
		State:       state,
		RedirectURI: input.RedirectURI,
	}

	output := &usecase.BeginLoginOutput{State: state}

	// Google is the only provider that requires PKCE.
	if input.Provider == entity.ProviderGoogle {
		verifier, err := srv.tokens.GenerateCodeVerifier()
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate code verifier")
		}
		output.CodeVerifier = verifier
		req.CodeChallenge = srv.tokens.CodeChallengeS256(verifier)
	}

	url, err := adapter.AuthorizationURL(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build authorization URL")
	}
	output.URL = url

	srv.recorder.RecordLoginInitiated(string(input.Provider))
	srv.log(ctx).Debug("Login attempt started", slog.String("provider", string(input.Provider)))

	return output, nil
}

// CompleteLogin redeems a callback code, reconciles the user and opens a session.
func (srv *authService) CompleteLogin(ctx context.Context, input usecase.CompleteLoginInput) (*usecase.CompleteLoginOutput, error) {
	adapter, ok := srv.providers.Get(input.Provider)
	if !ok {
		return nil, domainerrors.ErrUnsupportedProvider.WrapMessage(string(input.Provider))
	}

	providerName := string(input.Provider)

	exchangeStart := srv.now()
	identity, err := adapter.Exchange(ctx, service.ExchangeRequest{
		Code:         input.Code,
		RedirectURI:  input.RedirectURI,
		CodeVerifier: input.CodeVerifier,
		UserPayload:  input.UserPayload,
	})
	srv.recorder.RecordExchangeLatency(providerName, srv.now().Sub(exchangeStart))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidGrant):
			srv.recorder.RecordLoginFailed(providerName, "invalid_grant")

			return nil, domainerrors.ErrInvalidGrant.WrapMessage(err.Error())
		case errors.Is(err, service.ErrProviderUnavailable):
			srv.recorder.RecordLoginFailed(providerName, "provider_unavailable")

			return nil, domainerrors.ErrProviderUnavailable.WrapMessage(err.Error())
		default:
			srv.recorder.RecordLoginFailed(providerName, "exchange_failed")

			return nil, errors.Wrap(err, "code exchange failed")
		}
	}

	user, created, err := srv.reconcileUser(ctx, identity)
	if err != nil {
		srv.recorder.RecordLoginFailed(providerName, "reconcile_failed")

		return nil, err
	}

	// The session is created only after the user exists, so a half-finished
	// login never leaves a usable credential behind.
	token, session, err := srv.openSession(ctx, user.ID)
	if err != nil {
		srv.recorder.RecordLoginFailed(providerName, "session_failed")

		return nil, err
	}

	srv.recorder.RecordLoginSucceeded(providerName, created)
	srv.log(ctx).Info("Login completed",
		slog.String("provider", providerName),
		slog.Any("user_id", user.ID),
		slog.Bool("new_user", created),
	)

	return &usecase.CompleteLoginOutput{
		Token:   token,
		Session: session,
		User:    user,
		Created: created,
	}, nil
}

// reconcileUser maps a provider identity onto a local user, creating the user
// and account link on first login. A concurrent first login for the same
// identity loses the insert race on the unique account index and retries as a
// plain lookup.
func (srv *authService) reconcileUser(ctx context.Context, identity *service.Identity) (*entity.User, bool, error) {
	user, err := srv.findLinkedUser(ctx, identity)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, false, err
	}

	user, err = srv.createLinkedUser(ctx, identity)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, repository.ErrDuplicateAccount) {
		return nil, false, err
	}

	// Lost the first-login race; the other request created the account.
	user, err = srv.findLinkedUser(ctx, identity)
	if err != nil {
		return nil, false, err
	}

	return user, false, nil
}

func (srv *authService) findLinkedUser(ctx context.Context, identity *service.Identity) (*entity.User, error) {
	var user *entity.User

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		account, err := repoFactory.AccountRepo().FindByProviderUserID(ctx, identity.Provider, identity.ProviderUserID)
		if err != nil {
			return err
		}

		user, err = repoFactory.UserRepo().FindByID(ctx, account.UserID)
		if err != nil {
			return errors.Wrap(err, "failed to load account owner")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (srv *authService) createLinkedUser(ctx context.Context, identity *service.Identity) (*entity.User, error) {
	user := &entity.User{
		ID:            uuid.New(),
		Email:         identity.Email,
		Name:          identity.Name,
		AvatarURL:     identity.AvatarURL,
		EmailVerified: identity.EmailVerified,
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.UserRepo().Create(ctx, user); err != nil {
			return errors.Wrap(err, "failed to create user")
		}

		account := &entity.Account{
			ID:             uuid.New(),
			UserID:         user.ID,
			Provider:       identity.Provider,
			ProviderUserID: identity.ProviderUserID,
		}
		if err := repoFactory.AccountRepo().Create(ctx, account); err != nil {
			// ErrDuplicateAccount must surface unwrapped so the caller can retry.
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (srv *authService) openSession(ctx context.Context, userID uuid.UUID) (string, *entity.Session, error) {
	token, err := srv.tokens.GenerateSessionToken()
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to generate session token")
	}

	session := &entity.Session{
		ID:        srv.tokens.HashSessionToken(token),
		UserID:    userID,
		ExpiresAt: srv.now().Add(entity.SessionMaxDuration),
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.SessionRepo().Create(ctx, session)
	})
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to create session")
	}

	return token, session, nil
}

// ValidateSessionToken resolves a bearer token to its session and user.
// Expired sessions and sessions whose owner no longer exists are deleted on
// sight rather than waiting for the cleanup job.
func (srv *authService) ValidateSessionToken(ctx context.Context, token string) (*usecase.SessionValidation, error) {
	if token == "" {
		srv.recorder.RecordSessionValidation("missing")

		return nil, domainerrors.ErrUnauthenticated.WrapMessage("no session token")
	}

	sessionID := srv.tokens.HashSessionToken(token)
	now := srv.now()

	var result *usecase.SessionValidation
	outcome := "valid"

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		sessionRepo := repoFactory.SessionRepo()

		session, err := sessionRepo.FindByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				outcome = "missing"

				return domainerrors.ErrUnauthenticated.WrapMessage("unknown session")
			}

			return errors.Wrap(err, "failed to load session")
		}

		if session.Expired(now) {
			outcome = "expired"
			if err := sessionRepo.Delete(ctx, sessionID); err != nil {
				return errors.Wrap(err, "failed to delete expired session")
			}

			return domainerrors.ErrUnauthenticated.WrapMessage("session expired")
		}

		user, err := repoFactory.UserRepo().FindByID(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				// The owner was deleted out from under the session.
				outcome = "orphaned"
				if err := sessionRepo.Delete(ctx, sessionID); err != nil {
					return errors.Wrap(err, "failed to delete orphaned session")
				}

				return domainerrors.ErrUnauthenticated.WrapMessage("session owner no longer exists")
			}

			return errors.Wrap(err, "failed to load session owner")
		}

		if session.ShouldRefresh(now) {
			session.ExpiresAt = now.Add(entity.SessionMaxDuration)
			if err := sessionRepo.UpdateExpiresAt(ctx, sessionID, session.ExpiresAt); err != nil {
				return errors.Wrap(err, "failed to extend session")
			}
			outcome = "refreshed"
		}

		result = &usecase.SessionValidation{Session: session, User: user}

		return nil
	})

	srv.recorder.RecordSessionValidation(outcome)

	if err != nil {
		return nil, err
	}

	return result, nil
}

// Logout revokes the session behind the given token. Unknown tokens are a no-op.
func (srv *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	sessionID := srv.tokens.HashSessionToken(token)

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.SessionRepo().Delete(ctx, sessionID)
	})
	if err != nil {
		return errors.Wrap(err, "failed to revoke session")
	}

	return nil
}

// LogoutAll revokes every session the user owns.
func (srv *authService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.SessionRepo().DeleteByUserID(ctx, userID)
	})
	if err != nil {
		return errors.Wrap(err, "failed to revoke user sessions")
	}

	srv.log(ctx).Info("Revoked all sessions", slog.Any("user_id", userID))

	return nil
}

// CleanupExpiredSessions removes sessions past their expiry.
func (srv *authService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	var removed int64

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		removed, err = repoFactory.SessionRepo().DeleteExpired(ctx, srv.now())

		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to clean up expired sessions")
	}

	srv.recorder.RecordSessionsCleaned(removed)
	if removed > 0 {
		srv.log(ctx).Info("Removed expired sessions", slog.Int64("count", removed))
	}

	return removed, nil
}

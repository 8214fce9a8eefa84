package impl

import (
	"context"
	"sync"
	"time"

	"saasbase/internal/domain/entity"
	"saasbase/internal/domain/repository"
	"saasbase/internal/domain/service"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the PostgreSQL schema, shared by the
// fake repositories so multi-step flows observe each other's writes.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	accounts map[string]*entity.Account // keyed by provider + "/" + providerUserID
	sessions map[string]*entity.Session

	// missNextAccountLookup makes the next FindByProviderUserID miss, which
	// simulates losing the first-login insert race to a concurrent request.
	missNextAccountLookup bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]*entity.User),
		accounts: make(map[string]*entity.Account),
		sessions: make(map[string]*entity.Session),
	}
}

func accountKey(provider entity.Provider, providerUserID string) string {
	return string(provider) + "/" + providerUserID
}

type fakeUserRepo struct{ store *memStore }

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user

	return &copied, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *user
	r.store.users[user.ID] = &copied

	return nil
}

type fakeAccountRepo struct{ store *memStore }

func (r *fakeAccountRepo) Create(_ context.Context, account *entity.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := accountKey(account.Provider, account.ProviderUserID)
	if _, exists := r.store.accounts[key]; exists {
		return repository.ErrDuplicateAccount
	}
	copied := *account
	r.store.accounts[key] = &copied

	return nil
}

func (r *fakeAccountRepo) FindByProviderUserID(_ context.Context, provider entity.Provider, providerUserID string) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.missNextAccountLookup {
		r.store.missNextAccountLookup = false

		return nil, repository.ErrAccountNotFound
	}

	account, ok := r.store.accounts[accountKey(provider, providerUserID)]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *account

	return &copied, nil
}

type fakeSessionRepo struct{ store *memStore }

func (r *fakeSessionRepo) Create(_ context.Context, session *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	copied := *session
	r.store.sessions[session.ID] = &copied

	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id string) (*entity.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, ok := r.store.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	copied := *session

	return &copied, nil
}

func (r *fakeSessionRepo) UpdateExpiresAt(_ context.Context, id string, expiresAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session, ok := r.store.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.ExpiresAt = expiresAt

	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.sessions, id)

	return nil
}

func (r *fakeSessionRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, session := range r.store.sessions {
		if session.UserID == userID {
			delete(r.store.sessions, id)
		}
	}

	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var removed int64
	for id, session := range r.store.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(r.store.sessions, id)
			removed++
		}
	}

	return removed, nil
}

type fakeFactory struct{ store *memStore }

func (f *fakeFactory) UserRepo() repository.UserRepository       { return &fakeUserRepo{store: f.store} }
func (f *fakeFactory) AccountRepo() repository.AccountRepository { return &fakeAccountRepo{store: f.store} }
func (f *fakeFactory) SessionRepo() repository.SessionRepository { return &fakeSessionRepo{store: f.store} }

type fakeTxManager struct{ store *memStore }

func (tm *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(&fakeFactory{store: tm.store})
}

// fakeProvider returns a canned identity (or error) and records the last
// authorization request it was asked to build.
type fakeProvider struct {
	name        entity.Provider
	identity    *service.Identity
	exchangeErr error

	lastAuthReq     service.AuthorizationRequest
	lastExchangeReq service.ExchangeRequest
}

func (p *fakeProvider) Name() entity.Provider { return p.name }

func (p *fakeProvider) AuthorizationURL(req service.AuthorizationRequest) (string, error) {
	p.lastAuthReq = req

	return "https://provider.example.com/authorize?state=" + req.State, nil
}

func (p *fakeProvider) Exchange(_ context.Context, req service.ExchangeRequest) (*service.Identity, error) {
	p.lastExchangeReq = req
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	copied := *p.identity

	return &copied, nil
}

type fakeProviders struct{ byName map[entity.Provider]service.OAuthProvider }

func (p *fakeProviders) Get(name entity.Provider) (service.OAuthProvider, bool) {
	adapter, ok := p.byName[name]

	return adapter, ok
}

// nopRecorder satisfies metrics.Recorder without a registry.
type nopRecorder struct{}

func (nopRecorder) RecordLoginInitiated(string)                 {}
func (nopRecorder) RecordLoginSucceeded(string, bool)           {}
func (nopRecorder) RecordLoginFailed(string, string)            {}
func (nopRecorder) RecordExchangeLatency(string, time.Duration) {}
func (nopRecorder) RecordSessionValidation(string)              {}
func (nopRecorder) RecordSessionsCleaned(int64)                 {}

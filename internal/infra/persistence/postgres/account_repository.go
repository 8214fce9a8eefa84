package postgres

import (
	"context"

	"saasbase/internal/domain/entity"
	domainerrors "saasbase/internal/domain/errors"
	"saasbase/internal/domain/repository"
	"saasbase/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// accountRepository implements the domain.AccountRepository interface.
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository is the constructor for accountRepository.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// Create persists a new provider account link. Concurrent first logins for
// the same provider identity race on the composite unique index; the loser
// receives ErrDuplicateAccount and retries the flow as a lookup.
func (repo *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	accountM := fromAccountDomain(account)

	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateAccount
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("invalid user reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create account")
	}

	account.ID = accountM.ID
	account.CreatedAt = accountM.CreatedAt

	return nil
}

// FindByProviderUserID retrieves the account for a provider-side subject identifier.
func (repo *accountRepository) FindByProviderUserID(ctx context.Context, provider entity.Provider, providerUserID string) (*entity.Account, error) {
	var accountM model.AccountModel
	err := repo.db.WithContext(ctx).
		First(&accountM, "provider = ? AND provider_user_id = ?", provider.String(), providerUserID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toAccountDomain(&accountM), nil
}

func toAccountDomain(data *model.AccountModel) *entity.Account {
	return &entity.Account{
		ID:             data.ID,
		UserID:         data.UserID,
		Provider:       entity.Provider(data.Provider),
		ProviderUserID: data.ProviderUserID,
		CreatedAt:      data.CreatedAt,
	}
}

func fromAccountDomain(data *entity.Account) *model.AccountModel {
	return &model.AccountModel{
		ID:             data.ID,
		UserID:         data.UserID,
		Provider:       data.Provider.String(),
		ProviderUserID: data.ProviderUserID,
		CreatedAt:      data.CreatedAt,
	}
}

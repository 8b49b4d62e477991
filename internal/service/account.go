package service

import (
	"context"
	"errors"

	"github.com/deppfellow/account-gateway/internal/errs"
	"github.com/deppfellow/account-gateway/internal/model"
	"github.com/deppfellow/account-gateway/internal/repository"
	"github.com/deppfellow/account-gateway/internal/server"
)

var accountNotFoundCode = "ACCOUNT_NOT_FOUND"

// AccountStore is the gateway the account service works against.
type AccountStore interface {
	Create(ctx context.Context, account *model.Account) error
	FindByNumber(ctx context.Context, number string) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, number string) error
	ListAll(ctx context.Context) ([]model.Account, error)
	Count(ctx context.Context) (int, error)
	ListByName(ctx context.Context, name string) ([]model.Account, error)
}

type AccountService struct {
	server   *server.Server
	accounts AccountStore
}

func NewAccountService(s *server.Server, accounts AccountStore) *AccountService {
	return &AccountService{
		server:   s,
		accounts: accounts,
	}
}

func newAccountNotFoundError(number string) *errs.HTTPError {
	return errs.NewNotFoundError("Account "+number+" not found", true, &accountNotFoundCode)
}

// Create stores a new account. Duplicate numbers surface as the storage
// error and are translated by the global error handler.
func (s *AccountService) Create(ctx context.Context, account *model.Account) (*model.Account, error) {
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrInvalidAccount) {
			return nil, errs.NewBadRequestError("Account number is required", true, nil, nil, nil)
		}
		return nil, err
	}

	s.server.Logger.Info().Str("number", account.Number).Msg("account opened")
	return account, nil
}

func (s *AccountService) Get(ctx context.Context, number string) (*model.Account, error) {
	account, err := s.accounts.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, newAccountNotFoundError(number)
	}
	return account, nil
}

// Update replaces name and balance of an existing account and returns the
// stored result.
func (s *AccountService) Update(ctx context.Context, account *model.Account) (*model.Account, error) {
	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, newAccountNotFoundError(account.Number)
		}
		return nil, err
	}

	return s.Get(ctx, account.Number)
}

func (s *AccountService) Delete(ctx context.Context, number string) error {
	if err := s.accounts.Delete(ctx, number); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return newAccountNotFoundError(number)
		}
		return err
	}

	s.server.Logger.Info().Str("number", number).Msg("account closed")
	return nil
}

// List returns every account, or only those owned by name when it is set.
func (s *AccountService) List(ctx context.Context, name string) ([]model.Account, error) {
	if name == "" {
		return s.accounts.ListAll(ctx)
	}
	return s.accounts.ListByName(ctx, name)
}

func (s *AccountService) Count(ctx context.Context) (int, error) {
	return s.accounts.Count(ctx)
}

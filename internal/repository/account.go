package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/account-gateway/internal/database"
	"github.com/deppfellow/account-gateway/internal/model"
	"github.com/deppfellow/account-gateway/internal/sqlerr"
	"github.com/rs/zerolog"
)

var (
	// ErrAccountNotFound is returned by Update and Delete when no account has
	// the given number. FindByNumber reports absence as (nil, nil) instead.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAccount is returned by Create and Update for a nil account or
	// one without a number.
	ErrInvalidAccount = errors.New("account must have a number")
)

const (
	insertAccountSQL = `INSERT INTO accounts (number, name, balance) VALUES ($1, $2, $3)`

	selectAccountSQL = `SELECT number, name, balance FROM accounts WHERE number = $1`

	updateAccountSQL = `UPDATE accounts SET name = $2, balance = $3 WHERE number = $1`

	deleteAccountSQL = `DELETE FROM accounts WHERE number = $1`

	listAccountsSQL = `SELECT number, name, balance FROM accounts`

	listAccountsByNameSQL = `SELECT number, name, balance FROM accounts WHERE name = $1`
)

// AccountRepository is the gateway for account records.
//
// It holds only the session factory and a logger. Every method acquires its
// own session and releases it before returning, on every path.
type AccountRepository struct {
	factory database.SessionFactory
	logger  *zerolog.Logger
}

func NewAccountRepository(factory database.SessionFactory, logger *zerolog.Logger) *AccountRepository {
	repoLogger := logger.With().Str("repository", "accounts").Logger()
	return &AccountRepository{
		factory: factory,
		logger:  &repoLogger,
	}
}

// Create inserts a new account inside a transaction. A duplicate number
// fails with an *sqlerr.Error whose Code is sqlerr.UniqueViolation.
func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	if account == nil || account.Number == "" {
		return ErrInvalidAccount
	}

	err := r.inTx(ctx, "create", func(s database.Session) error {
		_, err := s.Exec(ctx, insertAccountSQL, account.Number, account.Name, account.Balance)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create account %s: %w", account.Number, err)
	}

	r.logger.Debug().Str("number", account.Number).Msg("account created")
	return nil
}

// FindByNumber looks an account up by primary key. It returns (nil, nil)
// when no account has that number.
func (r *AccountRepository) FindByNumber(ctx context.Context, number string) (*model.Account, error) {
	s, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	defer r.release(s)

	account, err := findAccount(ctx, s, number)
	if errors.Is(err, database.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", number, err)
	}
	return account, nil
}

// Update applies the caller's name and balance onto the stored account with
// the same number. The stored row is read and written in one transaction.
func (r *AccountRepository) Update(ctx context.Context, account *model.Account) error {
	if account == nil || account.Number == "" {
		return ErrInvalidAccount
	}

	err := r.inTx(ctx, "update", func(s database.Session) error {
		stored, err := findAccount(ctx, s, account.Number)
		if errors.Is(err, database.ErrNoRows) {
			return ErrAccountNotFound
		}
		if err != nil {
			return err
		}

		stored.Name = account.Name
		stored.Balance = account.Balance

		_, err = s.Exec(ctx, updateAccountSQL, stored.Number, stored.Name, stored.Balance)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.Number, err)
	}

	r.logger.Debug().Str("number", account.Number).Msg("account updated")
	return nil
}

// Delete removes the account with the given number. A number that is not
// stored fails with ErrAccountNotFound.
func (r *AccountRepository) Delete(ctx context.Context, number string) error {
	s, err := r.session(ctx)
	if err != nil {
		return err
	}
	defer r.release(s)

	if _, err := findAccount(ctx, s, number); err != nil {
		if errors.Is(err, database.ErrNoRows) {
			err = ErrAccountNotFound
		}
		return fmt.Errorf("failed to delete account %s: %w", number, err)
	}

	err = r.runTx(ctx, s, "delete", func() error {
		n, err := s.Exec(ctx, deleteAccountSQL, number)
		if err != nil {
			return err
		}
		// Removed by someone else since the lookup.
		if n == 0 {
			return ErrAccountNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", number, err)
	}

	r.logger.Debug().Str("number", number).Msg("account deleted")
	return nil
}

// ListAll returns every stored account in engine order. The result is never nil.
func (r *AccountRepository) ListAll(ctx context.Context) ([]model.Account, error) {
	accounts, err := r.list(ctx, listAccountsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// Count returns the number of stored accounts using the precompiled
// count_accounts query.
func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	s, err := r.session(ctx)
	if err != nil {
		return 0, err
	}
	defer r.release(s)

	var count int
	if err := s.QueryNamed(ctx, database.QueryCountAccounts).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", sqlerr.Classify(err))
	}
	return count, nil
}

// ListByName returns the accounts whose name equals name exactly
// (case-sensitive). The result is never nil.
func (r *AccountRepository) ListByName(ctx context.Context, name string) ([]model.Account, error) {
	accounts, err := r.list(ctx, listAccountsByNameSQL, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts named %q: %w", name, err)
	}
	return accounts, nil
}

func (r *AccountRepository) list(ctx context.Context, query string, args ...any) ([]model.Account, error) {
	s, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	defer r.release(s)

	rows, err := s.Query(ctx, query, args...)
	if err != nil {
		return nil, sqlerr.Classify(err)
	}
	defer rows.Close()

	accounts := make([]model.Account, 0)
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.Number, &a.Name, &a.Balance); err != nil {
			return nil, sqlerr.Classify(err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlerr.Classify(err)
	}
	return accounts, nil
}

func findAccount(ctx context.Context, s database.Session, number string) (*model.Account, error) {
	var a model.Account
	if err := s.QueryRow(ctx, selectAccountSQL, number).Scan(&a.Number, &a.Name, &a.Balance); err != nil {
		return nil, sqlerr.Classify(err)
	}
	return &a, nil
}

func (r *AccountRepository) session(ctx context.Context) (database.Session, error) {
	s, err := r.factory.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return s, nil
}

// release closes the session; a failure is logged, never returned.
func (r *AccountRepository) release(s database.Session) {
	if err := s.Close(); err != nil {
		r.logger.Warn().Err(err).Msg("failed to release session")
	}
}

// inTx runs fn in a transaction on a session of its own.
func (r *AccountRepository) inTx(ctx context.Context, op string, fn func(database.Session) error) error {
	s, err := r.session(ctx)
	if err != nil {
		return err
	}
	defer r.release(s)

	return r.runTx(ctx, s, op, func() error { return fn(s) })
}

// runTx wraps fn in Begin/Commit on s. When fn fails the transaction is
// rolled back and fn's error returned; it is never retried.
func (r *AccountRepository) runTx(ctx context.Context, s database.Session, op string, fn func() error) error {
	if err := s.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", sqlerr.Classify(err))
	}

	if err := fn(); err != nil {
		if rbErr := s.Rollback(ctx); rbErr != nil {
			r.logger.Error().Err(rbErr).Str("operation", op).Msg("failed to roll back transaction")
		}
		return sqlerr.Classify(err)
	}

	if err := s.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", sqlerr.Classify(err))
	}
	return nil
}

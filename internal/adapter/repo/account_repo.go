package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// AccountRepositoryPG implements domain.AccountRepository backed by
// PostgreSQL. Every statement goes through the SQL runner so it carries an
// audit marker.
type AccountRepositoryPG struct {
	runner *infra.SQLRunner
}

// NewAccountRepository creates a new AccountRepositoryPG.
func NewAccountRepository(runner *infra.SQLRunner) *AccountRepositoryPG {
	return &AccountRepositoryPG{runner: runner}
}

// Create inserts a new account. The database enforces email uniqueness.
func (r *AccountRepositoryPG) Create(ctx context.Context, account *domain.Account) error {
	row := r.runner.QueryRow(ctx, sqlinline.QInsertAccount,
		account.ID,
		account.Email,
		account.Name,
		string(account.Role),
		account.Coins,
		account.Country,
	)
	if err := row.Scan(&account.CreatedAt, &account.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

// GetByID fetches an account by UUID.
func (r *AccountRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.runner.QueryRow(ctx, sqlinline.QSelectAccountByID, id)
	return scanAccount(row)
}

// GetByEmail fetches an account by its lowercased email.
func (r *AccountRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.runner.QueryRow(ctx, sqlinline.QSelectAccountByEmail, email)
	return scanAccount(row)
}

// Debit atomically decreases the balance. The conditional update only
// matches active accounts with enough coins, so zero rows means the debit
// was refused; a follow-up read classifies the refusal.
func (r *AccountRepositoryPG) Debit(ctx context.Context, id string, amount int) (int, error) {
	var balance int
	err := r.runner.QueryRow(ctx, sqlinline.QDebitAccount, id, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	account, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return 0, getErr
	}
	if account.Suspended {
		return 0, domain.ErrAccountSuspended
	}
	return 0, domain.ErrInsufficientFunds
}

// Credit increases the balance and returns the new value. Suspended accounts
// may still receive credits.
func (r *AccountRepositoryPG) Credit(ctx context.Context, id string, amount int) (int, error) {
	var balance int
	err := r.runner.QueryRow(ctx, sqlinline.QCreditAccount, id, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// SetSuspended flips the ban flag.
func (r *AccountRepositoryPG) SetSuspended(ctx context.Context, id string, suspended bool) error {
	var matched string
	err := r.runner.QueryRow(ctx, sqlinline.QSetAccountSuspended, id, suspended).Scan(&matched)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAccountNotFound
		}
		return err
	}
	return nil
}

// List returns every account, oldest first.
func (r *AccountRepositoryPG) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.runner.Query(ctx, sqlinline.QListAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.Coins, &a.Suspended, &a.Country, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.Coins, &a.Suspended, &a.Country, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// error (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ domain.AccountRepository = (*AccountRepositoryPG)(nil)

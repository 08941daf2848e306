package domain

import "context"

// AccountRepository defines access and mutation methods for accounts. Debit
// and Credit are the ledger operations: implementations must serialize them
// per account so a concurrent pair of debits can never overdraw a balance.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	// Debit atomically decreases the balance and returns the new value.
	// Fails with ErrInsufficientFunds when the balance is short, and with
	// ErrAccountSuspended when the account is banned.
	Debit(ctx context.Context, id string, amount int) (int, error)
	// Credit increases the balance and returns the new value. Suspended
	// accounts may still be credited.
	Credit(ctx context.Context, id string, amount int) (int, error)
	SetSuspended(ctx context.Context, id string, suspended bool) error
	List(ctx context.Context) ([]Account, error)
}

// JobRepository defines persistence for job records. Update is an atomic
// read-modify-write: the mutator runs with the job exclusively held, and
// implementations must refuse to touch a job already in a terminal state.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id string) (*Job, error)
	Update(ctx context.Context, id string, mutate func(*Job) error) (*Job, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Job, error)
	ListActive(ctx context.Context) ([]Job, error)
	ListAll(ctx context.Context) ([]Job, error)
}

// StatsRepository computes the admin rollups from stored snapshots.
type StatsRepository interface {
	Summary(ctx context.Context) (*SystemStats, error)
}

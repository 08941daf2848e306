// Package memory provides mutex-guarded in-process implementations of the
// repository interfaces. They back the demo deployment mode (no DATABASE_URL
// configured) and the concurrency tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"server/internal/domain"
)

// AccountStore implements domain.AccountRepository in memory. A single
// mutex serializes balance mutations, which is the correctness contract the
// ledger requires: two concurrent debits can never both pass the balance
// check.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	byEmail  map[string]string
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*domain.Account),
		byEmail:  make(map[string]string),
	}
}

func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(account.Email)
	if _, ok := s.byEmail[email]; ok {
		return domain.ErrEmailTaken
	}
	now := time.Now().UTC()
	cp := *account
	cp.Email = email
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.accounts[cp.ID] = &cp
	s.byEmail[email] = cp.ID
	*account = cp
	return nil
}

func (s *AccountStore) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *s.accounts[id]
	return &cp, nil
}

func (s *AccountStore) Debit(ctx context.Context, id string, amount int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	if acc.Suspended {
		return acc.Coins, domain.ErrAccountSuspended
	}
	if acc.Coins < amount {
		return acc.Coins, domain.ErrInsufficientFunds
	}
	acc.Coins -= amount
	acc.UpdatedAt = time.Now().UTC()
	return acc.Coins, nil
}

func (s *AccountStore) Credit(ctx context.Context, id string, amount int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	acc.Coins += amount
	acc.UpdatedAt = time.Now().UTC()
	return acc.Coins, nil
}

func (s *AccountStore) SetSuspended(ctx context.Context, id string, suspended bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Suspended = suspended
	acc.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *AccountStore) List(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ domain.AccountRepository = (*AccountStore)(nil)

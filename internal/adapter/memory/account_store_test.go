package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"server/internal/domain"
)

func newTestAccount(t *testing.T, store *AccountStore, coins int) *domain.Account {
	t.Helper()
	acc := &domain.Account{
		ID:    "acc-" + t.Name(),
		Email: t.Name() + "@example.com",
		Name:  "Test",
		Role:  domain.AccountRoleUser,
		Coins: coins,
	}
	if err := store.Create(context.Background(), acc); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return acc
}

func TestDebitInsufficientLeavesBalanceUnchanged(t *testing.T) {
	store := NewAccountStore()
	acc := newTestAccount(t, store, 10)

	_, err := store.Debit(context.Background(), acc.ID, 15)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	got, err := store.GetByID(context.Background(), acc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Coins != 10 {
		t.Fatalf("balance = %d, want 10 after rejected debit", got.Coins)
	}
}

func TestDebitThenCredit(t *testing.T) {
	store := NewAccountStore()
	acc := newTestAccount(t, store, 50)

	balance, err := store.Debit(context.Background(), acc.ID, 15)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance != 35 {
		t.Fatalf("balance = %d, want 35", balance)
	}
	balance, err = store.Credit(context.Background(), acc.ID, 500)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if balance != 535 {
		t.Fatalf("balance = %d, want 535", balance)
	}
}

func TestDebitSuspendedAccountRejectedButCreditAllowed(t *testing.T) {
	store := NewAccountStore()
	acc := newTestAccount(t, store, 100)
	if err := store.SetSuspended(context.Background(), acc.ID, true); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	if _, err := store.Debit(context.Background(), acc.ID, 10); !errors.Is(err, domain.ErrAccountSuspended) {
		t.Fatalf("debit err = %v, want ErrAccountSuspended", err)
	}
	balance, err := store.Credit(context.Background(), acc.ID, 500)
	if err != nil {
		t.Fatalf("credit suspended account: %v", err)
	}
	if balance != 600 {
		t.Fatalf("balance = %d, want 600", balance)
	}
}

func TestDebitUnknownAccount(t *testing.T) {
	store := NewAccountStore()
	if _, err := store.Debit(context.Background(), "missing", 1); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	store := NewAccountStore()
	acc := newTestAccount(t, store, 15)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = store.Debit(context.Background(), acc.ID, 15)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d debits succeeded, want exactly 1", succeeded)
	}
	got, err := store.GetByID(context.Background(), acc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Coins != 0 {
		t.Fatalf("balance = %d, want 0", got.Coins)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	store := NewAccountStore()
	newTestAccount(t, store, 10)
	dup := &domain.Account{ID: "acc-dup", Email: t.Name() + "@example.com"}
	if err := store.Create(context.Background(), dup); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

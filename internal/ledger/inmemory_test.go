package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestInMemoryStore_AtomicCommitsStagedWrites(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	w, err := SeedWallet(ctx, s, 1, "100")
	if err != nil {
		t.Fatalf("seed wallet: %v", err)
	}

	err = s.Atomic(ctx, "alice", func(ctx context.Context, tx Tx) error {
		locked, err := tx.LockWallet(ctx, w.ID)
		if err != nil {
			return err
		}
		tr, err := Record(ctx, tx, locked, Entry{
			Amount:            decimal.NewFromInt(40),
			Type:              TypeDeposit,
			OppositePartyType: PartyIBAN,
			OppositeParty:     "TR000001",
		})
		if err != nil {
			return err
		}
		DefaultPolicy().Post(&locked, tr)
		return tx.SaveWallet(ctx, &locked)
	})
	if err != nil {
		t.Fatalf("atomic: %v", err)
	}

	got, err := s.Wallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("load wallet: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(140)) || !got.UsableBalance.Equal(decimal.NewFromInt(140)) {
		t.Fatalf("unexpected balances %s/%s", got.Balance, got.UsableBalance)
	}
	if got.UpdatedBy != "alice" || got.CreatedBy != "seed" {
		t.Fatalf("unexpected audit stamps %+v", got.Audit)
	}

	txs, err := s.ListByWallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 || txs[0].Status != StatusApproved || txs[0].CreatedBy != "alice" {
		t.Fatalf("unexpected transactions %+v", txs)
	}
}

func TestInMemoryStore_AtomicRollsBackOnError(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	w, _ := SeedWallet(ctx, s, 1, "100")
	boom := errors.New("boom")

	err := s.Atomic(ctx, "alice", func(ctx context.Context, tx Tx) error {
		locked, err := tx.LockWallet(ctx, w.ID)
		if err != nil {
			return err
		}
		locked.Balance = decimal.Zero
		if err := tx.SaveWallet(ctx, &locked); err != nil {
			return err
		}
		if _, err := Record(ctx, tx, locked, Entry{Amount: decimal.NewFromInt(1), Type: TypeWithdraw, OppositePartyType: PartyIBAN}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := s.Wallet(ctx, w.ID)
	if !got.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("rolled back balance changed: %s", got.Balance)
	}
	txs, _ := s.ListByWallet(ctx, w.ID)
	if len(txs) != 0 {
		t.Fatalf("expected no transactions, got %d", len(txs))
	}
}

func TestInMemoryStore_CanceledContextDiscardsWork(t *testing.T) {
	s := NewInMemory()
	w, _ := SeedWallet(context.Background(), s, 1, "100")
	ctx, cancel := context.WithCancel(context.Background())

	err := s.Atomic(ctx, "alice", func(ctx context.Context, tx Tx) error {
		locked, err := tx.LockWallet(ctx, w.ID)
		if err != nil {
			return err
		}
		locked.UsableBalance = decimal.Zero
		if err := tx.SaveWallet(ctx, &locked); err != nil {
			return err
		}
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	got, _ := s.Wallet(context.Background(), w.ID)
	if !got.UsableBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("canceled unit was committed: %s", got.UsableBalance)
	}
}

func TestInMemoryStore_NotFound(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	err := s.Atomic(ctx, "alice", func(ctx context.Context, tx Tx) error {
		_, err := tx.LockWallet(ctx, 42)
		return err
	})
	if !errors.Is(err, ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}

	err = s.Atomic(ctx, "alice", func(ctx context.Context, tx Tx) error {
		_, _, err := tx.LockTransaction(ctx, 42)
		return err
	})
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}

	if _, err := s.Transaction(ctx, 7); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestInMemoryStore_WritesRequireLock(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	w, _ := SeedWallet(ctx, s, 1, "100")

	err := s.Atomic(ctx, "alice", func(ctx context.Context, tx Tx) error {
		return tx.SaveWallet(ctx, &w)
	})
	if !errors.Is(err, errNotLocked) {
		t.Fatalf("expected errNotLocked, got %v", err)
	}
}

func TestInMemoryStore_LockWaitHonoursContext(t *testing.T) {
	s := NewInMemory()
	w, _ := SeedWallet(context.Background(), s, 1, "100")

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.Atomic(context.Background(), "holder", func(ctx context.Context, tx Tx) error {
			if _, err := tx.LockWallet(ctx, w.ID); err != nil {
				return err
			}
			close(locked)
			<-done
			return nil
		})
	}()
	<-locked
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Atomic(ctx, "waiter", func(ctx context.Context, tx Tx) error {
		_, err := tx.LockWallet(ctx, w.ID)
		return err
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestInMemoryStore_ConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	w, _ := SeedWallet(ctx, s, 1, "500")
	amount := decimal.NewFromInt(100)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Atomic(ctx, "race", func(ctx context.Context, tx Tx) error {
				locked, err := tx.LockWallet(ctx, w.ID)
				if err != nil {
					return err
				}
				if locked.UsableBalance.LessThan(amount) {
					return ErrInsufficientBalance
				}
				tr, err := Record(ctx, tx, locked, Entry{Amount: amount, Type: TypeWithdraw, OppositePartyType: PartyIBAN})
				if err != nil {
					return err
				}
				DefaultPolicy().Post(&locked, tr)
				return tx.SaveWallet(ctx, &locked)
			})
			switch {
			case err == nil:
				mu.Lock()
				succeeded++
				mu.Unlock()
			case !errors.Is(err, ErrInsufficientBalance):
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 5 {
		t.Fatalf("expected 5 successful withdrawals, got %d", succeeded)
	}
	got, _ := s.Wallet(ctx, w.ID)
	if !got.UsableBalance.IsZero() || !got.Balance.IsZero() {
		t.Fatalf("expected drained wallet, got %s/%s", got.Balance, got.UsableBalance)
	}
	txs, _ := s.ListByWallet(ctx, w.ID)
	if len(txs) != 5 {
		t.Fatalf("expected 5 transactions, got %d", len(txs))
	}
}

func TestInMemoryStore_FindWalletsOrderedByID(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	for _, seed := range []struct {
		customer int64
		balance  string
	}{{1, "10"}, {2, "50"}, {1, "200"}, {1, "50"}} {
		if _, err := SeedWallet(ctx, s, seed.customer, seed.balance); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	customer := int64(1)
	floor := decimal.NewFromInt(50)
	got, err := s.FindWallets(ctx, WalletFilter{CustomerID: &customer, MinBalance: &floor})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 4 {
		t.Fatalf("unexpected wallets %+v", got)
	}

	all, _ := s.FindWallets(ctx, WalletFilter{})
	if len(all) != 4 {
		t.Fatalf("expected 4 wallets, got %d", len(all))
	}
}

func TestRecord_RejectsUnknownTypeOrParty(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	w, _ := SeedWallet(ctx, s, 1, "100")

	tests := []struct {
		name  string
		entry Entry
	}{
		{name: "empty party type", entry: Entry{Amount: decimal.NewFromInt(5), Type: TypeDeposit, OppositeParty: "TR01"}},
		{name: "unknown party type", entry: Entry{Amount: decimal.NewFromInt(5), Type: TypeDeposit, OppositePartyType: "CARD", OppositeParty: "TR01"}},
		{name: "unknown type", entry: Entry{Amount: decimal.NewFromInt(5), Type: "REFUND", OppositePartyType: PartyIBAN, OppositeParty: "TR01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Atomic(ctx, "alice", func(ctx context.Context, tx Tx) error {
				locked, err := tx.LockWallet(ctx, w.ID)
				if err != nil {
					return err
				}
				_, err = Record(ctx, tx, locked, tt.entry)
				return err
			})
			if !errors.Is(err, ErrInvalidEntry) {
				t.Fatalf("expected ErrInvalidEntry, got %v", err)
			}
		})
	}

	txs, _ := s.ListByWallet(ctx, w.ID)
	if len(txs) != 0 {
		t.Fatalf("expected no transactions, got %d", len(txs))
	}
}

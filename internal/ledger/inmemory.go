package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var errNotLocked = errors.New("wallet not locked in this unit of work")

type inMemoryStore struct {
	mu           sync.RWMutex
	wallets      map[int64]Wallet
	transactions map[int64]Transaction
	byWallet     map[int64][]int64
	walletSeq    int64
	txSeq        int64

	locksMu sync.Mutex
	locks   map[int64]chan struct{}

	now func() time.Time
}

// NewInMemory creates a concurrency-safe in-memory store. Wallet locks are
// held for the lifetime of a unit of work, matching row locks in Postgres.
func NewInMemory() Store {
	return &inMemoryStore{
		wallets:      make(map[int64]Wallet),
		transactions: make(map[int64]Transaction),
		byWallet:     make(map[int64][]int64),
		locks:        make(map[int64]chan struct{}),
		now:          time.Now,
	}
}

func (s *inMemoryStore) walletLock(id int64) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}

func (s *inMemoryStore) Atomic(ctx context.Context, actor string, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &inMemoryTx{
		store:        s,
		actor:        actor,
		now:          s.now().UTC(),
		held:         make(map[int64]chan struct{}),
		wallets:      make(map[int64]Wallet),
		transactions: make(map[int64]Transaction),
	}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *inMemoryStore) Wallet(_ context.Context, id int64) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[id]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (s *inMemoryStore) Transaction(_ context.Context, id int64) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, nil
}

func (s *inMemoryStore) ListByWallet(_ context.Context, walletID int64) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byWallet[walletID]
	out := make([]Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.transactions[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *inMemoryStore) FindWallets(_ context.Context, filter WalletFilter) ([]Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Wallet, 0)
	for _, w := range s.wallets {
		if filter.Match(w) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// inMemoryTx stages writes and applies them to the store on commit.
type inMemoryTx struct {
	store *inMemoryStore
	actor string
	now   time.Time

	held         map[int64]chan struct{}
	order        []int64
	wallets      map[int64]Wallet
	newWallets   []int64
	transactions map[int64]Transaction
	newTxs       []int64
}

func (tx *inMemoryTx) lock(ctx context.Context, id int64) error {
	if _, ok := tx.held[id]; ok {
		return nil
	}
	l := tx.store.walletLock(id)
	select {
	case l <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	tx.held[id] = l
	tx.order = append(tx.order, id)
	return nil
}

func (tx *inMemoryTx) release() {
	for i := len(tx.order) - 1; i >= 0; i-- {
		<-tx.held[tx.order[i]]
	}
	tx.held = nil
	tx.order = nil
}

func (tx *inMemoryTx) currentWallet(id int64) (Wallet, bool) {
	if w, ok := tx.wallets[id]; ok {
		return w, true
	}
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	w, ok := tx.store.wallets[id]
	return w, ok
}

func (tx *inMemoryTx) currentTransaction(id int64) (Transaction, bool) {
	if t, ok := tx.transactions[id]; ok {
		return t, true
	}
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	t, ok := tx.store.transactions[id]
	return t, ok
}

func (tx *inMemoryTx) LockWallet(ctx context.Context, id int64) (Wallet, error) {
	if _, ok := tx.currentWallet(id); !ok {
		return Wallet{}, ErrWalletNotFound
	}
	if err := tx.lock(ctx, id); err != nil {
		return Wallet{}, err
	}
	w, _ := tx.currentWallet(id)
	return w, nil
}

func (tx *inMemoryTx) LockTransaction(ctx context.Context, id int64) (Transaction, Wallet, error) {
	t, ok := tx.currentTransaction(id)
	if !ok {
		return Transaction{}, Wallet{}, ErrTransactionNotFound
	}
	w, err := tx.LockWallet(ctx, t.WalletID)
	if err != nil {
		return Transaction{}, Wallet{}, err
	}
	// re-read: another unit may have decided it while we waited for the lock
	t, _ = tx.currentTransaction(id)
	return t, w, nil
}

func (tx *inMemoryTx) InsertWallet(_ context.Context, w *Wallet) error {
	tx.store.mu.Lock()
	tx.store.walletSeq++
	w.ID = tx.store.walletSeq
	tx.store.mu.Unlock()

	w.CreatedAt, w.CreatedBy = tx.now, tx.actor
	w.UpdatedAt, w.UpdatedBy = tx.now, tx.actor
	tx.wallets[w.ID] = *w
	tx.newWallets = append(tx.newWallets, w.ID)
	return nil
}

func (tx *inMemoryTx) owns(walletID int64) bool {
	if _, ok := tx.held[walletID]; ok {
		return true
	}
	for _, id := range tx.newWallets {
		if id == walletID {
			return true
		}
	}
	return false
}

func (tx *inMemoryTx) SaveWallet(_ context.Context, w *Wallet) error {
	if !tx.owns(w.ID) {
		return errNotLocked
	}
	w.UpdatedAt, w.UpdatedBy = tx.now, tx.actor
	tx.wallets[w.ID] = *w
	return nil
}

func (tx *inMemoryTx) InsertTransaction(_ context.Context, t *Transaction) error {
	if !tx.owns(t.WalletID) {
		return errNotLocked
	}
	tx.store.mu.Lock()
	tx.store.txSeq++
	t.ID = tx.store.txSeq
	tx.store.mu.Unlock()

	t.CreatedAt, t.CreatedBy = tx.now, tx.actor
	t.UpdatedAt, t.UpdatedBy = tx.now, tx.actor
	tx.transactions[t.ID] = *t
	tx.newTxs = append(tx.newTxs, t.ID)
	return nil
}

func (tx *inMemoryTx) SaveTransaction(_ context.Context, t *Transaction) error {
	if !tx.owns(t.WalletID) {
		return errNotLocked
	}
	t.UpdatedAt, t.UpdatedBy = tx.now, tx.actor
	tx.transactions[t.ID] = *t
	return nil
}

func (tx *inMemoryTx) commit() {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range tx.wallets {
		s.wallets[id] = w
	}
	for id, t := range tx.transactions {
		s.transactions[id] = t
	}
	for _, id := range tx.newTxs {
		t := tx.transactions[id]
		s.byWallet[t.WalletID] = append(s.byWallet[t.WalletID], id)
	}
}

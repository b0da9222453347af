package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	walletColumns      = `id, customer_id, wallet_name, currency, active_for_shopping, active_for_withdraw,
        balance, usable_balance, created_at, created_by, updated_at, updated_by`
	transactionColumns = `id, wallet_id, amount, type, opposite_party_type, opposite_party, status,
        created_at, created_by, updated_at, updated_by`
)

// PostgresStore persists wallets and transactions in PostgreSQL. Units of work
// map to database transactions and wallet locks to SELECT ... FOR UPDATE.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Atomic runs fn inside a database transaction, committing only if fn succeeds.
func (s *PostgresStore) Atomic(ctx context.Context, actor string, fn func(ctx context.Context, tx Tx) error) (err error) {
	pgTx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := pgTx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err = fn(ctx, &postgresTx{tx: pgTx, actor: actor}); err != nil {
		return err
	}
	if err = pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Wallet(ctx context.Context, id int64) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
	return scanWallet(row)
}

func (s *PostgresStore) Transaction(ctx context.Context, id int64) (Transaction, error) {
	row := s.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (s *PostgresStore) ListByWallet(ctx context.Context, walletID int64) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE wallet_id = $1 ORDER BY id`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindWallets(ctx context.Context, filter WalletFilter) ([]Wallet, error) {
	where, args := filter.where()
	rows, err := s.db.Query(ctx, `SELECT `+walletColumns+` FROM wallets`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Wallet, 0)
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

type postgresTx struct {
	tx    pgx.Tx
	actor string
}

func (t *postgresTx) LockWallet(ctx context.Context, id int64) (Wallet, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id)
	return scanWallet(row)
}

func (t *postgresTx) LockTransaction(ctx context.Context, id int64) (Transaction, Wallet, error) {
	var walletID int64
	if err := t.tx.QueryRow(ctx, `SELECT wallet_id FROM transactions WHERE id = $1`, id).Scan(&walletID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, Wallet{}, ErrTransactionNotFound
		}
		return Transaction{}, Wallet{}, err
	}
	w, err := t.LockWallet(ctx, walletID)
	if err != nil {
		return Transaction{}, Wallet{}, err
	}
	row := t.tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
	tr, err := scanTransaction(row)
	if err != nil {
		return Transaction{}, Wallet{}, err
	}
	return tr, w, nil
}

func (t *postgresTx) InsertWallet(ctx context.Context, w *Wallet) error {
	now := time.Now().UTC()
	w.CreatedAt, w.CreatedBy = now, t.actor
	w.UpdatedAt, w.UpdatedBy = now, t.actor
	const query = `INSERT INTO wallets (customer_id, wallet_name, currency, active_for_shopping, active_for_withdraw,
        balance, usable_balance, created_at, created_by, updated_at, updated_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $8, $9) RETURNING id`
	return t.tx.QueryRow(ctx, query, w.CustomerID, w.Name, string(w.Currency), w.ActiveForShopping, w.ActiveForWithdraw,
		w.Balance, w.UsableBalance, now, t.actor).Scan(&w.ID)
}

func (t *postgresTx) SaveWallet(ctx context.Context, w *Wallet) error {
	now := time.Now().UTC()
	const query = `UPDATE wallets SET balance = $2, usable_balance = $3, active_for_shopping = $4,
        active_for_withdraw = $5, updated_at = $6, updated_by = $7 WHERE id = $1`
	tag, err := t.tx.Exec(ctx, query, w.ID, w.Balance, w.UsableBalance, w.ActiveForShopping, w.ActiveForWithdraw, now, t.actor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	w.UpdatedAt, w.UpdatedBy = now, t.actor
	return nil
}

func (t *postgresTx) InsertTransaction(ctx context.Context, tr *Transaction) error {
	now := time.Now().UTC()
	tr.CreatedAt, tr.CreatedBy = now, t.actor
	tr.UpdatedAt, tr.UpdatedBy = now, t.actor
	const query = `INSERT INTO transactions (wallet_id, amount, type, opposite_party_type, opposite_party, status,
        created_at, created_by, updated_at, updated_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $7, $8) RETURNING id`
	return t.tx.QueryRow(ctx, query, tr.WalletID, tr.Amount, string(tr.Type), string(tr.OppositePartyType),
		tr.OppositeParty, string(tr.Status), now, t.actor).Scan(&tr.ID)
}

func (t *postgresTx) SaveTransaction(ctx context.Context, tr *Transaction) error {
	now := time.Now().UTC()
	tag, err := t.tx.Exec(ctx, `UPDATE transactions SET status = $2, updated_at = $3, updated_by = $4 WHERE id = $1`,
		tr.ID, string(tr.Status), now, t.actor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	tr.UpdatedAt, tr.UpdatedBy = now, t.actor
	return nil
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		currency  string
		updatedAt *time.Time
		updatedBy *string
	)
	err := row.Scan(&w.ID, &w.CustomerID, &w.Name, &currency, &w.ActiveForShopping, &w.ActiveForWithdraw,
		&w.Balance, &w.UsableBalance, &w.CreatedAt, &w.CreatedBy, &updatedAt, &updatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.Currency = Currency(currency)
	if updatedAt != nil {
		w.UpdatedAt = *updatedAt
	}
	if updatedBy != nil {
		w.UpdatedBy = *updatedBy
	}
	return w, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t                      Transaction
		typ, partyType, status string
		updatedAt              *time.Time
		updatedBy              *string
	)
	err := row.Scan(&t.ID, &t.WalletID, &t.Amount, &typ, &partyType, &t.OppositeParty, &status,
		&t.CreatedAt, &t.CreatedBy, &updatedAt, &updatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	t.Type = TransactionType(typ)
	t.OppositePartyType = OppositePartyType(partyType)
	t.Status = TransactionStatus(status)
	if updatedAt != nil {
		t.UpdatedAt = *updatedAt
	}
	if updatedBy != nil {
		t.UpdatedBy = *updatedBy
	}
	return t, nil
}

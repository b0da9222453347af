package approval

import (
	"context"
	"errors"
	"log/slog"

	"github.com/congo-pay/wallet_service/internal/ledger"
	"github.com/congo-pay/wallet_service/internal/metrics"
	"github.com/congo-pay/wallet_service/internal/notification"
)

// Service finalizes pending transactions and answers transaction queries.
type Service struct {
	store    ledger.Store
	policy   ledger.Policy
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService constructs an approval service.
func NewService(store ledger.Store, policy ledger.Policy, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, policy: policy, notifier: notifier, logger: logger}
}

// Decision approves or denies one transaction.
type Decision struct {
	TransactionID int64
	Status        ledger.TransactionStatus
}

// Decide applies d under the owning wallet's lock. Approval releases the
// amount into the usable balance. Denial leaves the total balance as recorded
// unless the policy reverses it.
func (s *Service) Decide(ctx context.Context, actor string, d Decision) (ledger.Transaction, error) {
	if !d.Status.Terminal() {
		return ledger.Transaction{}, s.fail(ctx, d, ledger.ErrInvalidDecision)
	}

	var (
		tr ledger.Transaction
		w  ledger.Wallet
	)
	err := s.store.Atomic(ctx, actor, func(ctx context.Context, tx ledger.Tx) error {
		locked, wallet, err := tx.LockTransaction(ctx, d.TransactionID)
		if err != nil {
			return err
		}
		previous := locked.Status
		if err := s.policy.Settle(&wallet, &locked, d.Status); err != nil {
			return err
		}
		if previous.Terminal() {
			s.logger.Warn("re-finalizing transaction", "transaction_id", locked.ID, "from", previous, "to", d.Status)
		}
		if err := tx.SaveWallet(ctx, &wallet); err != nil {
			return err
		}
		if err := tx.SaveTransaction(ctx, &locked); err != nil {
			return err
		}
		tr, w = locked, wallet
		return nil
	})
	if err != nil {
		return ledger.Transaction{}, s.fail(ctx, d, ledger.Internal(err))
	}

	metrics.ApprovalsTotal.WithLabelValues(string(d.Status)).Inc()
	s.logger.Info("transaction finalized",
		"transaction_id", tr.ID,
		"wallet_id", tr.WalletID,
		"status", tr.Status,
		"actor", actor,
	)
	notification.Deliver(ctx, s.notifier, s.logger, notification.ForTransaction(notification.KindTransactionFinalized, tr, w))
	return tr, nil
}

// List returns a wallet's transactions ordered by id.
func (s *Service) List(ctx context.Context, walletID int64) ([]ledger.Transaction, error) {
	if _, err := s.store.Wallet(ctx, walletID); err != nil {
		return nil, ledger.Internal(err)
	}
	txs, err := s.store.ListByWallet(ctx, walletID)
	if err != nil {
		s.logger.Error("list transactions", "wallet_id", walletID, "error", err)
		return nil, ledger.Internal(err)
	}
	return txs, nil
}

// Get returns one transaction of walletID.
func (s *Service) Get(ctx context.Context, walletID, transactionID int64) (ledger.Transaction, error) {
	tr, err := s.store.Transaction(ctx, transactionID)
	if err != nil {
		return ledger.Transaction{}, ledger.Internal(err)
	}
	if tr.WalletID != walletID {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}
	return tr, nil
}

func (s *Service) fail(ctx context.Context, d Decision, err error) error {
	metrics.Failed("approve", err)
	level := slog.LevelInfo
	if errors.Is(err, ledger.ErrInternal) {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "approval rejected",
		"transaction_id", d.TransactionID,
		"decision", d.Status,
		"error", err,
	)
	return err
}

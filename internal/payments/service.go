package payments

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_service/internal/ledger"
	"github.com/congo-pay/wallet_service/internal/metrics"
	"github.com/congo-pay/wallet_service/internal/notification"
)

// Service records deposits and withdrawals and applies them to wallet balances.
type Service struct {
	store    ledger.Store
	policy   ledger.Policy
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService constructs a payment service.
func NewService(store ledger.Store, policy ledger.Policy, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, policy: policy, notifier: notifier, logger: logger}
}

// Command moves Amount into or out of a wallet. Source names where the money
// comes from on deposit and where it goes on withdrawal.
type Command struct {
	WalletID      int64
	Amount        decimal.Decimal
	Source        ledger.OppositePartyType
	OppositeParty string
}

// Result describes the wallet after the transaction was recorded.
type Result struct {
	WalletID      int64
	Currency      ledger.Currency
	Balance       decimal.Decimal
	UsableBalance decimal.Decimal
	TransactionID int64
	Status        ledger.TransactionStatus
}

// Deposit credits a wallet. Amounts above the approval threshold stay PENDING
// and only become usable once approved.
func (s *Service) Deposit(ctx context.Context, actor string, cmd Command) (Result, error) {
	return s.process(ctx, actor, ledger.TypeDeposit, cmd)
}

// Withdraw debits a wallet that is active for withdrawals and holds enough
// usable balance.
func (s *Service) Withdraw(ctx context.Context, actor string, cmd Command) (Result, error) {
	return s.process(ctx, actor, ledger.TypeWithdraw, cmd)
}

func (s *Service) process(ctx context.Context, actor string, typ ledger.TransactionType, cmd Command) (Result, error) {
	op := strings.ToLower(string(typ))
	if !ledger.ValidAmount(cmd.Amount) {
		return Result{}, s.fail(ctx, op, cmd, ledger.ErrInvalidAmount)
	}

	var (
		w  ledger.Wallet
		tr ledger.Transaction
	)
	err := s.store.Atomic(ctx, actor, func(ctx context.Context, tx ledger.Tx) error {
		locked, err := tx.LockWallet(ctx, cmd.WalletID)
		if err != nil {
			return err
		}
		if typ == ledger.TypeWithdraw {
			if !locked.ActiveForWithdraw {
				return ledger.ErrWithdrawNotAllowed
			}
			if locked.UsableBalance.LessThan(cmd.Amount) {
				return ledger.ErrInsufficientBalance
			}
		}

		tr, err = ledger.Record(ctx, tx, locked, ledger.Entry{
			Amount:            cmd.Amount,
			Type:              typ,
			OppositePartyType: cmd.Source,
			OppositeParty:     cmd.OppositeParty,
		})
		if err != nil {
			return err
		}
		s.policy.Post(&locked, tr)
		if err := tx.SaveWallet(ctx, &locked); err != nil {
			return err
		}
		w = locked
		return nil
	})
	if err != nil {
		return Result{}, s.fail(ctx, op, cmd, ledger.Internal(err))
	}

	metrics.TransactionsTotal.WithLabelValues(string(typ), string(tr.Status)).Inc()
	s.logger.Info("transaction recorded",
		"transaction_id", tr.ID,
		"wallet_id", w.ID,
		"type", typ,
		"status", tr.Status,
		"amount", tr.Amount.String(),
		"actor", actor,
	)
	if tr.Status == ledger.StatusPending {
		notification.Deliver(ctx, s.notifier, s.logger, notification.ForTransaction(notification.KindTransactionPending, tr, w))
	}

	return Result{
		WalletID:      w.ID,
		Currency:      w.Currency,
		Balance:       w.Balance,
		UsableBalance: w.UsableBalance,
		TransactionID: tr.ID,
		Status:        tr.Status,
	}, nil
}

func (s *Service) fail(ctx context.Context, op string, cmd Command, err error) error {
	metrics.Failed(op, err)
	level := slog.LevelInfo
	if errors.Is(err, ledger.ErrInternal) {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, op+" rejected",
		"wallet_id", cmd.WalletID,
		"amount", cmd.Amount.String(),
		"error", err,
	)
	return err
}

package wallet

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_service/internal/identity"
	"github.com/congo-pay/wallet_service/internal/ledger"
)

// CustomerFinder resolves customers that wallets are opened for.
type CustomerFinder interface {
	FindCustomer(ctx context.Context, id int64) (identity.User, error)
}

// Service exposes wallet operations backed by the ledger store.
type Service struct {
	store     ledger.Store
	customers CustomerFinder
	logger    *slog.Logger
}

// NewService builds a wallet service instance.
func NewService(store ledger.Store, customers CustomerFinder, logger *slog.Logger) *Service {
	return &Service{store: store, customers: customers, logger: logger}
}

// Create opens an empty wallet for an existing customer.
func (s *Service) Create(ctx context.Context, actor string, input CreateInput) (ledger.Wallet, error) {
	if !input.Currency.Valid() {
		return ledger.Wallet{}, ledger.ErrInvalidCurrency
	}
	if _, err := s.customers.FindCustomer(ctx, input.CustomerID); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return ledger.Wallet{}, ledger.ErrCustomerNotFound
		}
		return ledger.Wallet{}, ledger.Internal(err)
	}

	w := ledger.Wallet{
		CustomerID:        input.CustomerID,
		Name:              strings.TrimSpace(input.Name),
		Currency:          input.Currency,
		ActiveForShopping: input.ActiveForShopping,
		ActiveForWithdraw: input.ActiveForWithdraw,
		Balance:           decimal.Zero,
		UsableBalance:     decimal.Zero,
	}
	err := s.store.Atomic(ctx, actor, func(ctx context.Context, tx ledger.Tx) error {
		return tx.InsertWallet(ctx, &w)
	})
	if err != nil {
		s.logger.Error("create wallet", "customer_id", input.CustomerID, "error", err)
		return ledger.Wallet{}, ledger.Internal(err)
	}
	s.logger.Info("wallet created", "wallet_id", w.ID, "customer_id", w.CustomerID, "currency", w.Currency, "actor", actor)
	return w, nil
}

// Get retrieves a wallet.
func (s *Service) Get(ctx context.Context, id int64) (ledger.Wallet, error) {
	w, err := s.store.Wallet(ctx, id)
	return w, ledger.Internal(err)
}

// Balance returns the wallet's current balances.
func (s *Service) Balance(ctx context.Context, id int64) (Balance, error) {
	w, err := s.Get(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		WalletID:      w.ID,
		Currency:      w.Currency,
		Balance:       w.Balance,
		UsableBalance: w.UsableBalance,
		AsOf:          time.Now().UTC(),
	}, nil
}

// Find returns the wallets matching filter ordered by id. Inverted balance
// bounds match nothing.
func (s *Service) Find(ctx context.Context, filter ledger.WalletFilter) ([]ledger.Wallet, error) {
	if filter.MinBalance != nil && filter.MaxBalance != nil && filter.MinBalance.GreaterThan(*filter.MaxBalance) {
		return []ledger.Wallet{}, nil
	}
	wallets, err := s.store.FindWallets(ctx, filter)
	if err != nil {
		s.logger.Error("find wallets", "error", err)
		return nil, ledger.Internal(err)
	}
	return wallets, nil
}

// IsOwnedBy reports whether walletID belongs to customerID. Unknown wallets
// and lookup failures report false.
func (s *Service) IsOwnedBy(ctx context.Context, walletID, customerID int64) bool {
	w, err := s.store.Wallet(ctx, walletID)
	if err != nil {
		if !errors.Is(err, ledger.ErrWalletNotFound) {
			s.logger.Warn("ownership lookup", "wallet_id", walletID, "error", err)
		}
		return false
	}
	return w.CustomerID == customerID
}

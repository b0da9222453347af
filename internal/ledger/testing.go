package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// SeedWallet is a test helper that stores a wallet holding the given balance,
// fully usable, for customer. It returns the stored wallet.
func SeedWallet(ctx context.Context, s Store, customerID int64, balance string) (Wallet, error) {
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		return Wallet{}, err
	}
	w := Wallet{
		CustomerID:        customerID,
		Name:              "seed",
		Currency:          CurrencyTRY,
		ActiveForShopping: true,
		ActiveForWithdraw: true,
		Balance:           amount,
		UsableBalance:     amount,
	}
	err = s.Atomic(ctx, "seed", func(ctx context.Context, tx Tx) error {
		return tx.InsertWallet(ctx, &w)
	})
	return w, err
}

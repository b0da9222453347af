package wallet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_service/internal/ledger"
)

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	CustomerID        int64
	Name              string
	Currency          ledger.Currency
	ActiveForShopping bool
	ActiveForWithdraw bool
}

// Balance is a point-in-time view of a wallet's funds.
type Balance struct {
	WalletID      int64
	Currency      ledger.Currency
	Balance       decimal.Decimal
	UsableBalance decimal.Decimal
	AsOf          time.Time
}

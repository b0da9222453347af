package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// WalletFilter selects wallets. Nil fields do not constrain the result and
// balance bounds are inclusive.
type WalletFilter struct {
	CustomerID *int64
	Currency   *Currency
	MinBalance *decimal.Decimal
	MaxBalance *decimal.Decimal
}

// Match reports whether w satisfies every set field of f.
func (f WalletFilter) Match(w Wallet) bool {
	if f.CustomerID != nil && w.CustomerID != *f.CustomerID {
		return false
	}
	if f.Currency != nil && w.Currency != *f.Currency {
		return false
	}
	if f.MinBalance != nil && w.Balance.LessThan(*f.MinBalance) {
		return false
	}
	if f.MaxBalance != nil && w.Balance.GreaterThan(*f.MaxBalance) {
		return false
	}
	return true
}

// where renders f as a parameterised SQL predicate starting at placeholder $1.
func (f WalletFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}
	if f.CustomerID != nil {
		add("customer_id = $%d", *f.CustomerID)
	}
	if f.Currency != nil {
		add("currency = $%d", string(*f.Currency))
	}
	if f.MinBalance != nil {
		add("balance >= $%d", *f.MinBalance)
	}
	if f.MaxBalance != nil {
		add("balance <= $%d", *f.MaxBalance)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

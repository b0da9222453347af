package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Policy holds the switches that change how decisions move balances.
type Policy struct {
	// StrictFinalization rejects decisions on APPROVED or DENIED transactions.
	StrictFinalization bool
	// ReverseOnDeny undoes the balance effect of a transaction when it is denied.
	ReverseOnDeny bool
}

// DefaultPolicy matches the behaviour existing clients depend on.
func DefaultPolicy() Policy {
	return Policy{StrictFinalization: true}
}

// InitialStatus returns the status a new transaction of the given amount starts in.
func InitialStatus(amount decimal.Decimal) TransactionStatus {
	if amount.GreaterThan(ApprovalThreshold) {
		return StatusPending
	}
	return StatusApproved
}

// Entry describes a transaction about to be recorded.
type Entry struct {
	Amount            decimal.Decimal
	Type              TransactionType
	OppositePartyType OppositePartyType
	OppositeParty     string
}

// Record derives the initial status for entry and persists it against w.
// Balances are left untouched; callers apply them with Policy.Post.
func Record(ctx context.Context, tx Tx, w Wallet, e Entry) (Transaction, error) {
	if !ValidAmount(e.Amount) {
		return Transaction{}, ErrInvalidAmount
	}
	if !e.Type.Valid() || !e.OppositePartyType.Valid() {
		return Transaction{}, ErrInvalidEntry
	}
	t := Transaction{
		WalletID:          w.ID,
		Amount:            e.Amount,
		Type:              e.Type,
		OppositePartyType: e.OppositePartyType,
		OppositeParty:     e.OppositeParty,
		Status:            InitialStatus(e.Amount),
	}
	if err := tx.InsertTransaction(ctx, &t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Post applies a freshly recorded transaction to the wallet. The total balance
// moves immediately; the usable balance only moves for approved transactions.
func (p Policy) Post(w *Wallet, t Transaction) {
	w.Balance = w.Balance.Add(t.Signed())
	if t.Status == StatusApproved {
		w.UsableBalance = w.UsableBalance.Add(t.Signed())
	}
}

// Settle applies decision to t and moves the wallet balances accordingly.
func (p Policy) Settle(w *Wallet, t *Transaction, decision TransactionStatus) error {
	if !decision.Terminal() {
		return ErrInvalidDecision
	}
	if p.StrictFinalization && t.Status.Terminal() {
		return ErrTransactionAlreadyFinalized
	}
	switch decision {
	case StatusApproved:
		w.UsableBalance = w.UsableBalance.Add(t.Signed())
	case StatusDenied:
		if p.ReverseOnDeny {
			w.Balance = w.Balance.Sub(t.Signed())
		}
	}
	t.Status = decision
	return nil
}

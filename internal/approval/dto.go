package approval

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_service/internal/ledger"
)

// ApproveRequest is the payload for POST /transactions/approve.
type ApproveRequest struct {
	TransactionID int64  `json:"transaction_id"`
	Status        string `json:"status"`
}

// TransactionView is the HTTP representation of a transaction.
type TransactionView struct {
	ID                int64                    `json:"id"`
	WalletID          int64                    `json:"wallet_id"`
	Amount            decimal.Decimal          `json:"amount"`
	Type              ledger.TransactionType   `json:"type"`
	OppositePartyType ledger.OppositePartyType `json:"opposite_party_type"`
	OppositeParty     string                   `json:"opposite_party"`
	Status            ledger.TransactionStatus `json:"status"`
	CreatedAt         time.Time                `json:"created_at"`
	CreatedBy         string                   `json:"created_by"`
	UpdatedAt         time.Time                `json:"updated_at"`
	UpdatedBy         string                   `json:"updated_by"`
}

// NewTransactionView converts a ledger transaction for the wire.
func NewTransactionView(t ledger.Transaction) TransactionView {
	return TransactionView{
		ID:                t.ID,
		WalletID:          t.WalletID,
		Amount:            t.Amount,
		Type:              t.Type,
		OppositePartyType: t.OppositePartyType,
		OppositeParty:     t.OppositeParty,
		Status:            t.Status,
		CreatedAt:         t.CreatedAt,
		CreatedBy:         t.CreatedBy,
		UpdatedAt:         t.UpdatedAt,
		UpdatedBy:         t.UpdatedBy,
	}
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrWalletNotFound is returned when a wallet id does not resolve to a stored wallet.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrTransactionNotFound is returned when a transaction id does not resolve,
	// or resolves to a transaction owned by another wallet.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrCustomerNotFound is returned when a wallet is requested for an unknown customer.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrWithdrawNotAllowed is returned when a wallet is not active for withdrawals.
	ErrWithdrawNotAllowed = errors.New("wallet is not active for withdraw")

	// ErrInsufficientBalance is returned when the usable balance cannot cover a withdrawal.
	ErrInsufficientBalance = errors.New("insufficient usable balance")

	// ErrInvalidAmount is returned for non-positive amounts or amounts finer than Scale.
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrInvalidCurrency is returned for currencies outside the supported set.
	ErrInvalidCurrency = errors.New("invalid currency")

	// ErrInvalidEntry is returned when a transaction names an unknown type or
	// opposite party.
	ErrInvalidEntry = errors.New("invalid transaction entry")

	// ErrInvalidDecision is returned when an approval decision is neither APPROVED nor DENIED.
	ErrInvalidDecision = errors.New("invalid approval decision")

	// ErrTransactionAlreadyFinalized is returned when a terminal transaction is decided again.
	ErrTransactionAlreadyFinalized = errors.New("transaction already finalized")

	// ErrInternal marks persistence and other unexpected failures.
	ErrInternal = errors.New("internal error")
)

var domainErrors = []error{
	ErrWalletNotFound,
	ErrTransactionNotFound,
	ErrCustomerNotFound,
	ErrWithdrawNotAllowed,
	ErrInsufficientBalance,
	ErrInvalidAmount,
	ErrInvalidCurrency,
	ErrInvalidEntry,
	ErrInvalidDecision,
	ErrTransactionAlreadyFinalized,
	ErrInternal,
}

// Internal passes domain errors through unchanged and tags anything else as ErrInternal.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInternal, err)
}

// Scale is the number of fractional digits kept for amounts and balances.
const Scale = 4

// ApprovalThreshold is the largest amount that is approved without review.
var ApprovalThreshold = decimal.NewFromInt(1000)

// ValidAmount reports whether amount is strictly positive and representable at Scale.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Truncate(Scale))
}

type Currency string

const (
	CurrencyTRY Currency = "TRY"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyTRY, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

type TransactionType string

const (
	TypeDeposit  TransactionType = "DEPOSIT"
	TypeWithdraw TransactionType = "WITHDRAW"
)

func (t TransactionType) Valid() bool {
	return t == TypeDeposit || t == TypeWithdraw
}

type OppositePartyType string

const (
	PartyIBAN    OppositePartyType = "IBAN"
	PartyPayment OppositePartyType = "PAYMENT"
)

func (p OppositePartyType) Valid() bool {
	return p == PartyIBAN || p == PartyPayment
}

type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusDenied   TransactionStatus = "DENIED"
)

// Terminal reports whether the status is a final decision.
func (s TransactionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// Audit carries creation and last-modification stamps.
type Audit struct {
	CreatedAt time.Time
	CreatedBy string
	UpdatedAt time.Time
	UpdatedBy string
}

// Wallet is a customer-owned balance holder in a single currency.
type Wallet struct {
	ID                int64
	CustomerID        int64
	Name              string
	Currency          Currency
	ActiveForShopping bool
	ActiveForWithdraw bool
	Balance           decimal.Decimal
	UsableBalance     decimal.Decimal
	Audit
}

// Transaction records one deposit or withdrawal against a wallet.
type Transaction struct {
	ID                int64
	WalletID          int64
	Amount            decimal.Decimal
	Type              TransactionType
	OppositePartyType OppositePartyType
	OppositeParty     string
	Status            TransactionStatus
	Audit
}

// Signed returns the amount with the sign it carries for the wallet balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TypeWithdraw {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Store is the persistence boundary for wallets and transactions. Writes only
// happen inside Atomic; reads outside of it observe committed state.
type Store interface {
	Atomic(ctx context.Context, actor string, fn func(ctx context.Context, tx Tx) error) error
	Wallet(ctx context.Context, id int64) (Wallet, error)
	Transaction(ctx context.Context, id int64) (Transaction, error)
	ListByWallet(ctx context.Context, walletID int64) ([]Transaction, error)
	FindWallets(ctx context.Context, filter WalletFilter) ([]Wallet, error)
}

// Tx is a unit of work. Locks taken through it are held until the unit commits
// or rolls back. Insert and Save methods stamp audit fields with the actor
// passed to Atomic.
type Tx interface {
	LockWallet(ctx context.Context, id int64) (Wallet, error)
	// LockTransaction locks the owning wallet and then returns the transaction
	// together with that wallet.
	LockTransaction(ctx context.Context, id int64) (Transaction, Wallet, error)
	InsertWallet(ctx context.Context, w *Wallet) error
	SaveWallet(ctx context.Context, w *Wallet) error
	InsertTransaction(ctx context.Context, t *Transaction) error
	SaveTransaction(ctx context.Context, t *Transaction) error
}

package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/congo-pay/wallet_service/internal/ledger"
	"github.com/congo-pay/wallet_service/internal/metrics"
)

const (
	// KindTransactionPending is sent when a transaction waits for an employee decision.
	KindTransactionPending = "transaction_pending"
	// KindTransactionFinalized is sent when an employee approves or denies a transaction.
	KindTransactionFinalized = "transaction_finalized"
)

// Message describes a notification payload.
type Message struct {
	Kind          string    `json:"kind"`
	Destination   string    `json:"destination"`
	Body          string    `json:"body"`
	WalletID      int64     `json:"wallet_id"`
	TransactionID int64     `json:"transaction_id"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ForTransaction builds the message announcing t to the owner of w.
func ForTransaction(kind string, t ledger.Transaction, w ledger.Wallet) Message {
	return Message{
		Kind:          kind,
		Destination:   strconv.FormatInt(w.CustomerID, 10),
		Body:          fmt.Sprintf("%s of %s %s is %s", t.Type, t.Amount.StringFixed(ledger.Scale), w.Currency, t.Status),
		WalletID:      w.ID,
		TransactionID: t.ID,
		Type:          string(t.Type),
		Status:        string(t.Status),
		Amount:        t.Amount.StringFixed(ledger.Scale),
		Currency:      string(w.Currency),
		OccurredAt:    t.UpdatedAt,
	}
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger. It is used when no broker is configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"destination", message.Destination,
		"wallet_id", message.WalletID,
		"transaction_id", message.TransactionID,
		"body", message.Body,
	)
	return nil
}

// Deliver sends message and reports failures to logger instead of the caller.
// Notifications follow a committed change, so they never undo it.
func Deliver(ctx context.Context, n Notifier, logger *slog.Logger, message Message) {
	if n == nil {
		return
	}
	if err := n.Send(context.WithoutCancel(ctx), message); err != nil {
		metrics.NotificationFailures.Inc()
		logger.Warn("notification failed",
			"kind", message.Kind,
			"wallet_id", message.WalletID,
			"transaction_id", message.TransactionID,
			"error", err,
		)
	}
}

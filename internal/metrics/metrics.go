package metrics

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/congo-pay/wallet_service/internal/ledger"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Ledger
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Recorded transactions by type and initial status",
		},
		[]string{"type", "status"},
	)
	ApprovalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_approvals_total",
			Help: "Approval decisions applied",
		},
		[]string{"decision"},
	)
	OperationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operation_failures_total",
			Help: "Failed ledger operations by error kind",
		},
		[]string{"operation", "kind"},
	)

	// Notifications
	NotificationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Notifications that could not be delivered",
		},
	)

	initOnce sync.Once
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestLatency,
			TransactionsTotal,
			ApprovalsTotal,
			OperationFailures,
			NotificationFailures,
		)
	})
}

var kinds = []struct {
	err  error
	kind string
}{
	{ledger.ErrWalletNotFound, "wallet_not_found"},
	{ledger.ErrTransactionNotFound, "transaction_not_found"},
	{ledger.ErrCustomerNotFound, "customer_not_found"},
	{ledger.ErrWithdrawNotAllowed, "withdraw_not_allowed"},
	{ledger.ErrInsufficientBalance, "insufficient_balance"},
	{ledger.ErrInvalidAmount, "invalid_amount"},
	{ledger.ErrInvalidCurrency, "invalid_currency"},
	{ledger.ErrInvalidDecision, "invalid_decision"},
	{ledger.ErrTransactionAlreadyFinalized, "already_finalized"},
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "timeout"},
}

// FailureKind maps err to a low-cardinality label value.
func FailureKind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

// Failed counts a failed operation.
func Failed(operation string, err error) {
	OperationFailures.WithLabelValues(operation, FailureKind(err)).Inc()
}

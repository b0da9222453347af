package payments

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/wallet_service/internal/ledger"
	"github.com/congo-pay/wallet_service/internal/logging"
	"github.com/congo-pay/wallet_service/internal/notification"
)

type testNotifier struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newService(t *testing.T, balance string) (*Service, ledger.Store, ledger.Wallet, *testNotifier) {
	t.Helper()
	store := ledger.NewInMemory()
	w, err := ledger.SeedWallet(context.Background(), store, 1, balance)
	require.NoError(t, err)
	notifier := &testNotifier{}
	return NewService(store, ledger.DefaultPolicy(), notifier, logging.Discard()), store, w, notifier
}

func deposit(walletID int64, amount string) Command {
	return Command{WalletID: walletID, Amount: dec(amount), Source: ledger.PartyIBAN, OppositeParty: "TR330006100519786457841326"}
}

func withdraw(walletID int64, amount string) Command {
	return Command{WalletID: walletID, Amount: dec(amount), Source: ledger.PartyPayment, OppositeParty: "shop-42"}
}

func requireBalances(t *testing.T, store ledger.Store, walletID int64, balance, usable string) {
	t.Helper()
	w, err := store.Wallet(context.Background(), walletID)
	require.NoError(t, err)
	require.True(t, w.Balance.Equal(dec(balance)), "balance: want %s got %s", balance, w.Balance)
	require.True(t, w.UsableBalance.Equal(dec(usable)), "usable: want %s got %s", usable, w.UsableBalance)
}

func TestDepositAtThresholdIsApproved(t *testing.T) {
	svc, store, w, notifier := newService(t, "0")

	res, err := svc.Deposit(context.Background(), "ayse", deposit(w.ID, "500"))
	require.NoError(t, err)
	require.Equal(t, ledger.StatusApproved, res.Status)
	require.True(t, res.Balance.Equal(dec("500")))
	require.True(t, res.UsableBalance.Equal(dec("500")))

	res, err = svc.Deposit(context.Background(), "ayse", deposit(w.ID, "1000"))
	require.NoError(t, err)
	require.Equal(t, ledger.StatusApproved, res.Status)
	requireBalances(t, store, w.ID, "1500", "1500")
	require.Empty(t, notifier.msgs)

	tr, err := store.Transaction(context.Background(), res.TransactionID)
	require.NoError(t, err)
	require.Equal(t, "ayse", tr.CreatedBy)
	require.Equal(t, ledger.PartyIBAN, tr.OppositePartyType)
}

func TestLargeDepositStaysPending(t *testing.T) {
	svc, store, w, notifier := newService(t, "0")

	res, err := svc.Deposit(context.Background(), "ayse", deposit(w.ID, "1500"))
	require.NoError(t, err)
	require.Equal(t, ledger.StatusPending, res.Status)
	requireBalances(t, store, w.ID, "1500", "0")

	require.Len(t, notifier.msgs, 1)
	require.Equal(t, notification.KindTransactionPending, notifier.msgs[0].Kind)
	require.Equal(t, res.TransactionID, notifier.msgs[0].TransactionID)
}

func TestWithdrawDebitsBothBalances(t *testing.T) {
	svc, store, w, _ := newService(t, "1000")

	res, err := svc.Withdraw(context.Background(), "ayse", withdraw(w.ID, "300"))
	require.NoError(t, err)
	require.Equal(t, ledger.StatusApproved, res.Status)
	requireBalances(t, store, w.ID, "700", "700")
}

func TestPendingWithdrawLeavesUsableUntilDecision(t *testing.T) {
	svc, store, w, _ := newService(t, "2000")

	res, err := svc.Withdraw(context.Background(), "ayse", withdraw(w.ID, "1500"))
	require.NoError(t, err)
	require.Equal(t, ledger.StatusPending, res.Status)
	requireBalances(t, store, w.ID, "500", "2000")
}

func TestPaymentRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid amount", func(t *testing.T) {
		svc, store, w, _ := newService(t, "100")
		for _, amount := range []string{"0", "-5", "0.00001"} {
			_, err := svc.Deposit(ctx, "ayse", deposit(w.ID, amount))
			require.ErrorIs(t, err, ledger.ErrInvalidAmount)
			_, err = svc.Withdraw(ctx, "ayse", withdraw(w.ID, amount))
			require.ErrorIs(t, err, ledger.ErrInvalidAmount)
		}
		txs, _ := store.ListByWallet(ctx, w.ID)
		require.Empty(t, txs)
	})

	t.Run("invalid amount is checked before the wallet", func(t *testing.T) {
		svc, _, _, _ := newService(t, "0")
		_, err := svc.Deposit(ctx, "ayse", deposit(999, "0"))
		require.ErrorIs(t, err, ledger.ErrInvalidAmount)
	})

	t.Run("unknown wallet", func(t *testing.T) {
		svc, _, _, _ := newService(t, "0")
		_, err := svc.Deposit(ctx, "ayse", deposit(999, "10"))
		require.ErrorIs(t, err, ledger.ErrWalletNotFound)
		_, err = svc.Withdraw(ctx, "ayse", withdraw(999, "10"))
		require.ErrorIs(t, err, ledger.ErrWalletNotFound)
	})

	t.Run("insufficient usable balance", func(t *testing.T) {
		svc, store, w, _ := newService(t, "100")
		_, err := svc.Withdraw(ctx, "ayse", withdraw(w.ID, "100.0001"))
		require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
		requireBalances(t, store, w.ID, "100", "100")
	})

	t.Run("pending deposit is not usable", func(t *testing.T) {
		svc, store, w, _ := newService(t, "1000")
		_, err := svc.Deposit(ctx, "ayse", deposit(w.ID, "2000"))
		require.NoError(t, err)
		_, err = svc.Withdraw(ctx, "ayse", withdraw(w.ID, "1500"))
		require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
		requireBalances(t, store, w.ID, "3000", "1000")
	})

	t.Run("withdraw not allowed", func(t *testing.T) {
		store := ledger.NewInMemory()
		locked := ledger.Wallet{CustomerID: 1, Currency: ledger.CurrencyUSD, ActiveForWithdraw: false, Balance: dec("500"), UsableBalance: dec("500")}
		require.NoError(t, store.Atomic(ctx, "seed", func(ctx context.Context, tx ledger.Tx) error {
			return tx.InsertWallet(ctx, &locked)
		}))
		svc := NewService(store, ledger.DefaultPolicy(), nil, logging.Discard())

		_, err := svc.Withdraw(ctx, "ayse", withdraw(locked.ID, "10"))
		require.ErrorIs(t, err, ledger.ErrWithdrawNotAllowed)

		_, err = svc.Deposit(ctx, "ayse", deposit(locked.ID, "10"))
		require.NoError(t, err)
	})
}

func TestConcurrentWithdrawalsRespectUsableBalance(t *testing.T) {
	svc, store, w, _ := newService(t, "500")
	ctx := context.Background()

	const workers = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(ctx, "race", withdraw(w.ID, "100"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
			fail++
		}()
	}
	wg.Wait()

	require.Equal(t, 5, ok)
	require.Equal(t, workers-5, fail)
	requireBalances(t, store, w.ID, "0", "0")
}

func TestBalanceEqualsSumOfSignedAmounts(t *testing.T) {
	svc, store, w, _ := newService(t, "0")
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "ayse", deposit(w.ID, "800.25"))
	require.NoError(t, err)
	_, err = svc.Deposit(ctx, "ayse", deposit(w.ID, "1200"))
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, "ayse", withdraw(w.ID, "300.1234"))
	require.NoError(t, err)

	txs, err := store.ListByWallet(ctx, w.ID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, tr := range txs {
		sum = sum.Add(tr.Signed())
	}
	got, _ := store.Wallet(ctx, w.ID)
	require.True(t, got.Balance.Equal(sum), "balance %s sum %s", got.Balance, sum)
	require.True(t, got.UsableBalance.LessThanOrEqual(got.Balance))
}

func TestWithdrawBeyondUsableLeavesWalletUntouched(t *testing.T) {
	svc, store, w, _ := newService(t, "200")

	_, err := svc.Withdraw(context.Background(), "ayse", withdraw(w.ID, "300"))
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	requireBalances(t, store, w.ID, "200", "200")

	txs, err := store.ListByWallet(context.Background(), w.ID)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestCanceledContextRecordsNothing(t *testing.T) {
	svc, store, w, notifier := newService(t, "0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Deposit(ctx, "ayse", deposit(w.ID, "1500"))
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ledger.ErrInternal)
	requireBalances(t, store, w.ID, "0", "0")
	require.Empty(t, notifier.msgs)
}

type requestKey struct{}

// requestHandler captures the request id carried by the context of each
// log record.
type requestHandler struct {
	mu  sync.Mutex
	ids []any
}

func (h *requestHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *requestHandler) Handle(ctx context.Context, _ slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, ctx.Value(requestKey{}))
	return nil
}

func (h *requestHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *requestHandler) WithGroup(string) slog.Handler      { return h }

func TestRejectionLogsCarryRequestContext(t *testing.T) {
	store := ledger.NewInMemory()
	w, err := ledger.SeedWallet(context.Background(), store, 1, "0")
	require.NoError(t, err)
	h := &requestHandler{}
	svc := NewService(store, ledger.DefaultPolicy(), &testNotifier{}, slog.New(h))

	ctx := context.WithValue(context.Background(), requestKey{}, "req-7")
	_, err = svc.Withdraw(ctx, "ayse", withdraw(w.ID, "0"))
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)
	_, err = svc.Withdraw(ctx, "ayse", withdraw(w.ID, "10"))
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	require.Equal(t, []any{"req-7", "req-7"}, h.ids)
}

package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/wallet_service/internal/identity"
	"github.com/congo-pay/wallet_service/internal/ledger"
	"github.com/congo-pay/wallet_service/internal/logging"
)

type customers map[int64]bool

func (c customers) FindCustomer(_ context.Context, id int64) (identity.User, error) {
	if !c[id] {
		return identity.User{}, identity.ErrUserNotFound
	}
	return identity.User{ID: id, Role: identity.RoleCustomer}, nil
}

type brokenCustomers struct{}

func (brokenCustomers) FindCustomer(context.Context, int64) (identity.User, error) {
	return identity.User{}, errors.New("connection reset")
}

func newTestService() (*Service, ledger.Store) {
	store := ledger.NewInMemory()
	return NewService(store, customers{1: true, 2: true}, logging.Discard()), store
}

func ptr[T any](v T) *T { return &v }

func TestServiceCreateAndBalance(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	w, err := svc.Create(ctx, "ayse", CreateInput{
		CustomerID:        1,
		Name:              "  daily  ",
		Currency:          ledger.CurrencyTRY,
		ActiveForShopping: true,
		ActiveForWithdraw: true,
	})
	require.NoError(t, err)
	require.NotZero(t, w.ID)
	require.Equal(t, "daily", w.Name)
	require.True(t, w.Balance.IsZero())
	require.True(t, w.UsableBalance.IsZero())
	require.Equal(t, "ayse", w.CreatedBy)

	fetched, err := store.Wallet(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, w.CustomerID, fetched.CustomerID)

	b, err := svc.Balance(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, w.ID, b.WalletID)
	require.Equal(t, ledger.CurrencyTRY, b.Currency)
	require.True(t, b.Balance.IsZero())
	require.False(t, b.AsOf.IsZero())
}

func TestServiceCreateRejections(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "ayse", CreateInput{CustomerID: 1, Currency: "GBP"})
	require.ErrorIs(t, err, ledger.ErrInvalidCurrency)

	_, err = svc.Create(ctx, "ayse", CreateInput{CustomerID: 99, Currency: ledger.CurrencyUSD})
	require.ErrorIs(t, err, ledger.ErrCustomerNotFound)

	broken := NewService(ledger.NewInMemory(), brokenCustomers{}, logging.Discard())
	_, err = broken.Create(ctx, "ayse", CreateInput{CustomerID: 1, Currency: ledger.CurrencyUSD})
	require.ErrorIs(t, err, ledger.ErrInternal)
}

func TestServiceGetMissingWallet(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ledger.ErrWalletNotFound)

	_, err = svc.Balance(context.Background(), 404)
	require.ErrorIs(t, err, ledger.ErrWalletNotFound)
}

func TestServiceFind(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	a, err := ledger.SeedWallet(ctx, store, 1, "100")
	require.NoError(t, err)
	b, err := ledger.SeedWallet(ctx, store, 1, "2500")
	require.NoError(t, err)
	c, err := ledger.SeedWallet(ctx, store, 2, "700")
	require.NoError(t, err)
	usd, err := svc.Create(ctx, "ayse", CreateInput{CustomerID: 2, Currency: ledger.CurrencyUSD})
	require.NoError(t, err)

	ids := func(ws []ledger.Wallet) []int64 {
		out := make([]int64, 0, len(ws))
		for _, w := range ws {
			out = append(out, w.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter ledger.WalletFilter
		want   []int64
	}{
		{name: "no filter", want: []int64{a.ID, b.ID, c.ID, usd.ID}},
		{name: "customer", filter: ledger.WalletFilter{CustomerID: ptr(int64(1))}, want: []int64{a.ID, b.ID}},
		{name: "currency", filter: ledger.WalletFilter{Currency: ptr(ledger.CurrencyUSD)}, want: []int64{usd.ID}},
		{
			name:   "inclusive bounds",
			filter: ledger.WalletFilter{MinBalance: ptr(decimal.NewFromInt(100)), MaxBalance: ptr(decimal.NewFromInt(700))},
			want:   []int64{a.ID, c.ID},
		},
		{
			name:   "inverted bounds",
			filter: ledger.WalletFilter{MinBalance: ptr(decimal.NewFromInt(700)), MaxBalance: ptr(decimal.NewFromInt(100))},
			want:   []int64{},
		},
		{
			name:   "customer and currency",
			filter: ledger.WalletFilter{CustomerID: ptr(int64(2)), Currency: ptr(ledger.CurrencyTRY)},
			want:   []int64{c.ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Find(ctx, tt.filter)
			require.NoError(t, err)
			require.Equal(t, tt.want, ids(got))
		})
	}
}

func TestServiceIsOwnedBy(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	w, err := ledger.SeedWallet(ctx, store, 1, "0")
	require.NoError(t, err)

	require.True(t, svc.IsOwnedBy(ctx, w.ID, 1))
	require.False(t, svc.IsOwnedBy(ctx, w.ID, 2))
	require.False(t, svc.IsOwnedBy(ctx, 404, 1))

	customer := identity.Principal{UserID: 2, Username: "mehmet", Role: identity.RoleCustomer}
	employee := identity.Principal{UserID: 9, Username: "ops", Role: identity.RoleEmployee}
	require.False(t, customer.CanAccessWallet(ctx, svc, w.ID))
	require.True(t, employee.CanAccessWallet(ctx, svc, w.ID))
	require.True(t, employee.CanAccessWallet(ctx, svc, 404))
}

package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.RegisterCustomer(ctx, CustomerInput{
		Username: "ayse", Password: "s3cret-pass", FirstName: "Ayse", LastName: "Yilmaz", TCKN: "12345678901",
	})
	require.NoError(t, err)
	require.Equal(t, RoleCustomer, user.Role)
	require.NotZero(t, user.ID)

	authed, err := svc.Authenticate(ctx, Credentials{Username: "ayse", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.Equal(t, user.ID, authed.ID)
	require.Equal(t, Principal{UserID: user.ID, Username: "ayse", Role: RoleCustomer}, authed.Principal())

	_, err = svc.Authenticate(ctx, Credentials{Username: "ayse", Password: "wrong-pass"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, Credentials{Username: "nobody", Password: "whatever1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.RegisterCustomer(ctx, CustomerInput{Username: "a", Password: "short", TCKN: "12345678901"})
	require.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.RegisterCustomer(ctx, CustomerInput{Username: "a", Password: "long-enough", TCKN: "0123"})
	require.ErrorIs(t, err, ErrInvalidTCKN)

	_, err = svc.RegisterCustomer(ctx, CustomerInput{Username: "a", Password: "long-enough", TCKN: "12345678901"})
	require.NoError(t, err)
	_, err = svc.RegisterCustomer(ctx, CustomerInput{Username: "a", Password: "long-enough", TCKN: "22345678901"})
	require.ErrorIs(t, err, ErrUserExists)
}

func TestFindCustomerIgnoresEmployees(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	emp, err := svc.EnsureEmployee(ctx, Credentials{Username: "ops", Password: "ops-password"})
	require.NoError(t, err)
	again, err := svc.EnsureEmployee(ctx, Credentials{Username: "ops", Password: "ops-password"})
	require.NoError(t, err)
	require.Equal(t, emp.ID, again.ID)

	_, err = svc.FindCustomer(ctx, emp.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.FindCustomer(ctx, 999)
	require.ErrorIs(t, err, ErrUserNotFound)
}

type ownership map[int64]int64

func (o ownership) IsOwnedBy(_ context.Context, walletID, customerID int64) bool {
	owner, ok := o[walletID]
	return ok && owner == customerID
}

func TestPrincipalAccess(t *testing.T) {
	ctx := context.Background()
	owners := ownership{10: 1}

	customer := Principal{UserID: 1, Role: RoleCustomer}
	stranger := Principal{UserID: 2, Role: RoleCustomer}
	employee := Principal{UserID: 3, Role: RoleEmployee}

	require.True(t, customer.CanAccessWallet(ctx, owners, 10))
	require.False(t, stranger.CanAccessWallet(ctx, owners, 10))
	require.False(t, customer.CanAccessWallet(ctx, owners, 11))
	require.True(t, employee.CanAccessWallet(ctx, owners, 11))

	require.True(t, customer.CanActFor(1))
	require.False(t, stranger.CanActFor(1))
	require.True(t, employee.CanActFor(1))
}

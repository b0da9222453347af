package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/wallet_service/internal/ledger"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fiber.NewError(http.StatusUnauthorized, "missing credentials"), http.StatusUnauthorized},
		{ledger.ErrWalletNotFound, http.StatusNotFound},
		{ledger.ErrTransactionNotFound, http.StatusNotFound},
		{ledger.ErrCustomerNotFound, http.StatusNotFound},
		{ledger.ErrWithdrawNotAllowed, http.StatusForbidden},
		{ledger.ErrInsufficientBalance, http.StatusForbidden},
		{ledger.ErrInvalidAmount, http.StatusBadRequest},
		{ledger.ErrInvalidCurrency, http.StatusBadRequest},
		{ledger.ErrInvalidEntry, http.StatusBadRequest},
		{ledger.ErrInvalidDecision, http.StatusBadRequest},
		{ledger.ErrTransactionAlreadyFinalized, http.StatusConflict},
		{fmt.Errorf("lock wallet: %w", ledger.ErrWalletNotFound), http.StatusNotFound},
		{ledger.Internal(errors.New("connection refused")), http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

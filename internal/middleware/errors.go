package middleware

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_service/internal/ledger"
)

// StatusOf maps an error returned by a handler to its HTTP status.
func StatusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, ledger.ErrInternal):
		return http.StatusInternalServerError
	case errors.Is(err, ledger.ErrWalletNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, ledger.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrWithdrawNotAllowed),
		errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidCurrency),
		errors.Is(err, ledger.ErrInvalidEntry),
		errors.Is(err, ledger.ErrInvalidDecision):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrTransactionAlreadyFinalized):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

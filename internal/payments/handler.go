package payments

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_service/internal/identity"
	"github.com/congo-pay/wallet_service/internal/ledger"
	"github.com/congo-pay/wallet_service/internal/middleware"
)

// Handler exposes payment endpoints.
type Handler struct {
	service *Service
	owners  identity.OwnershipChecker
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service, owners identity.OwnershipChecker) *Handler {
	return &Handler{service: service, owners: owners}
}

type paymentRequest struct {
	WalletID          int64           `json:"wallet_id"`
	Amount            decimal.Decimal `json:"amount"`
	OppositePartyType string          `json:"opposite_party_type"`
	OppositeParty     string          `json:"opposite_party"`
}

type paymentResponse struct {
	WalletID          int64                    `json:"wallet_id"`
	Currency          ledger.Currency          `json:"currency"`
	TotalBalance      decimal.Decimal          `json:"total_balance"`
	UsableBalance     decimal.Decimal          `json:"usable_balance"`
	TransactionID     int64                    `json:"transaction_id"`
	TransactionStatus ledger.TransactionStatus `json:"transaction_status"`
}

// Deposit credits a wallet.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	return h.handle(c, h.service.Deposit)
}

// Withdraw debits a wallet.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	return h.handle(c, h.service.Withdraw)
}

type operation func(ctx context.Context, actor string, cmd Command) (Result, error)

func (h *Handler) handle(c *fiber.Ctx, op operation) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req paymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	party := ledger.OppositePartyType(strings.ToUpper(req.OppositePartyType))
	if !party.Valid() {
		return fiber.NewError(http.StatusBadRequest, "opposite_party_type must be IBAN or PAYMENT")
	}
	if strings.TrimSpace(req.OppositeParty) == "" {
		return fiber.NewError(http.StatusBadRequest, "opposite_party is required")
	}
	if !principal.CanAccessWallet(c.UserContext(), h.owners, req.WalletID) {
		return fiber.NewError(http.StatusForbidden, "access denied to wallet")
	}

	res, err := op(c.UserContext(), principal.Username, Command{
		WalletID:      req.WalletID,
		Amount:        req.Amount,
		Source:        party,
		OppositeParty: strings.TrimSpace(req.OppositeParty),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(paymentResponse{
		WalletID:          res.WalletID,
		Currency:          res.Currency,
		TotalBalance:      res.Balance,
		UsableBalance:     res.UsableBalance,
		TransactionID:     res.TransactionID,
		TransactionStatus: res.Status,
	})
}

package approval

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_service/internal/identity"
	"github.com/congo-pay/wallet_service/internal/ledger"
	"github.com/congo-pay/wallet_service/internal/middleware"
)

// Handler exposes transaction review endpoints.
type Handler struct {
	service *Service
	owners  identity.OwnershipChecker
}

// NewHandler constructs an approval handler.
func NewHandler(service *Service, owners identity.OwnershipChecker) *Handler {
	return &Handler{service: service, owners: owners}
}

// Approve decides a transaction. Routes restrict it to employees.
func (h *Handler) Approve(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	tr, err := h.service.Decide(c.UserContext(), principal.Username, Decision{
		TransactionID: req.TransactionID,
		Status:        ledger.TransactionStatus(strings.ToUpper(req.Status)),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(NewTransactionView(tr))
}

// List returns the transactions of the wallet named by the walletId query parameter.
func (h *Handler) List(c *fiber.Ctx) error {
	walletID, err := strconv.ParseInt(c.Query("walletId", c.Query("wallet_id")), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "walletId query parameter is required")
	}
	if err := h.authorize(c, walletID); err != nil {
		return err
	}
	txs, err := h.service.List(c.UserContext(), walletID)
	if err != nil {
		return err
	}
	views := make([]TransactionView, 0, len(txs))
	for _, t := range txs {
		views = append(views, NewTransactionView(t))
	}
	return c.Status(http.StatusOK).JSON(views)
}

// Get returns one transaction of a wallet.
func (h *Handler) Get(c *fiber.Ctx) error {
	walletID, err := strconv.ParseInt(c.Params("walletId"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid wallet id")
	}
	transactionID, err := strconv.ParseInt(c.Params("transactionId"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid transaction id")
	}
	if err := h.authorize(c, walletID); err != nil {
		return err
	}
	tr, err := h.service.Get(c.UserContext(), walletID, transactionID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(NewTransactionView(tr))
}

func (h *Handler) authorize(c *fiber.Ctx, walletID int64) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	if !principal.CanAccessWallet(c.UserContext(), h.owners, walletID) {
		return fiber.NewError(http.StatusForbidden, "access denied to wallet")
	}
	return nil
}

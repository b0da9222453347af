package wallet

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/wallet_service/internal/ledger"
	"github.com/congo-pay/wallet_service/internal/middleware"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	CustomerID        *int64 `json:"customer_id"`
	Name              string `json:"wallet_name"`
	Currency          string `json:"currency"`
	ActiveForShopping bool   `json:"active_for_shopping"`
	ActiveForWithdraw bool   `json:"active_for_withdraw"`
}

type walletResponse struct {
	ID                int64           `json:"wallet_id"`
	CustomerID        int64           `json:"customer_id"`
	Name              string          `json:"wallet_name"`
	Currency          ledger.Currency `json:"currency"`
	ActiveForShopping bool            `json:"active_for_shopping"`
	ActiveForWithdraw bool            `json:"active_for_withdraw"`
	Balance           decimal.Decimal `json:"balance"`
	UsableBalance     decimal.Decimal `json:"usable_balance"`
	CreatedAt         time.Time       `json:"created_at"`
	CreatedBy         string          `json:"created_by"`
	UpdatedAt         time.Time       `json:"updated_at"`
	UpdatedBy         string          `json:"updated_by"`
}

func newWalletResponse(w ledger.Wallet) walletResponse {
	return walletResponse{
		ID:                w.ID,
		CustomerID:        w.CustomerID,
		Name:              w.Name,
		Currency:          w.Currency,
		ActiveForShopping: w.ActiveForShopping,
		ActiveForWithdraw: w.ActiveForWithdraw,
		Balance:           w.Balance,
		UsableBalance:     w.UsableBalance,
		CreatedAt:         w.CreatedAt,
		CreatedBy:         w.CreatedBy,
		UpdatedAt:         w.UpdatedAt,
		UpdatedBy:         w.UpdatedBy,
	}
}

// Create opens a wallet. Customers open wallets for themselves; employees must
// name the customer.
func (h *Handler) Create(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	var customerID int64
	switch {
	case req.CustomerID != nil:
		customerID = *req.CustomerID
	case principal.IsEmployee():
		return fiber.NewError(http.StatusBadRequest, "customer_id is required")
	default:
		customerID = principal.UserID
	}
	if !principal.CanActFor(customerID) {
		return fiber.NewError(http.StatusForbidden, "cannot create wallets for another customer")
	}

	w, err := h.service.Create(c.UserContext(), principal.Username, CreateInput{
		CustomerID:        customerID,
		Name:              req.Name,
		Currency:          ledger.Currency(strings.ToUpper(strings.TrimSpace(req.Currency))),
		ActiveForShopping: req.ActiveForShopping,
		ActiveForWithdraw: req.ActiveForWithdraw,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(newWalletResponse(w))
}

// List returns wallets matching the query filters. Customers only ever see
// their own wallets.
func (h *Handler) List(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var filter ledger.WalletFilter
	if raw := query(c, "customer_id", "customerId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid customer_id")
		}
		if !principal.CanActFor(id) {
			return fiber.NewError(http.StatusForbidden, "cannot list wallets of another customer")
		}
		filter.CustomerID = &id
	} else if !principal.IsEmployee() {
		id := principal.UserID
		filter.CustomerID = &id
	}
	if raw := query(c, "currency", "currency"); raw != "" {
		cur := ledger.Currency(strings.ToUpper(raw))
		if !cur.Valid() {
			return ledger.ErrInvalidCurrency
		}
		filter.Currency = &cur
	}
	var err error
	if filter.MinBalance, err = decimalQuery(c, "min_balance", "minBalance"); err != nil {
		return err
	}
	if filter.MaxBalance, err = decimalQuery(c, "max_balance", "maxBalance"); err != nil {
		return err
	}

	wallets, err := h.service.Find(c.UserContext(), filter)
	if err != nil {
		return err
	}
	out := make([]walletResponse, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, newWalletResponse(w))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Get returns a single wallet with its balances.
func (h *Handler) Get(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	walletID, err := strconv.ParseInt(c.Params("walletId"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid wallet id")
	}
	if !principal.CanAccessWallet(c.UserContext(), h.service, walletID) {
		return fiber.NewError(http.StatusForbidden, "access denied to wallet")
	}
	w, err := h.service.Get(c.UserContext(), walletID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(newWalletResponse(w))
}

// Balance returns the wallet balances as of now.
func (h *Handler) Balance(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	walletID, err := strconv.ParseInt(c.Params("walletId"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid wallet id")
	}
	if !principal.CanAccessWallet(c.UserContext(), h.service, walletID) {
		return fiber.NewError(http.StatusForbidden, "access denied to wallet")
	}
	b, err := h.service.Balance(c.UserContext(), walletID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id":      b.WalletID,
		"currency":       b.Currency,
		"balance":        b.Balance,
		"usable_balance": b.UsableBalance,
		"timestamp":      b.AsOf,
	})
}

func query(c *fiber.Ctx, snake, camel string) string {
	if v := strings.TrimSpace(c.Query(snake)); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query(camel))
}

func decimalQuery(c *fiber.Ctx, snake, camel string) (*decimal.Decimal, error) {
	raw := query(c, snake, camel)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, "invalid "+snake)
	}
	return &d, nil
}

package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_service/internal/approval"
	"github.com/congo-pay/wallet_service/internal/auth"
	"github.com/congo-pay/wallet_service/internal/identity"
	"github.com/congo-pay/wallet_service/internal/middleware"
	"github.com/congo-pay/wallet_service/internal/payments"
	"github.com/congo-pay/wallet_service/internal/wallet"
)

// RegisterAuthRoutes wires the public login and refresh endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/refresh", h.Refresh)
}

// RegisterIdentityRoutes wires self-service customer registration.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler) {
	r.Post("/identity/register", h.RegisterCustomer)
}

// RegisterAccountRoutes wires endpoints that act on the signed-in account.
func RegisterAccountRoutes(r fiber.Router, authH *auth.Handler, identityH *identity.Handler) {
	r.Post("/auth/logout", authH.Logout)
	r.Post("/identity/employees", middleware.RequireRole(identity.RoleEmployee), identityH.RegisterEmployee)
}

// RegisterWalletRoutes wires wallet endpoints. idem guards the unsafe ones.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, idem fiber.Handler) {
	r.Post("/wallets", idem, h.Create)
	r.Get("/wallets", h.List)
	r.Get("/wallets/:walletId", h.Get)
	r.Get("/wallets/:walletId/balance", h.Balance)
}

// RegisterPaymentRoutes wires deposit and withdrawal endpoints.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, idem fiber.Handler) {
	r.Post("/wallets/deposit", idem, h.Deposit)
	r.Post("/wallets/withdraw", idem, h.Withdraw)
}

// RegisterTransactionRoutes wires transaction queries and the employee-only
// approval endpoint.
func RegisterTransactionRoutes(r fiber.Router, h *approval.Handler, idem fiber.Handler) {
	r.Get("/transactions", h.List)
	r.Get("/wallets/:walletId/transactions/:transactionId", h.Get)
	r.Post("/transactions/approve", middleware.RequireRole(identity.RoleEmployee), idem, h.Approve)
}

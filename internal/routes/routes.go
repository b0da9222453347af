package routes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/wallet_service/internal/approval"
	"github.com/congo-pay/wallet_service/internal/auth"
	"github.com/congo-pay/wallet_service/internal/config"
	"github.com/congo-pay/wallet_service/internal/identity"
	"github.com/congo-pay/wallet_service/internal/ledger"
	"github.com/congo-pay/wallet_service/internal/middleware"
	"github.com/congo-pay/wallet_service/internal/notification"
	"github.com/congo-pay/wallet_service/internal/payments"
	"github.com/congo-pay/wallet_service/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Notifier notification.Notifier
	Logger   *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Notifier == nil {
		d.Notifier = notification.NewLoggerNotifier(d.Logger)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	app.Use(middleware.HTTPMetrics())

	RegisterHealthRoutes(app, d)

	var (
		store        ledger.Store
		identityRepo identity.Repository
	)
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		d.Logger.Warn("no database configured, using in-memory store")
		store = ledger.NewInMemory()
		identityRepo = identity.NewMemoryRepository()
	}

	identitySvc := identity.NewService(identityRepo)
	if d.Cfg.BootstrapEmployeeUsername != "" {
		employee, err := identitySvc.EnsureEmployee(context.Background(), identity.Credentials{
			Username: d.Cfg.BootstrapEmployeeUsername,
			Password: d.Cfg.BootstrapEmployeePassword,
		})
		if err != nil {
			return fmt.Errorf("bootstrap employee: %w", err)
		}
		d.Logger.Info("employee account ready", "user_id", employee.ID, "username", employee.Username)
	}

	policy := ledger.Policy{
		StrictFinalization: d.Cfg.Ledger.StrictFinalization,
		ReverseOnDeny:      d.Cfg.Ledger.ReverseOnDeny,
	}
	authSvc := auth.NewService(d.Cfg, identityRepo)
	walletSvc := wallet.NewService(store, identitySvc, d.Logger)
	paymentSvc := payments.NewService(store, policy, d.Notifier, d.Logger)
	approvalSvc := approval.NewService(store, policy, d.Notifier, d.Logger)

	authHandler := auth.NewHandler(identitySvc, authSvc, middleware.PrincipalFrom)
	identityHandler := identity.NewHandler(identitySvc)
	walletHandler := wallet.NewHandler(walletSvc)
	paymentHandler := payments.NewHandler(paymentSvc, walletSvc)
	approvalHandler := approval.NewHandler(approvalSvc, walletSvc)

	idem := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)

	// Public routes are registered before the authenticated group: Fiber
	// mounts group middleware on the shared prefix.
	api := app.Group("/api/v1")
	RegisterPing(api)
	RegisterAuthRoutes(api, authHandler, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit, d.Cfg.LoginRateWindow))
	RegisterIdentityRoutes(api, identityHandler)

	protected := api.Group("", middleware.Authenticate(identitySvc, authSvc))
	RegisterAccountRoutes(protected, authHandler, identityHandler)
	RegisterWalletRoutes(protected, walletHandler, idem)
	RegisterPaymentRoutes(protected, paymentHandler, idem)
	RegisterTransactionRoutes(protected, approvalHandler, idem)

	return nil
}

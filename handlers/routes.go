// handlers/routes.go
package handlers

import (
	"task-points-market/metrics"
	"task-points-market/middleware"
	"task-points-market/services"
	"task-points-market/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Services bundles what the routes call into.
type Services struct {
	Ledger      *services.LedgerService
	Market      *services.MarketplaceService
	Submissions *services.SubmissionService
	Recharges   *services.RechargeService
	Withdrawals *services.WithdrawalService
	Review      *services.ReviewService
	Proofs      utils.ProofStore
}

// SetupRoutes mounts the public probes and every user-scoped route.
// Gateway auth is applied globally by the caller.
func SetupRoutes(app *fiber.App, svc Services, limiter *middleware.RateLimiter) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// 🔐 everything below acts for the X-User-ID caller
	secured := app.Group("/", middleware.UserContextMiddleware(), limiter.Handler())

	SetupAccountRoutes(secured, svc.Ledger)
	SetupTaskRoutes(secured, svc.Market, svc.Submissions, svc.Proofs)
	SetupPaymentRoutes(secured, svc.Recharges, svc.Withdrawals)
	SetupAdminRoutes(secured, svc.Review)
}

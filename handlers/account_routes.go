// handlers/account_routes.go
package handlers

import (
	"task-points-market/middleware"
	"task-points-market/services"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	ReferrerID *int64 `json:"referrer_id,omitempty"`
}

func SetupAccountRoutes(r fiber.Router, ledger *services.LedgerService) {
	// Registration is idempotent: 201 for a new account, 200 when it already existed.
	r.Post("/accounts", func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON")
		}

		acct, created, err := ledger.CreateAccount(c.UserContext(), services.RegisterInput{
			UserID:     middleware.UserID(c),
			Username:   req.Username,
			Name:       req.Name,
			ReferrerID: req.ReferrerID,
		})
		if err != nil {
			return respondError(c, err)
		}

		status := fiber.StatusOK
		if created {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(fiber.Map{"account": acct, "created": created})
	})

	r.Get("/accounts/me", func(c *fiber.Ctx) error {
		acct, err := ledger.GetAccount(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(acct)
	})

	r.Get("/accounts/me/history", func(c *fiber.Ctx) error {
		entries, err := ledger.History(c.UserContext(), middleware.UserID(c), c.QueryInt("limit", 20))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"entries": entries})
	})
}

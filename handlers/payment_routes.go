// handlers/payment_routes.go
package handlers

import (
	"task-points-market/middleware"
	"task-points-market/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(r fiber.Router, recharges *services.RechargeService, withdrawals *services.WithdrawalService) {
	r.Post("/recharges", func(c *fiber.Ctx) error {
		var in services.RechargeInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid JSON")
		}
		in.UserID = middleware.UserID(c)

		req, err := recharges.RequestRecharge(c.UserContext(), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(req)
	})

	r.Post("/withdrawals", func(c *fiber.Ctx) error {
		var in services.WithdrawalInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid JSON")
		}
		in.UserID = middleware.UserID(c)

		req, err := withdrawals.RequestWithdrawal(c.UserContext(), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(req)
	})
}

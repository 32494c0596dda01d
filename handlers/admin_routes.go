// handlers/admin_routes.go
package handlers

import (
	"task-points-market/middleware"
	"task-points-market/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes exposes the review orchestrator. Authorization is decided by the
// service against the admin allow-list, so a non-admin gets 403 from every route.
func SetupAdminRoutes(r fiber.Router, review *services.ReviewService) {
	admin := r.Group("/admin")

	admin.Get("/dashboard", func(c *fiber.Ctx) error {
		d, err := review.Dashboard(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(d)
	})

	admin.Get("/audit", func(c *fiber.Ctx) error {
		report, err := review.RunAudit(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"report": report, "healthy": report.Healthy()})
	})

	admin.Get("/accounts", func(c *fiber.Ctx) error {
		accounts, err := review.SearchAccounts(c.UserContext(), middleware.UserID(c), c.Query("q"), c.QueryInt("limit", 50))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"accounts": accounts})
	})

	// --- pending queues ---
	admin.Get("/submissions/pending", func(c *fiber.Ctx) error {
		list, err := review.PendingSubmissions(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"submissions": list})
	})
	admin.Get("/recharges/pending", func(c *fiber.Ctx) error {
		list, err := review.PendingRecharges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"recharges": list})
	})
	admin.Get("/withdrawals/pending", func(c *fiber.Ctx) error {
		list, err := review.PendingWithdrawals(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"withdrawals": list})
	})

	// --- decisions ---
	reviewSubmission := func(approve bool) fiber.Handler {
		return func(c *fiber.Ctx) error {
			id, ok := paramID(c)
			if !ok {
				return badRequest(c, "invalid submission id")
			}
			sub, err := review.ReviewSubmission(c.UserContext(), middleware.UserID(c), id, approve)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(sub)
		}
	}
	admin.Post("/submissions/:id/approve", reviewSubmission(true))
	admin.Post("/submissions/:id/reject", reviewSubmission(false))

	admin.Post("/recharges/:id/verify", func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return badRequest(c, "invalid recharge id")
		}
		req, err := review.VerifyRecharge(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(req)
	})

	admin.Post("/withdrawals/:id/verify", func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return badRequest(c, "invalid withdrawal id")
		}
		req, err := review.VerifyWithdrawal(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(req)
	})

	admin.Post("/tasks/:id/hide", func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return badRequest(c, "invalid task id")
		}
		body := struct {
			Hidden *bool `json:"hidden"`
		}{}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return badRequest(c, "invalid JSON")
			}
		}
		hidden := true
		if body.Hidden != nil {
			hidden = *body.Hidden
		}

		task, err := review.HideTask(c.UserContext(), middleware.UserID(c), id, hidden)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(viewTask(task))
	})

	// Chat style commands, e.g. {"command": "/approve_recharge_7"}.
	admin.Post("/commands", func(c *fiber.Ctx) error {
		body := struct {
			Command string `json:"command"`
		}{}
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid JSON")
		}
		res, err := review.Dispatch(c.UserContext(), middleware.UserID(c), body.Command)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})
}

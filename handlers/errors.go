// handlers/errors.go
package handlers

import (
	"errors"

	"task-points-market/services"
	"task-points-market/utils"

	"github.com/gofiber/fiber/v2"
)

var statusByKind = map[services.Kind]int{
	services.KindNotFound:          fiber.StatusNotFound,
	services.KindInvalidTask:       fiber.StatusConflict,
	services.KindInvalidProof:      fiber.StatusUnprocessableEntity,
	services.KindInsufficientFunds: fiber.StatusPaymentRequired,
	services.KindTaskSaturated:     fiber.StatusConflict,
	services.KindAlreadyProcessed:  fiber.StatusConflict,
	services.KindUnauthorized:      fiber.StatusForbidden,
	services.KindInvalidInput:      fiber.StatusBadRequest,
	services.KindStorage:           fiber.StatusInternalServerError,
}

// StatusFor maps a core error kind to its HTTP status.
func StatusFor(kind services.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	var coreErr *services.Error
	if !errors.As(err, &coreErr) {
		utils.NewLogger("http").WithError(err).WithField("path", c.Path()).Error("unhandled error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
			"kind":  services.KindStorage,
		})
	}

	status := StatusFor(coreErr.Kind)
	body := fiber.Map{
		"error": coreErr.Error(),
		"kind":  coreErr.Kind,
	}
	if coreErr.Kind == services.KindStorage {
		// driver errors stay in the log
		utils.NewLogger("http").WithError(err).WithField("path", c.Path()).Error("storage failure")
		body["error"] = "internal error"
	}
	if coreErr.Entity != "" {
		body["entity"] = coreErr.Entity
	}
	if coreErr.ID != "" {
		body["id"] = coreErr.ID
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
		"kind":  services.KindInvalidInput,
	})
}

func paramID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

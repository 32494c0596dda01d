// handlers/task_routes.go
package handlers

import (
	"fmt"
	"strings"

	"task-points-market/middleware"
	"task-points-market/models"
	"task-points-market/services"
	"task-points-market/utils"

	"github.com/gofiber/fiber/v2"
)

type taskView struct {
	models.Task
	RemainingSlots int `json:"remaining_slots"`
}

func viewTask(t *models.Task) taskView {
	return taskView{Task: *t, RemainingSlots: t.RemainingSlots()}
}

func SetupTaskRoutes(r fiber.Router, market *services.MarketplaceService, subs *services.SubmissionService, proofs utils.ProofStore) {
	r.Get("/tasks", func(c *fiber.Ctx) error {
		tasks, err := market.ListActiveTasks(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		out := make([]taskView, 0, len(tasks))
		for i := range tasks {
			out = append(out, viewTask(&tasks[i]))
		}
		return c.JSON(fiber.Map{"tasks": out, "task_types": models.TaskTypes})
	})

	r.Post("/tasks", func(c *fiber.Ctx) error {
		var in services.PostTaskInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "invalid JSON")
		}
		in.OwnerID = middleware.UserID(c)

		task, err := market.PostTask(c.UserContext(), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(viewTask(task))
	})

	r.Get("/tasks/:id", func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return badRequest(c, "invalid task id")
		}
		task, err := market.GetTask(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(viewTask(task))
	})

	// Text proofs and video links come in as JSON. Files go through the upload route.
	r.Post("/tasks/:id/submissions", func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return badRequest(c, "invalid task id")
		}
		var proof services.Proof
		if err := c.BodyParser(&proof); err != nil {
			return badRequest(c, "invalid JSON")
		}
		switch proof.Kind {
		case "":
			proof.Kind = models.ProofText
		case models.ProofPhoto, models.ProofVideo:
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "photo and video proofs must be sent to /tasks/:id/submissions/upload",
				"kind":  services.KindInvalidProof,
			})
		}

		sub, err := subs.SubmitProof(c.UserContext(), id, middleware.UserID(c), proof)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sub)
	})

	// Photo and video proofs: the file goes to object storage and the submission
	// carries its URL.
	r.Post("/tasks/:id/submissions/upload", func(c *fiber.Ctx) error {
		if proofs == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "file uploads are not configured"})
		}
		id, ok := paramID(c)
		if !ok {
			return badRequest(c, "invalid task id")
		}
		fileHeader, err := c.FormFile("file")
		if err != nil || fileHeader.Size == 0 {
			return badRequest(c, "file is required")
		}
		kind, ok := proofKindFor(fileHeader.Header.Get("Content-Type"))
		if !ok {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "only image and video files are accepted",
				"kind":  services.KindInvalidProof,
			})
		}

		// Reject before uploading so dead tasks do not collect files.
		task, err := market.GetTask(c.UserContext(), id)
		if err != nil {
			if services.KindOf(err) == services.KindNotFound {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "task is not active",
					"kind":  services.KindInvalidTask,
				})
			}
			return respondError(c, err)
		}
		if !task.Active() {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "task is not active",
				"kind":  services.KindInvalidTask,
			})
		}

		url, err := proofs.PutProof(c.UserContext(), fmt.Sprintf("proofs/%d", id), fileHeader)
		if err != nil {
			utils.NewLogger("http").WithError(err).WithField("task_id", id).Error("proof upload failed")
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "failed to store proof file"})
		}

		sub, err := subs.SubmitProof(c.UserContext(), id, middleware.UserID(c), services.Proof{Kind: kind, Payload: url})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sub)
	})

	r.Get("/submissions/me", func(c *fiber.Ctx) error {
		list, err := subs.ListByWorker(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"submissions": list})
	})
}

func proofKindFor(contentType string) (models.ProofKind, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.ProofPhoto, true
	case strings.HasPrefix(contentType, "video/"):
		return models.ProofVideo, true
	}
	return "", false
}

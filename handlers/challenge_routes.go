// handlers/challenge_routes.go
package handlers

import (
	"time"

	"trayectoria-service/middleware"
	"trayectoria-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challengeService *services.ChallengeService, leaderboardService *services.LeaderboardService, entityService *services.EntityService) {
	// 🔓 Leaderboard read — gateway auth only; viewer position is filled in
	// when the gateway forwarded a user context.
	app.Get("/challenges/:id/leaderboard", middleware.UserContextMiddleware(), func(c *fiber.Ctx) error {
		period := services.ParsePeriod(c.Query("periodo", "all"))
		limit := c.QueryInt("limit", 20)
		offset := c.QueryInt("offset", 0)

		viewerEntityID := ""
		if userID, _ := c.Locals("user_id").(string); userID != "" {
			if entity, err := entityService.GetByExternalID(userID); err == nil {
				viewerEntityID = entity.ID
			}
		}

		page, err := leaderboardService.Compute(c.Params("id"), period, limit, offset, viewerEntityID)
		if err != nil {
			return errorResponse(c, err, "failed to compute leaderboard")
		}
		return c.JSON(page)
	})

	// 🔐 Secured routes
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/challenges/:id/participations", func(c *fiber.Ctx) error {
		type Req struct {
			Title string `json:"title"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		userID, _ := c.Locals("user_id").(string)
		entity, err := entityService.GetByExternalID(userID)
		if err != nil {
			return errorResponse(c, err, "failed to resolve entity")
		}
		participation, err := challengeService.Submit(c.Params("id"), entity.ID, req.Title)
		if err != nil {
			return errorResponse(c, err, "submission failed")
		}
		return c.Status(201).JSON(participation)
	})

	secured.Post("/participations/:id/vote", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return c.Status(401).JSON(fiber.Map{"error": "missing user context"})
		}
		voted, err := challengeService.ToggleVote(c.Params("id"), userID)
		if err != nil {
			return errorResponse(c, err, "vote failed")
		}
		votes, err := challengeService.VoteCount(c.Params("id"))
		if err != nil {
			return errorResponse(c, err, "vote failed")
		}
		return c.JSON(fiber.Map{
			"voted": voted,
			"votos": votes,
		})
	})

	// 🔒 Admin routes
	admin := secured.Group("/admin")

	admin.Post("/challenges", func(c *fiber.Ctx) error {
		type Req struct {
			Title           string `json:"title" validate:"required"`
			Description     string `json:"description"`
			StartTime       string `json:"start_time" validate:"required"`
			EndTime         string `json:"end_time"`
			PublishSchedule string `json:"publish_schedule"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if req.Title == "" || req.StartTime == "" {
			return c.Status(400).JSON(fiber.Map{"error": "title and start_time are required"})
		}
		startTime, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid start_time (use RFC3339)"})
		}
		var endTime time.Time
		if req.EndTime != "" {
			endTime, err = time.Parse(time.RFC3339, req.EndTime)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "invalid end_time (use RFC3339)"})
			}
		}
		var publishSchedule *time.Time
		if req.PublishSchedule != "" {
			scheduled, err := time.Parse(time.RFC3339, req.PublishSchedule)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "invalid publish_schedule (use RFC3339)"})
			}
			publishSchedule = &scheduled
		}
		challenge, err := challengeService.CreateChallenge(req.Title, req.Description, startTime, endTime, publishSchedule)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to create challenge", "details": err.Error()})
		}
		return c.Status(201).JSON(challenge)
	})

	admin.Patch("/challenges/:id/status", func(c *fiber.Ctx) error {
		type Req struct {
			Status string `json:"status" validate:"oneof=draft active closed cancelled publish"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
		}
		challenge, err := challengeService.UpdateStatus(c.Params("id"), req.Status)
		if err != nil {
			return errorResponse(c, err, "status update failed")
		}
		return c.JSON(challenge)
	})

	admin.Patch("/participations/:id/status", func(c *fiber.Ctx) error {
		type Req struct {
			Status string `json:"status" validate:"oneof=pending approved rejected disqualified"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
		}
		participation, err := challengeService.SetParticipationStatus(c.Params("id"), req.Status)
		if err != nil {
			return errorResponse(c, err, "status update failed")
		}
		return c.JSON(participation)
	})
}

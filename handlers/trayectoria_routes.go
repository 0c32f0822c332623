// handlers/trayectoria_routes.go
package handlers

import (
	"errors"

	"trayectoria-service/middleware"
	"trayectoria-service/models"
	"trayectoria-service/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

func SetupTrayectoriaRoutes(app *fiber.App, entityService *services.EntityService, scoreService *services.ScoreService, stageService *services.StageService, badgeService *services.BadgeService) {
	// 🔓 Read endpoints — gateway auth only, profiles are public
	app.Get("/entities/:id/trayectoria/resumen", func(c *fiber.Ctx) error {
		summary, err := scoreService.Summary(c.Params("id"))
		if err != nil {
			return errorResponse(c, err, "failed to build score summary")
		}
		return c.JSON(summary)
	})

	app.Get("/entities/:id/trayectoria/etapas", func(c *fiber.Ctx) error {
		stages, err := stageService.ListForEntity(c.Params("id"))
		if err != nil {
			return errorResponse(c, err, "failed to fetch stages")
		}
		return c.JSON(stages)
	})

	app.Get("/entities/:id/trayectoria/logros", func(c *fiber.Ctx) error {
		badges, err := badgeService.ListForEntity(c.Params("id"))
		if err != nil {
			return errorResponse(c, err, "failed to fetch badges")
		}
		return c.JSON(badges)
	})

	app.Get("/entities/:id/trayectoria/historial", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 20)
		history, err := scoreService.History(c.Params("id"), limit)
		if err != nil {
			return errorResponse(c, err, "failed to fetch score history")
		}
		return c.JSON(history)
	})

	// 🔐 Secured routes — require user context
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/entities", func(c *fiber.Ctx) error {
		type Req struct {
			ExternalUserID string `json:"external_user_id" validate:"required,uuid"`
			Name           string `json:"name" validate:"required"`
			Kind           string `json:"kind" validate:"oneof=user business"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if req.ExternalUserID == "" || req.Name == "" {
			return c.Status(400).JSON(fiber.Map{"error": "external_user_id and name are required"})
		}
		entity, err := entityService.Onboard(req.ExternalUserID, req.Name, req.Kind)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "onboarding failed", "cause": err.Error()})
		}
		return c.Status(201).JSON(entity)
	})

	secured.Post("/entities/:id/scores", func(c *fiber.Ctx) error {
		type Req struct {
			Contratante *float64 `json:"contratante,omitempty"`
			Contratado  *float64 `json:"contratado,omitempty"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if req.Contratante == nil && req.Contratado == nil {
			return c.Status(400).JSON(fiber.Map{"error": "at least one of contratante, contratado is required"})
		}
		// The aggregator doesn't clamp; out-of-range input is rejected here.
		for _, v := range []*float64{req.Contratante, req.Contratado} {
			if v != nil && (*v < 0 || *v > 100) {
				return c.Status(400).JSON(fiber.Map{"error": "scores must be between 0 and 100"})
			}
		}
		record, err := scoreService.UpdateScores(c.Params("id"), req.Contratante, req.Contratado)
		if err != nil {
			return errorResponse(c, err, "score update failed")
		}
		return c.JSON(record)
	})

	secured.Post("/entities/:id/etapas/:stage_id/ratings", func(c *fiber.Ctx) error {
		type Req struct {
			Score float64 `json:"score" validate:"min=0,max=5"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		stageID, err := c.ParamsInt("stage_id")
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "stage_id must be an integer"})
		}
		raterID, _ := c.Locals("user_id").(string)
		if err := stageService.RecordRating(c.Params("id"), stageID, req.Score, raterID); err != nil {
			return errorResponse(c, err, "rating failed")
		}
		return c.Status(201).JSON(fiber.Map{"message": "rating recorded"})
	})

	secured.Patch("/entities/:id/etapas/:stage_id/visibility", func(c *fiber.Ctx) error {
		type Req struct {
			Visible bool `json:"visible"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
		}
		stageID, err := c.ParamsInt("stage_id")
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "stage_id must be an integer"})
		}
		if err := stageService.SetVisibility(c.Params("id"), stageID, req.Visible); err != nil {
			return errorResponse(c, err, "visibility update failed")
		}
		return c.JSON(fiber.Map{"message": "visibility updated"})
	})

	// 🔒 Admin routes
	admin := secured.Group("/admin")

	admin.Post("/badges", func(c *fiber.Ctx) error {
		type Req struct {
			Name             string  `json:"name" validate:"required"`
			Description      string  `json:"description"`
			Icon             string  `json:"icon"`
			Color            string  `json:"color"`
			CriteriaMetric   string  `json:"criterio_tipo" validate:"required"`
			CriteriaOperator string  `json:"criterio_operador" validate:"required"`
			CriteriaValue    float64 `json:"criterio_valor"`
			Exclusive        bool    `json:"exclusive"`
			MaxAwards        *int    `json:"max_awards,omitempty"`
			Secret           bool    `json:"secret"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if req.Name == "" || req.CriteriaMetric == "" {
			return c.Status(400).JSON(fiber.Map{"error": "name and criterio_tipo are required"})
		}
		// Malformed operators are rejected here, at catalog load — never at
		// evaluation time.
		op, err := services.ParseOperator(req.CriteriaOperator)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid criterio_operador", "details": err.Error()})
		}
		def := models.BadgeDefinition{
			ID:               uuid.NewString(),
			Code:             slug.Make(req.Name),
			Name:             req.Name,
			Description:      req.Description,
			Icon:             req.Icon,
			Color:            req.Color,
			CriteriaMetric:   req.CriteriaMetric,
			CriteriaOperator: string(op),
			CriteriaValue:    req.CriteriaValue,
			Exclusive:        req.Exclusive,
			MaxAwards:        req.MaxAwards,
			Secret:           req.Secret,
			IsActive:         true,
		}
		if err := badgeService.DB.Create(&def).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to create badge", "details": err.Error()})
		}
		return c.Status(201).JSON(def)
	})

	admin.Post("/entities/:id/counters", func(c *fiber.Ctx) error {
		var updates map[string]interface{}
		if err := c.BodyParser(&updates); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if err := entityService.BumpCounters(c.Params("id"), updates); err != nil {
			return errorResponse(c, err, "counter update failed")
		}
		return c.JSON(fiber.Map{"message": "counters updated"})
	})

	admin.Post("/entities/:id/badges/:code/revoke", func(c *fiber.Ctx) error {
		if err := badgeService.RevokeAward(c.Params("id"), c.Params("code")); err != nil {
			return errorResponse(c, err, "revoke failed")
		}
		return c.JSON(fiber.Map{"message": "badge revoked"})
	})
}

// errorResponse maps service sentinels onto HTTP statuses.
func errorResponse(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrEntityNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "entity not found"})
	case errors.Is(err, services.ErrChallengeNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "challenge not found"})
	case errors.Is(err, services.ErrParticipationNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "participation not found"})
	case errors.Is(err, services.ErrUnknownStage):
		return c.Status(400).JSON(fiber.Map{"error": "unknown stage"})
	case errors.Is(err, services.ErrScoreOutOfRange):
		return c.Status(400).JSON(fiber.Map{"error": "score out of range"})
	case errors.Is(err, services.ErrUnknownOperator):
		return c.Status(400).JSON(fiber.Map{"error": "invalid operator"})
	case errors.Is(err, services.ErrInvalidStatus):
		return c.Status(400).JSON(fiber.Map{"error": "invalid status"})
	}
	return c.Status(500).JSON(fiber.Map{"error": fallback, "cause": err.Error()})
}

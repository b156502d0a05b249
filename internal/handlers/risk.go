package handlers

import (
	"github.com/gofiber/fiber/v2"

	"corebank/internal/models"
	"corebank/internal/services/risk"
)

type RiskHandler struct {
	svc *risk.Service
}

func NewRiskHandler(svc *risk.Service) *RiskHandler {
	if svc == nil {
		panic("risk service is required")
	}
	return &RiskHandler{svc: svc}
}

// Assess scores an entity of the type given in the path. The request body
// carries the entity profile and an optional force_refresh flag.
func (h *RiskHandler) Assess(c *fiber.Ctx) error {
	entityType := models.EntityType(c.Params("entityType"))

	switch entityType {
	case models.EntityTypeCustomer:
		var body struct {
			EntityID     string            `json:"entity_id"`
			ForceRefresh bool              `json:"force_refresh"`
			Data         risk.CustomerData `json:"data"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		return c.JSON(h.svc.ScoreCustomer(c.Context(), body.EntityID, body.Data, body.ForceRefresh))

	case models.EntityTypeAccount:
		var body struct {
			EntityID     string           `json:"entity_id"`
			ForceRefresh bool             `json:"force_refresh"`
			Data         risk.AccountData `json:"data"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		return c.JSON(h.svc.ScoreAccount(c.Context(), body.EntityID, body.Data, body.ForceRefresh))

	case models.EntityTypeTransaction:
		var body struct {
			EntityID     string               `json:"entity_id"`
			ForceRefresh bool                 `json:"force_refresh"`
			Data         risk.TransactionData `json:"data"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		return c.JSON(h.svc.ScoreTransaction(c.Context(), body.EntityID, body.Data, body.ForceRefresh))

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown entity type",
		})
	}
}

// ClearCache invalidates cached assessments, optionally scoped by entity
// type and id via query parameters.
func (h *RiskHandler) ClearCache(c *fiber.Ctx) error {
	entityType := models.EntityType(c.Query("entity_type"))
	entityID := c.Query("entity_id")

	switch {
	case entityType != "" && entityID != "":
		h.svc.ClearCacheEntity(entityType, entityID)
	case entityType != "":
		h.svc.ClearCacheType(entityType)
	default:
		h.svc.ClearCache()
	}
	return c.JSON(fiber.Map{"message": "cache cleared"})
}

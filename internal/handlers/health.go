package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"corebank/internal/repositories/cache"
)

type HealthHandler struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

func NewHealthHandler(db *gorm.DB, redisCache *cache.RedisCache) *HealthHandler {
	return &HealthHandler{db: db, cache: redisCache}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	services := fiber.Map{}
	healthy := true

	if h.db != nil {
		status := "connected"
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Context()) != nil {
			status = "unavailable"
			healthy = false
		}
		services["database"] = status
	}
	if h.cache != nil {
		status := "connected"
		if err := h.cache.HealthCheck(c.Context()); err != nil {
			status = "unavailable"
			healthy = false
		}
		services["redis"] = status
	}

	status := "ok"
	code := fiber.StatusOK
	if !healthy {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"services": services,
	})
}

package handlers

import "github.com/gofiber/fiber/v2"

// SetupRoutes mounts the API surface. Handlers are constructed by the
// caller so the wiring stays in one place.
func SetupRoutes(app *fiber.App, txHandler *TransactionHandler, riskHandler *RiskHandler, healthHandler *HealthHandler) {
	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")

	transactions := api.Group("/transactions")
	transactions.Post("/", txHandler.Execute)
	transactions.Get("/:id", txHandler.Get)
	transactions.Post("/:id/verify", txHandler.Verify)
	transactions.Post("/:id/reverse", txHandler.Reverse)

	riskGroup := api.Group("/risk")
	riskGroup.Post("/assess/:entityType", riskHandler.Assess)
	riskGroup.Delete("/cache", riskHandler.ClearCache)
}

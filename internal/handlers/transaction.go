package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"corebank/internal/repositories/cache"
	"corebank/internal/services/transaction"
)

type TransactionHandler struct {
	svc    *transaction.Service
	cache  *cache.RedisCache
	logger *zap.Logger
}

func NewTransactionHandler(svc *transaction.Service, redisCache *cache.RedisCache, logger *zap.Logger) *TransactionHandler {
	if svc == nil {
		panic("transaction service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionHandler{svc: svc, cache: redisCache, logger: logger}
}

// Execute runs a transaction end to end and returns its disposition.
func (h *TransactionHandler) Execute(c *fiber.Ctx) error {
	var req transaction.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := h.svc.Execute(c.Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}

	h.cacheResult(c, result)

	status := fiber.StatusOK
	if result.Outcome == transaction.OutcomeBlocked {
		status = fiber.StatusForbidden
	}
	return c.Status(status).JSON(result)
}

// Verify completes a transaction previously parked for review.
func (h *TransactionHandler) Verify(c *fiber.Ctx) error {
	transactionID := c.Params("id")

	result, err := h.svc.CompleteVerified(c.Context(), transactionID)
	if err != nil {
		return errorResponse(c, err)
	}
	h.cacheResult(c, result)
	return c.JSON(result)
}

// Reverse undoes a completed transaction.
func (h *TransactionHandler) Reverse(c *fiber.Ctx) error {
	transactionID := c.Params("id")

	result, err := h.svc.Reverse(c.Context(), transactionID)
	if err != nil {
		return errorResponse(c, err)
	}
	if h.cache != nil {
		// the original record changed status, drop the stale copy
		_ = h.cache.DeleteTransaction(c.Context(), transactionID)
	}
	return c.JSON(result)
}

// Get returns a transaction by its public identifier, consulting the
// cache before the database.
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	transactionID := c.Params("id")

	if h.cache != nil {
		if tx, err := h.cache.GetTransaction(c.Context(), transactionID); err == nil && tx != nil {
			return c.JSON(tx)
		}
	}

	tx, err := h.svc.Get(c.Context(), transactionID)
	if err != nil {
		return errorResponse(c, err)
	}
	if h.cache != nil {
		if err := h.cache.SetTransaction(c.Context(), tx); err != nil {
			h.logger.Debug("transaction cache write failed", zap.Error(err))
		}
	}
	return c.JSON(tx)
}

func (h *TransactionHandler) cacheResult(c *fiber.Ctx, result *transaction.Result) {
	if h.cache == nil || result.Transaction == nil {
		return
	}
	if err := h.cache.SetTransaction(c.Context(), result.Transaction); err != nil {
		h.logger.Debug("transaction cache write failed", zap.Error(err))
	}
}

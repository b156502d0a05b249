package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	domainerrors "corebank/internal/errors"
)

// statusForError maps domain error codes onto HTTP statuses. Unknown
// errors are treated as internal.
func statusForError(err error) int {
	var domainErr *domainerrors.DomainError
	if !errors.As(err, &domainErr) {
		return fiber.StatusInternalServerError
	}
	switch domainErr.Code {
	case domainerrors.ErrValidation.Code:
		return fiber.StatusBadRequest
	case domainerrors.ErrAccountNotFound.Code, domainerrors.ErrTransactionNotFound.Code:
		return fiber.StatusNotFound
	case domainerrors.ErrInsufficientFunds.Code, domainerrors.ErrLimitExceeded.Code:
		return fiber.StatusUnprocessableEntity
	case domainerrors.ErrInactiveAccount.Code, domainerrors.ErrTransactionBlocked.Code:
		return fiber.StatusForbidden
	case domainerrors.ErrInvalidStatus.Code:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	var domainErr *domainerrors.DomainError
	if errors.As(err, &domainErr) {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": domainErr.Message,
			"code":  domainErr.Code,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
	})
}

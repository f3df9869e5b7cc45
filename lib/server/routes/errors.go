package routes

import (
	"battlearena/lib/battles"
	"battlearena/lib/sui"
	"battlearena/lib/wallet"
	"errors"

	"github.com/gofiber/fiber/v2"
)

// errorStatus maps domain errors to HTTP statuses. Anything unknown is a ledger or
// wallet failure upstream of this service.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, battles.ErrBattleNotFound), errors.Is(err, battles.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, battles.ErrInvalidSide), errors.Is(err, battles.ErrInvalidBattle):
		return fiber.StatusBadRequest
	case errors.Is(err, battles.ErrWalletNotConnected):
		return fiber.StatusUnauthorized
	case errors.Is(err, wallet.ErrSigningRejected):
		return fiber.StatusForbidden
	case errors.Is(err, sui.ErrExecutionFailed):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, battles.ErrInvalidTransition),
		errors.Is(err, battles.ErrSubmissionInFlight),
		errors.Is(err, battles.ErrNoSelection):
		return fiber.StatusConflict
	}
	return fiber.StatusBadGateway
}

func sendError(ctx *fiber.Ctx, err error) error {
	return ctx.Status(errorStatus(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

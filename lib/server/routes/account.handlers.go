package routes

import (
	"battlearena/lib/server/middleware"
	"battlearena/lib/sui"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

type BalanceReader interface {
	GetBalance(ctx context.Context, owner string) (json.RawMessage, error)
}

func BalanceHandler(ctx *fiber.Ctx, reader BalanceReader) error {
	address, err := middleware.GetWalletAddress(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	raw, err := reader.GetBalance(ctx.UserContext(), address)
	if err != nil {
		slog.Error("Failed to fetch balance", "error", err, "address", address)
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "cannot fetch balance",
		})
	}
	mist, ok := sui.BalanceMist(raw)
	if !ok {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "unreadable balance",
		})
	}
	return ctx.JSON(fiber.Map{
		"address": address,
		"mist":    mist,
		"sui":     sui.MistToSui(mist).String(),
	})
}

package routes

import (
	"battlearena/lib/battles"
	"battlearena/lib/server/middleware"
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const CONFIRM_TIMEOUT = 2 * time.Minute

type SelectSideData struct {
	Side string `json:"side"`
}

func OpenSessionHandler(ctx *fiber.Ctx, registry *battles.Registry) error {
	session := registry.Open(ctx.Params("id"))
	if _, err := session.Load(ctx.UserContext()); err != nil {
		registry.Close(session.ID())
		return sendError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(session.View())
}

func GetSessionHandler(ctx *fiber.Ctx, registry *battles.Registry) error {
	session, err := registry.Get(ctx.Params("sid"))
	if err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(session.View())
}

func JoinSessionHandler(ctx *fiber.Ctx, registry *battles.Registry) error {
	session, err := registry.Get(ctx.Params("sid"))
	if err != nil {
		return sendError(ctx, err)
	}
	address, _ := middleware.GetWalletAddress(ctx)
	if err := session.StartJoin(address); err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(session.View())
}

// ownedSession returns the session when the caller's wallet is the one that joined it.
func ownedSession(ctx *fiber.Ctx, registry *battles.Registry) (*battles.Session, bool, error) {
	session, err := registry.Get(ctx.Params("sid"))
	if err != nil {
		return nil, false, sendError(ctx, err)
	}
	address, _ := middleware.GetWalletAddress(ctx)
	owner := session.Address()
	if owner != "" && !strings.EqualFold(owner, address) {
		return nil, false, ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "session belongs to another wallet",
		})
	}
	return session, true, nil
}

func SelectSideHandler(ctx *fiber.Ctx, registry *battles.Registry) error {
	var data SelectSideData
	if err := ctx.BodyParser(&data); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	side, err := battles.ParseSide(data.Side)
	if err != nil {
		return sendError(ctx, err)
	}

	session, ok, err := ownedSession(ctx, registry)
	if !ok {
		return err
	}
	if err := session.Select(side); err != nil {
		return sendError(ctx, err)
	}
	return ctx.JSON(session.View())
}

// ConfirmSessionHandler blocks until the join transaction is executed and resolved.
// A failed submission answers with the error and leaves the session choosing.
func ConfirmSessionHandler(ctx *fiber.Ctx, registry *battles.Registry) error {
	session, ok, err := ownedSession(ctx, registry)
	if !ok {
		return err
	}

	confirm_ctx, cancel := context.WithTimeout(ctx.UserContext(), CONFIRM_TIMEOUT)
	defer cancel()
	if err := session.Confirm(confirm_ctx); err != nil {
		return ctx.Status(errorStatus(err)).JSON(fiber.Map{
			"error":   err.Error(),
			"session": session.View(),
		})
	}
	return ctx.JSON(session.View())
}

func CloseSessionHandler(ctx *fiber.Ctx, registry *battles.Registry) error {
	if err := registry.Close(ctx.Params("sid")); err != nil {
		return sendError(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

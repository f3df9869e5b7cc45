package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

func (server *ArenaServer) RegisterRoutes() {
	server.App.Get("/health", server.healthHandler)

	server.RegisterBattleRoutes()
	server.RegisterSessionRoutes()
	server.RegisterAccountRoutes()
}

func (server *ArenaServer) healthHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	mode, state, substate := server.StateMachine.Get()
	snapshot := server.Poller.Snapshot()
	return c.JSON(fiber.Map{
		"mode":     mode.String(),
		"state":    state.String(),
		"substate": substate.String(),
		"ledger":   server.Ledger.Health(ctx),
		"cache":    server.Cache.Health(),
		"db":       server.Db.Health(),
		"vault":    server.VaultManager.Health(),
		"journal":  server.Journal.Running(),
		"sessions": server.Registry.Len(),
		"battles": fiber.Map{
			"count":        len(snapshot.Battles),
			"sequence":     snapshot.Sequence,
			"healthy":      snapshot.Healthy,
			"refreshed_at": snapshot.RefreshedAt,
		},
	})
}

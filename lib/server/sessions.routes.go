package server

import (
	m "battlearena/lib/maintenance"
	"battlearena/lib/server/middleware"
	"battlearena/lib/server/routes"
	"battlearena/lib/vault"

	"github.com/gofiber/fiber/v2"
)

func (server *ArenaServer) RegisterSessionRoutes() {
	sessions_group := server.App.Group("/sessions")
	for_wallet := middleware.ForWallet(server.VaultManager.ApiKey(vault.API_KEY_JWT))

	sessions_group.Get("/:sid", func(c *fiber.Ctx) error {
		return routes.GetSessionHandler(c, server.Registry)
	})

	sessions_group.Delete("/:sid", func(c *fiber.Ctx) error {
		return routes.CloseSessionHandler(c, server.Registry)
	})

	sessions_group.Post("/:sid/join",
		middleware.OnState(m.STATE_RUNNING),
		for_wallet,
		func(c *fiber.Ctx) error {
			return routes.JoinSessionHandler(c, server.Registry)
		},
	)

	sessions_group.Post("/:sid/select",
		for_wallet,
		func(c *fiber.Ctx) error {
			return routes.SelectSideHandler(c, server.Registry)
		},
	)

	sessions_group.Post("/:sid/confirm",
		middleware.OnState(m.STATE_RUNNING),
		for_wallet,
		func(c *fiber.Ctx) error {
			return routes.ConfirmSessionHandler(c, server.Registry)
		},
	)
}

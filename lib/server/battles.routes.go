package server

import (
	m "battlearena/lib/maintenance"
	"battlearena/lib/server/middleware"
	"battlearena/lib/server/routes"
	"battlearena/lib/vault"

	"github.com/gofiber/fiber/v2"
)

func (server *ArenaServer) RegisterBattleRoutes() {
	battles_group := server.App.Group("/battles")

	battles_group.Get("/", func(c *fiber.Ctx) error {
		return routes.ListBattlesHandler(c, server.Poller)
	})

	battles_group.Get("/outcomes", func(c *fiber.Ctx) error {
		return routes.RecentOutcomesHandler(c, server.Db)
	})

	battles_group.Post("/",
		middleware.OnState(m.STATE_RUNNING),
		middleware.ForWallet(server.VaultManager.ApiKey(vault.API_KEY_JWT)),
		func(c *fiber.Ctx) error {
			return routes.CreateBattleHandler(c, server.Creator)
		},
	)

	battles_group.Post("/refresh",
		middleware.WithKey(middleware.ADMIN_KEY_HEADER, server.VaultManager.ApiKey(vault.API_KEY_ADMIN)),
		middleware.OnMode(m.MODE_OPERATIONAL),
		func(c *fiber.Ctx) error {
			return routes.RefreshBattlesHandler(c, server.Poller)
		},
	)

	battles_group.Get("/:id", func(c *fiber.Ctx) error {
		return routes.GetBattleHandler(c, server.Aggregator, server.Cache)
	})

	battles_group.Post("/:id/sessions", func(c *fiber.Ctx) error {
		return routes.OpenSessionHandler(c, server.Registry)
	})
}

package server

import (
	"battlearena/lib/server/middleware"
	"battlearena/lib/server/routes"
	"battlearena/lib/vault"

	"github.com/gofiber/fiber/v2"
)

func (server *ArenaServer) RegisterAccountRoutes() {
	account_group := server.App.Group("/account")
	account_group.Use(middleware.ForWallet(server.VaultManager.ApiKey(vault.API_KEY_JWT)))

	account_group.Get("/balance", func(c *fiber.Ctx) error {
		return routes.BalanceHandler(c, server.Ledger)
	})
}

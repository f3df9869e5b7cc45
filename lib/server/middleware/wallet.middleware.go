package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const WALLET_ADDRESS_KEY = "wallet_address"

var ErrNoWallet = errors.New("no wallet address in context")

// ForWallet authenticates the connected wallet from a bearer token. The token is
// issued by the wallet connector and carries the address in its "address" claim.
func ForWallet(jwt_key func() (string, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := jwt_key()
		if err != nil {
			slog.Error("Cannot access jwt key", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "cannot access jwt key",
			})
		}

		auth_header := c.Get(fiber.HeaderAuthorization)
		if auth_header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}
		token_str := strings.TrimPrefix(auth_header, "Bearer ")
		if token_str == auth_header {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(token_str, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(key), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		address, _ := claims["address"].(string)
		address = strings.TrimSpace(address)
		if address == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}
		c.Locals(WALLET_ADDRESS_KEY, address)

		return c.Next()
	}
}

func GetWalletAddress(c *fiber.Ctx) (string, error) {
	address, ok := c.Locals(WALLET_ADDRESS_KEY).(string)
	if !ok || address == "" {
		return "", ErrNoWallet
	}
	return address, nil
}

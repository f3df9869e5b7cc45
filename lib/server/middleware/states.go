package middleware

import (
	. "battlearena/lib/maintenance"

	"github.com/gofiber/fiber/v2"
)

const STATE_MACHINE_KEY = "StateMachine"

func stateMachine(c *fiber.Ctx) *StateMachine {
	state_machine, _ := c.Locals(STATE_MACHINE_KEY).(*StateMachine)
	return state_machine
}

func OnMode(required Mode) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state_machine := stateMachine(c)
		if state_machine == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "service is not ready",
			})
		}
		mode, _, _ := state_machine.Get()

		if mode != required {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "service in invalid mode",
				"mode":  mode.String(),
			})
		}
		return c.Next()
	}
}

// OnState gates write routes. A degraded service is still RUNNING.
func OnState(required State) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state_machine := stateMachine(c)
		if state_machine == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "service is not ready",
			})
		}
		_, state, _ := state_machine.Get()

		if state != required {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "service in invalid state",
				"state": state.String(),
			})
		}
		return c.Next()
	}
}

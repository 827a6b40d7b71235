package handlers

import (
	"shopkeep/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireUser enforces that a manager is logged in; otherwise redirect to
// login. All product write routes sit behind this.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return c.Redirect("/login")
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// middleware.go guards the admin routes. The dashboard sends the shared
// admin key in X-Admin-Key; only its bcrypt hash lives in the environment.
package api

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth rejects requests whose X-Admin-Key does not match the
// configured bcrypt hash.
func (s *Server) AdminAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("X-Admin-Key")
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "missing admin key",
			})
		}

		if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminKeyHash), []byte(key)); err != nil {
			log.WithField("ip", c.IP()).Warn("Admin API: invalid key")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "invalid admin key",
			})
		}

		return c.Next()
	}
}

package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/flags. Percentage rollouts are evaluated
// per user, so two users can see different snapshots of the same config.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"flags": s.flags.Snapshot(currentUserID(c))})
}

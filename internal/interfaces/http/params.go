package http

import "github.com/gofiber/fiber/v2"

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// pagination lee limit/offset del query string con defaults sanos.
func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", defaultPageLimit)
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

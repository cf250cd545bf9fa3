package httpapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pixel-remedy-bot/intellidash-v2/internal/ratelimit"
)

// RateLimit returns middleware that admits requests through the injected
// limiter, keyed by route and client identity, and reports the window state
// in X-RateLimit headers.
func RateLimit(limiter ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := limiter.Allow(c.Path() + ":" + clientID(c))

		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded",
			})
		}

		return c.Next()
	}
}

func clientID(c *fiber.Ctx) string {
	if v := c.Get("X-Forwarded-For"); v != "" {
		return v
	}
	if v := c.Get("X-Real-IP"); v != "" {
		return v
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "anonymous"
}

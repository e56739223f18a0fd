package middlewares

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func limitReached(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success":    false,
			"message":    message,
			"error_code": "TOO_MANY_REQUESTS",
		})
	}
}

// Global limiter: per IP for every endpoint
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: limitReached("❌ Too many requests. Please try again later."),
	})
}

// SubmissionRateLimiter throttles submission writes per authenticated user.
// Mount after the auth middleware so user_id is set.
func SubmissionRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodGet
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			if id := c.Locals("user_id"); id != nil {
				return fmt.Sprint(id)
			}
			return c.IP()
		},
		LimitReached: limitReached("❌ Too many submission attempts. Wait a minute."),
	})
}

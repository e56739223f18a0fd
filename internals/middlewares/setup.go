package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"classroom_backend/internals/middlewares/logger"
)

// SetupMiddlewares mounts the app-wide middleware chain.
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(logger.LoggerMiddleware())
	app.Use(CorsMiddleware())
	app.Use(GlobalRateLimiter())
}

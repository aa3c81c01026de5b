package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"gatepass_backend/internals/middlewares/logger"
)

// SetupMiddlewares pasang middleware dasar (urutan penting:
// recovery paling luar, lalu cors, logger, rate limiter global).
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())
	app.Use(logger.LoggerMiddleware())
	app.Use(GlobalRateLimiter())
}

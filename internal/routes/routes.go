package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/launchloop/launchloop-backend/internal/config"
	"github.com/launchloop/launchloop-backend/internal/handlers"
	"github.com/launchloop/launchloop-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	paymentHandler *handlers.PaymentHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth routes are public but get a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Get("/challenge", authHandler.Challenge)
	auth.Post("/wallet", authHandler.WalletLogin)
	auth.Post("/email", authHandler.EmailLogin)

	// Protected routes (JWT required)
	api.Post("/wallet/link", middleware.JWTProtected(cfg), authHandler.LinkWallet)
	api.Post("/payments", middleware.JWTProtected(cfg), paymentHandler.Record)
	api.Get("/payments", middleware.JWTProtected(cfg), paymentHandler.List)
	api.Get("/users/me", middleware.JWTProtected(cfg), userHandler.Me)

	// Public
	api.Get("/users/leaderboard", userHandler.Leaderboard)
}

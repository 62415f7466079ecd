package api

import (
	"kinto/docs"
	"kinto/internal/api/handlers"
	"kinto/internal/models"
	"kinto/pkg/auth"
	"kinto/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func SetupRouter(
	chatHandler *handlers.ChatHandler,
	authHandler *handlers.AuthHandler,
	articleHandler *handlers.ArticleHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// Importing docs registers the swagger document via init()
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	authGroup := app.Group("/user/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Get("/me",
		middleware.RequireAuth(jwtManager, appLogger),
		authHandler.Me)

	// Chat is open to anonymous users; a valid token only upgrades the
	// resolved context (identity, internal-article access).
	app.Post("/api/v1/chat",
		middleware.OptionalAuth(jwtManager, appLogger),
		chatHandler.Chat)

	// Knowledge base management (staff only)
	kb := app.Group("/api/v1/kb",
		middleware.RequireAuth(jwtManager, appLogger),
		middleware.RequireRole(string(models.RoleStaff)))
	kb.Post("/articles", articleHandler.Upsert)
	kb.Get("/articles/:id", articleHandler.Get)
	kb.Post("/reload", articleHandler.Reload)

	return app
}

package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"latex2png/internal/config"
	"latex2png/internal/http/handlers"
	"latex2png/internal/http/middleware"
	"latex2png/internal/infra/logging"
)

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Config config.Config
	Engine handlers.Renderer
}

// New creates and configures a new Fiber app instance.
func New(d Deps) *fiber.App {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		AppName:               "latex2png",
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				msg = e.Message
			}

			logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		},
	})

	middleware.Register(app, func() bool { return d.Engine != nil && d.Engine.Stats().Enabled })
	RegisterRoutes(app, cfg, d.Engine)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// RegisterRoutes mounts all route handlers to the app.
func RegisterRoutes(app *fiber.App, cfg config.Config, engine handlers.Renderer) {
	app.Get("/", handlers.HandleDocs)
	app.Get("/openapi.json", handlers.HandleOpenAPI)

	svc := handlers.NewRenderService(cfg, engine)
	app.Get("/render", svc.HandleRender)

	ops := app.Group("/ops")
	ops.Get("/render/stats", svc.HandleRenderStats)
	ops.Get("/monitor", monitor.New(monitor.Config{Title: "latex2png"}))
}

// Package server exposes the dashboard state as a JSON API.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/documetrics/docudash/core"
	"github.com/documetrics/docudash/internal/contract"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Server wraps a fiber app bound to one application state.
type Server struct {
	cfg *contract.Config
	app *core.App
	web *fiber.App
}

// New builds the server and registers every route.
func New(cfg *contract.Config, app *core.App) *Server {
	s := &Server{cfg: cfg, app: app}
	s.web = fiber.New(fiber.Config{
		AppName:               "DocuMetrics Dashboard API",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	s.web.Use(recover.New())
	s.web.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	s.web.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	h := &handler{cfg: cfg, app: app}
	api := s.web.Group("/api")
	api.Get("/health", h.health)
	api.Get("/dataset", h.dataset)
	api.Get("/file", h.file)
	api.Get("/project", h.project)
	api.Get("/summary", h.summary)
	api.Post("/analyze", h.analyze)
	api.Get("/analysis", h.analysis)
	api.Get("/theme", h.theme)
	api.Put("/theme", h.setTheme)
	return s
}

// Handler returns the underlying fiber app.
func (s *Server) Handler() *fiber.App {
	return s.web
}

// Listen serves on addr until ctx is done, then shuts down.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.web.Listen(addr)
	}()
	contract.LogInfo("🚀 Dashboard API listening on http://%s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		contract.LogInfo("🛑 Shutting down dashboard API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.web.ShutdownWithContext(shutdownCtx)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

// Package main provides the SafeHands guided-workflow API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/safehands/guide/pkg/catalog"
	"github.com/safehands/guide/pkg/web"
	"github.com/safehands/guide/pkg/workflow"
)

type API struct {
	logger   *slog.Logger
	engine   *workflow.Engine
	catalog  *catalog.Catalog
	gatherer prometheus.Gatherer
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	engine *workflow.Engine,
	cat *catalog.Catalog,
	gatherer prometheus.Gatherer,
) *API {
	return &API{
		logger:   logger,
		engine:   engine,
		catalog:  cat,
		gatherer: gatherer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.engine, a.catalog, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: handlers.Ready,
	}))

	if a.gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})))
	}

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("SafeHands API")
	})

	app.Post("/connect", handlers.Connect)
	app.Post("/sessions/:id/messages", handlers.PostMessage)

	w := app.Group("/workflow")
	w.Get("/state/:id", handlers.GetWorkflowState)
	w.Delete("/state/:id", handlers.ClearWorkflowState)
	w.Get("/interruption/:id", handlers.GetInterruption)
	w.Post("/interruption/:id/escalated", handlers.AcknowledgeInterruption)
	w.Get("/sessions", handlers.ListSessions)

	app.Get("/workflows", handlers.ListWorkflowTypes)
	app.Get("/stats", handlers.Stats)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}

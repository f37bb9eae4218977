// Package main provides the form API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/eclane/open-typeform/pkg/eventbus"
	"github.com/eclane/open-typeform/pkg/runtime"
	"github.com/eclane/open-typeform/pkg/services"
	"github.com/eclane/open-typeform/pkg/store"
	"github.com/eclane/open-typeform/pkg/web"
)

type API struct {
	logger   *slog.Logger
	store    *store.Store
	eventBus eventbus.EventBus
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	formStore *store.Store,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:   logger,
		store:    formStore,
		eventBus: eventBus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	formService := services.NewForm(a.store, a.eventBus, a.logger)
	analyticsService := services.NewAnalytics(a.store)
	sessionManager := runtime.NewManager(a.store, a.logger)

	handlers := web.NewAPIHandlers(formService, analyticsService, sessionManager, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Open Typeform API")
	})

	forms := app.Group("/forms")
	forms.Get("/", handlers.GetForms)
	forms.Post("/", handlers.CreateForm)
	forms.Get("/:id", handlers.GetForm)
	forms.Patch("/:id", handlers.UpdateForm)
	forms.Delete("/:id", handlers.DeleteForm)
	forms.Post("/:id/duplicate", handlers.DuplicateForm)
	forms.Post("/:id/publish", handlers.PublishForm)
	forms.Post("/:id/close", handlers.CloseForm)

	// Question endpoints:
	forms.Post("/:id/questions", handlers.CreateQuestion)
	forms.Patch("/:id/questions/:questionId", handlers.UpdateQuestion)
	forms.Delete("/:id/questions/:questionId", handlers.DeleteQuestion)
	forms.Post("/:id/questions/reorder", handlers.ReorderQuestions)

	// Response and analytics endpoints:
	forms.Post("/:id/responses", handlers.CreateResponse)
	forms.Get("/:id/responses", handlers.GetResponses)
	forms.Get("/:id/summary", handlers.GetFormSummary)

	// Filling session endpoints:
	forms.Post("/:id/sessions", handlers.StartSession)

	sessions := app.Group("/sessions")
	sessions.Get("/:sessionId", handlers.GetSession)
	sessions.Post("/:sessionId/answer", handlers.AnswerSession)
	sessions.Post("/:sessionId/advance", handlers.AdvanceSession)
	sessions.Post("/:sessionId/retreat", handlers.RetreatSession)
	sessions.Post("/:sessionId/restart", handlers.RestartSession)
	sessions.Delete("/:sessionId", handlers.EndSession)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}

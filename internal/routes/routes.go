package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/conciergehq/concierge-backend/internal/handlers"
	"github.com/conciergehq/concierge-backend/internal/middleware"
	"github.com/conciergehq/concierge-backend/internal/services"
	"github.com/conciergehq/concierge-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	app *fiber.App,
	dialogue *services.DialogueService,
	sessions *services.SessionManager,
	appointments storage.AppointmentStore,
	logger *logrus.Logger,
) {
	chatHandler := handlers.NewChatHandler(dialogue, logger)
	documentHandler := handlers.NewDocumentHandler(sessions, logger)
	sessionHandler := handlers.NewSessionHandler(sessions, logger)
	appointmentHandler := handlers.NewAppointmentHandler(appointments, logger)

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to Concierge Backend!",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":       "/health",
				"chat":         "/chat",
				"upload":       "/upload-document",
				"sessions":     "/sessions",
				"appointments": "/appointments",
			},
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Conversation endpoints
	app.Post("/chat", chatHandler.Chat)
	app.Post("/upload-document", documentHandler.Upload)

	// Administrative endpoints
	sessionsGroup := app.Group("/sessions", middleware.RequireAdminKey())
	sessionsGroup.Get("/", sessionHandler.ListSessions)
	sessionsGroup.Get("/:id", sessionHandler.GetSession)
	sessionsGroup.Delete("/:id", sessionHandler.DeleteSession)

	appointmentsGroup := app.Group("/appointments", middleware.RequireAdminKey())
	appointmentsGroup.Get("/", appointmentHandler.ListAppointments)
	appointmentsGroup.Get("/:id", appointmentHandler.GetAppointment)
}

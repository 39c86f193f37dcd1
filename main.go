package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/conciergehq/concierge-backend/database"
	"github.com/conciergehq/concierge-backend/internal/models"
	"github.com/conciergehq/concierge-backend/internal/routes"
	"github.com/conciergehq/concierge-backend/internal/services"
	"github.com/conciergehq/concierge-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			if err := godotenv.Load("environments/.env.development"); err != nil {
				logrus.Info("⚠️  No .env file found - checking environment variables")
			}
		}
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	ttl := services.DefaultSessionTTL
	if minutes, err := strconv.Atoi(os.Getenv("SESSION_TIMEOUT_MINUTES")); err == nil && minutes > 0 {
		ttl = time.Duration(minutes) * time.Minute
	}

	// Initialize storage
	memStore := storage.NewMemoryStore()
	var sessionStore storage.SessionStore = memStore
	var appointmentStore storage.AppointmentStore = memStore

	switch os.Getenv("SESSION_BACKEND") {
	case "redis":
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		redisStore, err := storage.NewRedisStore(
			os.Getenv("REDIS_ADDR"),
			os.Getenv("REDIS_PASSWORD"),
			redisDB,
			ttl,
		)
		if err != nil {
			log.Fatal("Failed to connect to Redis: ", err)
		}
		sessionStore = redisStore
		log.Info("✅ Using Redis session storage")
	case "postgres":
		log.Info("📦 Connecting to PostgreSQL database...")
		database.Connect()

		if err := database.DB.AutoMigrate(
			&models.SessionRecord{},
			&models.Appointment{},
		); err != nil {
			log.Fatal("Failed to migrate database: ", err)
		}
		log.Info("✅ Database migrations completed!")

		dbStore := storage.NewDatabaseStore(database.DB)
		sessionStore = dbStore
		appointmentStore = dbStore
		log.Info("✅ Using PostgreSQL storage")
	default:
		log.Info("⚠️  Using in-memory storage (not for production!)")
	}

	// Initialize services
	llm := services.NewLLMService(log)
	classifier := services.NewIntentClassifier(llm, log)
	retriever := services.NewDocumentRetriever()

	notifier, err := services.NewNotifyService(log)
	if err != nil {
		log.Info("⚠️  Twilio credentials not found - SMS confirmations disabled")
		notifier = nil
	} else {
		log.Info("✅ Twilio notifier initialized")
	}

	sessionManager := services.NewSessionManager(sessionStore, ttl, log)
	sessionManager.StartSweeper(5 * time.Minute)

	dialogue := services.NewDialogueService(
		sessionManager, classifier, retriever, llm,
		appointmentStore, notifier, log,
	)

	log.Info("✅ All services initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Concierge Backend v1.0.0",
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

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	routes.SetupRoutes(app, dialogue, sessionManager, appointmentStore, log)

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info("🛑 Shutting down server...")
		sessionManager.Stop()
		if err := app.Shutdown(); err != nil {
			log.Error("Server shutdown error: ", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Infof("🚀 Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Server error: ", err)
	}
}

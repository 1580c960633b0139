package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"students/internal/config"
	"students/internal/database"
	"students/internal/handlers"
	"students/internal/logging"
	"students/internal/metrics"
	"students/internal/middleware"
	"students/internal/repositories"
	"students/internal/services"
	"students/pkg/rabbitmq"
)

// App bundles the HTTP server with the resources it owns.
type App struct {
	Fiber *fiber.App
	cfg   *config.Config
	log   *slog.Logger
	db    *gorm.DB
	mq    *rabbitmq.Client
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "students: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	app, err := NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialise app", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if app.mq != nil {
		if err := app.mq.ConsumeStudentEvents(ctx, rabbitmq.LogStudentEvent(log)); err != nil {
			log.Warn("failed to start student event consumer", "err", err)
		}
	}

	go func() {
		log.Info("starting server", "addr", cfg.AppPort, "driver", cfg.DBDriver, "auth", cfg.AuthEnabled)
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")
	if err := app.Shutdown(10 * time.Second); err != nil {
		log.Error("error during shutdown", "err", err)
		os.Exit(1)
	}
	log.Info("server gracefully stopped")
}

// NewApp wires the repositories, services and routes described by cfg.
func NewApp(cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	var studentRepo repositories.StudentRepository
	if cfg.DBDriver == config.DriverMemory {
		studentRepo = repositories.NewMemoryStudentRepository()
	} else {
		db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := database.Migrate(db, log); err != nil {
			a.close()
			return nil, err
		}
		studentRepo = repositories.NewGORMStudentRepository(db)
	}

	opts := []services.StudentServiceOption{}
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		opts = append(opts, services.WithMetrics(m))
	}
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue}, log)
		if err != nil {
			a.close()
			return nil, err
		}
		a.mq = mq
		opts = append(opts, services.WithPublisher(mq))
	}
	studentService := services.NewStudentService(studentRepo, log, opts...)

	app := fiber.New(fiber.Config{
		AppName:      "students",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	handlers.RegisterRootRoutes(app)
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	var guard fiber.Handler
	if cfg.AuthEnabled {
		authService := services.NewAuthService(repositories.NewGORMUserRepository(a.db), cfg.JWTSecret, log)
		handlers.NewAuthHandler(authService, log).RegisterRoutes(app)
		guard = middleware.AuthRequired(authService, log)
	}
	handlers.NewStudentHandler(studentService, log).RegisterRoutes(app, guard)

	a.Fiber = app
	return a, nil
}

// Shutdown stops the HTTP server and releases the broker and database.
func (a *App) Shutdown(timeout time.Duration) error {
	err := a.Fiber.ShutdownWithTimeout(timeout)
	return errors.Join(err, a.close())
}

func (a *App) close() error {
	var errs []error
	if a.mq != nil {
		errs = append(errs, a.mq.Close())
	}
	if a.db != nil {
		errs = append(errs, database.Close(a.db))
	}
	return errors.Join(errs...)
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/courseloom/backend/docs"
	"github.com/courseloom/backend/internal/config"
	"github.com/courseloom/backend/internal/handlers"
	"github.com/courseloom/backend/internal/logger"
	"github.com/courseloom/backend/internal/middleware"
	"github.com/courseloom/backend/internal/repositories"
	"github.com/courseloom/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title CourseLoom Statistics API
// @version 1.0
// @description Derived-statistics maintenance engine for the CourseLoom marketplace: keeps enrollment counts, average ratings, and completion percentages consistent with the rows they are computed from.

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key for service-to-service mutation calls
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting CourseLoom Statistics Service")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize store and repositories
	store := repositories.NewStore(db)
	courseRepo := repositories.NewCourseRepository()
	enrollmentRepo := repositories.NewEnrollmentRepository()
	progressRepo := repositories.NewLessonProgressRepository()
	reviewRepo := repositories.NewReviewRepository()

	// Initialize recomputation components
	aggregator := services.NewCourseAggregator(courseRepo, enrollmentRepo, reviewRepo)
	calculator := services.NewProgressCalculator(courseRepo, enrollmentRepo, progressRepo, nil, logger.Logger)

	// Initialize services
	mutations := services.NewMutationService(
		store,
		courseRepo,
		enrollmentRepo,
		progressRepo,
		reviewRepo,
		aggregator,
		calculator,
		logger.Logger,
	)
	stats := services.NewStatsService(store.DB(), courseRepo, enrollmentRepo, reviewRepo)

	// Initialize handlers
	courseHandler := handlers.NewCourseHandler(mutations, logger.Logger)
	enrollmentHandler := handlers.NewEnrollmentHandler(mutations, logger.Logger)
	reviewHandler := handlers.NewReviewHandler(mutations, logger.Logger)
	statsHandler := handlers.NewStatsHandler(stats, logger.Logger)

	apiKeyMw := middleware.APIKey(cfg.APIKey)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger.Logger))
	r.Use(middleware.Recovery(logger.Logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(cfg.Server.RateLimitRPM, time.Minute))
	r.Use(middleware.RequestSizeLimit)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		courseHandler.RegisterRoutes(r, apiKeyMw)
		enrollmentHandler.RegisterRoutes(r, apiKeyMw)
		reviewHandler.RegisterRoutes(r, apiKeyMw)
		statsHandler.RegisterRoutes(r, apiKeyMw)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "stats_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"chronicle/internal/config"
	"chronicle/internal/handler"
	"chronicle/internal/middleware"
	"chronicle/internal/repository/postgres"
	"chronicle/internal/service/narrator"
	"chronicle/internal/service/scene"
	"chronicle/internal/service/session"
	"chronicle/internal/service/turn"
	"chronicle/internal/storyline"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create table names and bootstrap the schema
	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Load the storyline catalog
	catalog, err := storyline.NewCatalog()
	if err != nil {
		log.Fatalf("Failed to load storyline catalog: %v", err)
	}
	logger.Info("storyline catalog loaded", "storylines", len(catalog.All()))

	// Create the store
	store := postgres.NewStore(pool, tables, logger)

	// Upstream gateways (run deterministic/offline without a credential)
	narratorClient := narrator.NewClient(cfg, logger)
	imageGenerator := scene.NewGenerator(cfg, logger)

	// Create services
	sessionService := session.NewService(store, catalog, logger)
	sceneService := scene.NewService(store, imageGenerator, catalog, logger)
	orchestrator := turn.NewOrchestrator(store, narratorClient, sceneService, catalog, logger)

	// Create handlers
	sessionHandler := handler.NewSessionHandler(sessionService, logger)
	imageHandler := handler.NewImageHandler(sceneService, logger)
	turnHandler := handler.NewTurnHandler(orchestrator, logger)
	storylineHandler := handler.NewStorylineHandler(catalog)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Storyline catalog
	mux.HandleFunc("GET /storylines", storylineHandler.ListStorylines)
	mux.HandleFunc("GET /storylines/{id}", storylineHandler.GetStoryline)

	// Session routes
	mux.HandleFunc("POST /sessions", sessionHandler.CreateSession)
	mux.HandleFunc("GET /sessions", sessionHandler.ListSessions)
	mux.HandleFunc("GET /sessions/{id}", sessionHandler.GetSession)
	mux.HandleFunc("POST /sessions/{id}/messages", sessionHandler.AppendMessage)
	mux.HandleFunc("GET /sessions/{id}/messages", sessionHandler.ListMessages)
	mux.HandleFunc("POST /sessions/{id}/images", sessionHandler.CreateImage)
	mux.HandleFunc("GET /sessions/{id}/images", sessionHandler.ListImages)

	// Image generation routes
	mux.HandleFunc("POST /sessions/{id}/images/generate", imageHandler.GenerateScene)
	mux.HandleFunc("POST /sessions/{id}/images/generate-portrait", imageHandler.GeneratePortrait)

	// Turn submission (streamed or buffered)
	mux.HandleFunc("POST /turn", turnHandler.SubmitTurn)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Logging → Routes
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived token streams
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for SIGINT/SIGTERM, then drain
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	// Let trailing persistence and cadence work finish
	orchestrator.Wait()
}

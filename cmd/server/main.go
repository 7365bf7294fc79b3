// Package main is the entry point for the CareLedger calendar server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careledger/backend/internal/api"
	"github.com/careledger/backend/internal/config"
	"github.com/careledger/backend/internal/engine"
	"github.com/careledger/backend/internal/storage"
	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to YAML configuration file")
	addr := flag.String("addr", "", "HTTP server address (overrides config)")
	dataDir := flag.String("data", "", "Data directory for SQLite database (overrides config)")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.Listen); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting CareLedger calendar server (version: %s)...", version)

	// Initialize database
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory %q: %v", cfg.DataDir, err)
	}
	dbPath := cfg.DataDir + "/careledger.db"
	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	broadcaster := websocket.NewEventBroadcaster(hub)

	// Initialize repositories
	medicationRepo := storage.NewMedicationRepository(db)
	supplementRepo := storage.NewSupplementRepository(db)
	appointmentRepo := storage.NewAppointmentRepository(db)
	reminderRepo := storage.NewReminderRepository(db)
	eventRepo := storage.NewEventRepository(db)
	historyRepo := storage.NewHistoryRepository(db)
	catalog := storage.NewSourceCatalog(medicationRepo, supplementRepo, reminderRepo)

	// Initialize the event engine
	evaluator := engine.NewEvaluator()
	generator := engine.NewGenerator(eventRepo, evaluator)

	coordinator := engine.NewCoordinator(eventRepo, historyRepo, generator, broadcaster)
	coordinator.SetWindow(models.EventTypeMedicationDue, cfg.Windows.MedicationDays)
	coordinator.SetWindow(models.EventTypeSupplementDue, cfg.Windows.SupplementDays)
	coordinator.SetWindow(models.EventTypeReminder, cfg.Windows.ReminderDays)

	transitioner := engine.NewTransitioner(eventRepo, historyRepo, map[models.EventType]engine.StockKeeper{
		models.EventTypeMedicationDue: medicationRepo,
		models.EventTypeSupplementDue: supplementRepo,
	}, broadcaster)

	calculator := engine.NewCalculator(eventRepo, historyRepo)

	sweeper := engine.NewSweeper(
		eventRepo,
		transitioner,
		coordinator,
		catalog,
		catalog,
		broadcaster,
		cfg.GraceMinutes,
	)
	sweeper.Start()

	// Initialize HTTP router
	router := api.NewRouter(api.Deps{
		DB:              db,
		Hub:             hub,
		Medications:     medicationRepo,
		Supplements:     supplementRepo,
		Appointments:    appointmentRepo,
		Reminders:       reminderRepo,
		Events:          eventRepo,
		History:         historyRepo,
		Coordinator:     coordinator,
		Transitioner:    transitioner,
		Calculator:      calculator,
		PostponeMinutes: cfg.PostponeMinutes,
		Version:         version,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", cfg.Listen)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	sweeper.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}

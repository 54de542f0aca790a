package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-ledger/internal/api/handlers"
	"github.com/dvloznov/finance-ledger/internal/api/middleware"
	"github.com/dvloznov/finance-ledger/internal/app"
	"github.com/dvloznov/finance-ledger/internal/classifier"
	"github.com/dvloznov/finance-ledger/internal/config"
	"github.com/dvloznov/finance-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/finance-ledger/internal/ledger"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/dvloznov/finance-ledger/internal/persist"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", os.Getenv("LEDGER_CONFIG"), "Path to the YAML config file (or set LEDGER_CONFIG env)")
		port       = flag.String("port", "", "HTTP server port, overrides the config")
	)
	flag.Parse()

	bootLog := logger.New()
	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	// Initialize logger
	log, err := logger.NewWithLevel(cfg.Log.Level)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Invalid log level")
	}

	ctx := logger.WithContext(context.Background(), log)

	// Initialize snapshot storage
	stores, err := app.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open snapshot storage")
	}
	defer stores.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore(cfg.Queue.JobRetention)
	jobQueue := inmemory.NewQueue(cfg.Queue.BufferSize, jobStore,
		inmemory.WithWorkers(cfg.Queue.Workers),
		inmemory.WithMaxRetries(cfg.Queue.MaxRetries),
		inmemory.WithRetryBackoff(cfg.Queue.RetryBackoff),
	)
	writer := persist.NewSnapshotWriter(stores, log)

	// Start job consumer in background. The queue drains on Stop, so the
	// worker context stays alive until shutdown has flushed it.
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	go func() {
		log.Info().Int("workers", cfg.Queue.Workers).Msg("Starting snapshot worker")
		if err := jobQueue.Start(workerCtx, writer.Handle); err != nil {
			log.Error().Err(err).Msg("Snapshot worker stopped with error")
		}
	}()

	opts := []ledger.Option{
		ledger.WithPersister(persist.NewQueuePersister(jobQueue, log)),
		ledger.WithGoalReachedHandler(app.LogGoalReached(log)),
	}
	if cfg.Classifier.Enabled {
		gen, err := classifier.NewGeminiGenerator(ctx, cfg.Classifier.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		opts = append(opts, ledger.WithClassifier(classifier.New(gen, log)))
		log.Info().Str("model", cfg.Classifier.Model).Msg("Category classifier enabled")
	}

	l, err := app.LoadLedger(ctx, stores, log, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}

	mux := handlers.NewRouter(l, jobStore, log)

	// Apply middleware, outermost first
	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS(cfg.Server.AllowedOrigin),
		middleware.Auth(cfg.Server.APIToken),
	)
	if cfg.Server.APIToken == "" {
		log.Warn().Msg("No API token configured - the API is unauthenticated")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for the last snapshots to be written
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Int64("revision", writer.LastRevision()).Msg("Server exited")
}

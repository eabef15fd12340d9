package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/api"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/config"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/enrichment"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/insight"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/jetstream"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/storage"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/usecase"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/utils"
)

const (
	serviceName     = "daisi-crm-insights"
	serviceVersion  = "1.0.0"
	shutdownTimeout = 30 * time.Second
)

func main() {
	time.Local = time.UTC

	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	observer.InitMetrics(cfg.Metrics.Enabled)

	logger.Log.Info("Starting Daisi CRM Insights",
		zap.String("environment", cfg.Environment),
		zap.String("nats_url", cfg.NATS.URL),
		zap.String("insights_timezone", cfg.Insights.Timezone),
		zap.Bool("enrichment_active", cfg.EnrichmentActive()),
	)

	postgresRepo, err := initPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Postgres repository", zap.Error(err))
	}

	customerRepo := storage.NewCustomerRepoAdapter(postgresRepo)
	interactionRepo := storage.NewInteractionRepoAdapter(postgresRepo)

	enricher, err := initEnricher(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize enrichment client", zap.Error(err))
	}

	eventService := usecase.NewEventService(customerRepo, interactionRepo)
	insightService := usecase.NewInsightService(customerRepo, interactionRepo, insight.NewEngine(cfg.Location()), enricher)

	apiServer := api.NewServer(cfg.Server.Port, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, api.Deps{
		Insights:       insightService,
		DB:             postgresRepo,
		MetricsEnabled: cfg.Metrics.Enabled,
		Version:        serviceVersion,
	}, logger.Log)
	apiServer.Start()

	logger.Log.Info("HTTP endpoints available",
		zap.String("insights", fmt.Sprintf("http://localhost:%d/v1/customer-insights", cfg.Server.Port)),
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("readiness", fmt.Sprintf("http://localhost:%d/ready", cfg.Server.Port)),
	)

	jsClient, err := initJetStreamClient(cfg.NATS.URL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize JetStream client", zap.Error(err))
	}

	processor, err := usecase.NewProcessor(eventService, insightService, jsClient, cfg)
	if err != nil {
		logger.Log.Fatal("Failed to create processor", zap.Error(err))
	}
	if err := processor.Setup(); err != nil {
		logger.Log.Fatal("Failed to set up processor", zap.Error(err))
	}
	if err := processor.Start(); err != nil {
		logger.Log.Fatal("Failed to start processor", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", shutdownTimeout))

	// The API and the processor stop in parallel; connections close after both.
	var wg sync.WaitGroup
	wg.Add(2)

	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping event processor")
		start := time.Now()
		processor.Stop()
		logger.Log.Info("[shutdown] Event processor stopped", zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping event processor",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping HTTP server")
		start := time.Now()
		if err := apiServer.Stop(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping HTTP server", zap.Error(err))
			return
		}
		logger.Log.Info("[shutdown] HTTP server stopped", zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping HTTP server",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Log.Info("[shutdown] Consumers and HTTP server stopped")
	case <-shutdownCtx.Done():
		logger.Log.Warn("[shutdown] Graceful shutdown timed out, closing connections anyway")
	}

	logger.Log.Info("[shutdown] Closing JetStream connection")
	jsClient.Close()

	logger.Log.Info("[shutdown] Closing PostgreSQL connection")
	if err := postgresRepo.Close(shutdownCtx); err != nil {
		logger.Log.Error("[shutdown] Failed to close PostgreSQL connection", zap.Error(err))
	}

	logger.Log.Info("Daisi CRM Insights shutdown complete")
}

// Initialize PostgreSQL repository
func initPostgresRepo(dsn string, autoMigrate bool) (*storage.PostgresRepo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	repo, err := storage.NewPostgresRepo(dsn, autoMigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}

	logger.Log.Info("Initialized PostgreSQL repository")
	return repo, nil
}

// initEnricher returns an enricher backed by Gemini, or a disabled one when
// enrichment is off or has no API key.
func initEnricher(cfg *config.Config) (*enrichment.Enricher, error) {
	if !cfg.EnrichmentActive() {
		logger.Log.Info("Enrichment disabled, serving heuristic insights only",
			zap.Bool("enabled", cfg.Enrichment.Enabled))
		return enrichment.NewEnricher(nil, cfg.Enrichment.Timeout), nil
	}

	client, err := enrichment.NewGeminiClient(enrichment.GeminiConfig{
		APIKey:            cfg.Enrichment.APIKey,
		BaseURL:           cfg.Enrichment.BaseURL,
		Model:             cfg.Enrichment.Model,
		RequestsPerMinute: cfg.Enrichment.RequestsPerMinute,
		Burst:             cfg.Enrichment.Burst,
		MaxRetries:        cfg.Enrichment.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Initialized Gemini enrichment client",
		zap.String("model", cfg.Enrichment.Model),
		zap.Int("requests_per_minute", cfg.Enrichment.RequestsPerMinute))
	return enrichment.NewEnricher(client, cfg.Enrichment.Timeout), nil
}

func initJetStreamClient(url string) (*jetstream.Client, error) {
	client, err := jetstream.NewClient(url, serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream client: %w", err)
	}
	return client, nil
}

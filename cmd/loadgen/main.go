package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/config"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/jetstream"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/model"
	"gitlab.com/timkado/api/daisi-crm-insights/internal/observer"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
)

const (
	insightRequestTimeout = 10 * time.Second
)

// customerRef identifies a seeded customer.
type customerRef struct {
	CustomerID string
	OwnerID    string
}

// task is one unit of work for the publishing pool.
type task struct {
	Kind     string // "customer", "interaction" or "insight"
	Customer customerRef
	Payload  []byte
}

type loadgen struct {
	client         jetstream.ClientInterface
	insightSubject string
	wg             sync.WaitGroup
}

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	natsURL := flag.String("url", cfg.NATS.URL, "NATS server URL")
	ownersStr := flag.String("owners", "owner_demo", "Comma-separated list of owner IDs")
	customersPerOwner := flag.Int("customers", 20, "Customers seeded per owner")
	interactionsPerCustomer := flag.Int("interactions", 12, "Interactions seeded per customer")
	rate := flag.Int("rate", 50, "Target operations per second after seeding")
	duration := flag.Duration("duration", time.Minute, "Load phase duration")
	concurrency := flag.Int("concurrency", 10, "Number of concurrent workers")
	insightRatio := flag.Float64("insight-ratio", 0.3, "Share of load-phase operations that are insight requests")
	metricsPort := flag.Int("metrics-port", 9091, "Port for Prometheus metrics endpoint")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "CRM Insights Load Generator\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Seeds fake customers and interactions over NATS, then mixes new interactions with insight requests.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *rate <= 0 {
		*rate = 50
	}

	if err := logger.Initialize(*logLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	observer.InitMetrics(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsServer := startMetricsServer(*metricsPort)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Metrics server shutdown error", zap.Error(err))
		}
	}()

	owners := splitNonEmpty(*ownersStr)
	if len(owners) == 0 {
		logger.Log.Fatal("No owner IDs provided")
	}

	natsClient, err := jetstream.NewClient(*natsURL, "daisi-crm-insights-loadgen")
	if err != nil {
		logger.Log.Fatal("Failed to connect to NATS", zap.String("url", *natsURL), zap.Error(err))
	}
	defer natsClient.Close()

	lg := &loadgen{client: natsClient, insightSubject: cfg.NATS.Insights.Subject}

	pool, err := ants.NewPoolWithFunc(*concurrency, func(data interface{}) {
		defer lg.wg.Done()
		lg.run(ctx, data.(task))
	})
	if err != nil {
		logger.Log.Fatal("Failed to create worker pool", zap.Error(err))
	}
	defer pool.Release()

	logger.Log.Info("Starting load generator",
		zap.String("nats_url", *natsURL),
		zap.Strings("owners", owners),
		zap.Int("customers_per_owner", *customersPerOwner),
		zap.Int("interactions_per_customer", *interactionsPerCustomer),
		zap.Int("rate_per_sec", *rate),
		zap.Duration("duration", *duration),
		zap.Float64("insight_ratio", *insightRatio),
	)

	customers := lg.seed(pool, owners, *customersPerOwner, *interactionsPerCustomer)
	lg.wg.Wait()
	logger.Log.Info("Seeding complete", zap.Int("customers", len(customers)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Log.Info("Received termination signal, shutting down...", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	lg.loop(ctx, pool, customers, *rate, *duration, *insightRatio)

	logger.Log.Info("Waiting for active worker tasks to complete...")
	lg.wg.Wait()
	logger.Log.Info("Load generator shutdown complete.")
}

func startMetricsServer(port int) *http.Server {
	logger.Log.Info("Starting Prometheus metrics server", zap.Int("port", port))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Failed to start Prometheus metrics server", zap.Error(err))
		}
	}()

	return server
}

// seed publishes the customers of every owner followed by their histories.
func (lg *loadgen) seed(pool *ants.PoolWithFunc, owners []string, customersPerOwner, interactionsPerCustomer int) []customerRef {
	customers := make([]customerRef, 0, len(owners)*customersPerOwner)
	for _, owner := range owners {
		for i := 0; i < customersPerOwner; i++ {
			payload := model.NewUpsertCustomerPayload(owner)
			ref := customerRef{CustomerID: payload.CustomerID, OwnerID: owner}
			customers = append(customers, ref)
			lg.submit(pool, task{Kind: "customer", Customer: ref, Payload: mustJSON(payload)})
		}
	}
	// Customers first so the insight lookups of the load phase find them.
	lg.wg.Wait()

	for _, ref := range customers {
		for i := 0; i < interactionsPerCustomer; i++ {
			lg.submit(pool, task{Kind: "interaction", Customer: ref, Payload: mustJSON(model.NewUpsertInteractionPayload(ref.CustomerID, ref.OwnerID))})
		}
	}
	return customers
}

// loop mixes new interactions with insight requests at the target rate.
func (lg *loadgen) loop(ctx context.Context, pool *ants.PoolWithFunc, customers []customerRef, rate int, duration time.Duration, insightRatio float64) {
	if len(customers) == 0 {
		logger.Log.Warn("No customers seeded, skipping load phase")
		return
	}

	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()
	durationTimer := time.NewTimer(duration)
	defer durationTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Load phase stopping due to context cancellation")
			return
		case <-durationTimer.C:
			logger.Log.Info("Load phase finished after specified duration")
			return
		case <-ticker.C:
			ref := customers[gofakeit.Number(0, len(customers)-1)]
			if gofakeit.Float64Range(0, 1) < insightRatio {
				req := model.InsightRequest{CustomerID: ref.CustomerID, OwnerID: ref.OwnerID}
				lg.submit(pool, task{Kind: "insight", Customer: ref, Payload: mustJSON(req)})
				continue
			}
			lg.submit(pool, task{Kind: "interaction", Customer: ref, Payload: mustJSON(model.NewUpsertInteractionPayload(ref.CustomerID, ref.OwnerID))})
		}
	}
}

func (lg *loadgen) submit(pool *ants.PoolWithFunc, t task) {
	lg.wg.Add(1)
	if err := pool.Invoke(t); err != nil {
		lg.wg.Done()
		logger.Log.Warn("Failed to invoke worker pool", zap.String("kind", t.Kind), zap.Error(err))
		observer.IncLoadgenPublishErrors(lg.metricSubject(t))
	}
}

func (lg *loadgen) subjectFor(t task) string {
	switch t.Kind {
	case "customer":
		return fmt.Sprintf("%s.%s", model.V1CustomersUpsert, t.Customer.OwnerID)
	case "interaction":
		return fmt.Sprintf("%s.%s", model.V1InteractionsUpsert, t.Customer.OwnerID)
	default:
		return lg.insightSubject
	}
}

// metricSubject drops the owner suffix; owners would explode the label set.
func (lg *loadgen) metricSubject(t task) string {
	return strings.TrimSuffix(lg.subjectFor(t), "."+t.Customer.OwnerID)
}

func (lg *loadgen) run(ctx context.Context, t task) {
	subject := lg.subjectFor(t)
	metricSubject := lg.metricSubject(t)

	if t.Kind == "insight" {
		reqCtx, cancel := context.WithTimeout(ctx, insightRequestTimeout)
		defer cancel()
		reply, err := lg.client.Request(reqCtx, subject, t.Payload)
		if err != nil {
			logger.Log.Warn("Insight request failed", zap.String("customer_id", t.Customer.CustomerID), zap.Error(err))
			observer.IncLoadgenPublishErrors(metricSubject)
			return
		}
		var errReply model.ErrorReply
		if json.Unmarshal(reply, &errReply) == nil && errReply.Code != 0 {
			logger.Log.Warn("Insight request answered with error",
				zap.String("customer_id", t.Customer.CustomerID),
				zap.Int("code", errReply.Code),
				zap.String("error", errReply.Error))
			observer.IncLoadgenPublishErrors(metricSubject)
			return
		}
		logger.Log.Debug("Insight received", zap.String("customer_id", t.Customer.CustomerID), zap.Int("bytes", len(reply)))
		observer.IncLoadgenMessagesPublished(metricSubject)
		return
	}

	headers := map[string]string{nats.MsgIdHdr: uuid.NewString()}
	if err := lg.client.Publish(subject, t.Payload, headers); err != nil {
		logger.Log.Error("Failed to publish message", zap.String("subject", subject), zap.Error(err))
		observer.IncLoadgenPublishErrors(metricSubject)
		return
	}
	observer.IncLoadgenMessagesPublished(metricSubject)
}

func mustJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("loadgen: marshal %T: %v", v, err))
	}
	return b
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

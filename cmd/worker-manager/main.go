// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/api"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/auth"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/aws"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/camunda"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/database"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/observability"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/identity"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/installment"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/lifecycle"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/notify"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/payment"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/ratelimit"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/repository"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/search"
	"github.com/vmaktproject-ai/renewableZmart-sub001/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(observability.Config{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		SampleRatio:    cfg.Observability.SampleRatio,
	})
	defer obs.Shutdown()

	ctx := context.Background()

	policy, err := installment.PolicyFromConfig(cfg.Installment)
	if err != nil {
		zapLog.Fatal("invalid installment policy", zap.Error(err))
	}

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pg.Ping(pingCtx); err != nil {
			pg.Close()
			return err
		}
		return nil
	}, 10, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres unavailable", zap.Error(err))
	}
	defer pg.Close()

	if err := database.ApplySchema(ctx, pg.DB); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}

	// --- Init Redis ---
	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	if err := rdb.Ping(ctx); err != nil {
		zapLog.Warn("redis unavailable, identity cache and rate limiting degrade", zap.Error(err))
	}

	// --- Init Elasticsearch (optional) ---
	var indexer lifecycle.Indexer
	checks := map[string]api.Check{
		"postgres": pg.Ping,
		"redis":    rdb.Ping,
	}
	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch client init failed", zap.Error(err))
		}
		indexer = search.NewEventIndexer(es.Client, cfg.Search.EventIndex, log)
		checks["elasticsearch"] = es.Ping
	}

	// --- Notification channels ---
	var (
		sesClient aws.SESService
		snsClient aws.SNSService
	)
	awsCfg := cfg.Integrations.AWS
	if awsCfg.SES.Enabled {
		c, err := aws.NewSESClient(ctx, awsCfg.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		sesClient = c
	}
	if awsCfg.SNS.Enabled {
		c, err := aws.NewSNSClient(ctx, awsCfg.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		snsClient = c
	}

	var limiter lifecycle.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(cfg.RateLimit, rdb.Client, log)
	}

	kc := cfg.Auth.Keycloak
	approvers := auth.NewKeycloakClient(kc.URL, kc.Realm, kc.ClientID, kc.ClientSecret, kc.ApproverRole,
		config.GetDuration(kc.Timeout))
	gateway := payment.NewGateway(cfg.Payment, cfg.Installment.MinorUnitPlaces, log)

	service := lifecycle.NewService(lifecycle.ServiceDependencies{
		Store:     repository.NewApplicationRepository(pg.DB, log),
		Notifier:  notify.NewDispatcher(notify.ConfigFromApp(cfg), sesClient, snsClient, log),
		Gateway:   gateway,
		Approvers: approvers,
		Indexer:   indexer,
		Limiter:   limiter,
		Policy:    policy,
		Logger:    log,
	})

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.UsePlaintextConnection,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe unavailable", zap.Error(err))
	}
	checks["zeebe"] = zeebe.HealthCheck

	workers := camunda.NewRegistry(zeebe.GetClient(), obs, zapLog)
	registerWorkers(workers, cfg, deps{
		policy:   policy,
		verifier: identity.NewVerifier(cfg.Identity, rdb.Client, log),
		service:  service,
		gateway:  gateway,
		log:      log,
	}, zapLog)
	checkRegistry(cfg.App.RegistryPath, workers.TaskTypes(), zapLog)

	// --- Health, Metrics & Webhook Server ---
	handler := api.NewHandler(zeebe, checks, api.WebhookConfig{
		Secret:      cfg.Payment.SecretKey,
		MessageName: cfg.Camunda.PaymentMessageName,
		MessageTTL:  config.GetDuration(cfg.Camunda.PaymentMessageTTL),
	}, log)
	server := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewRouter(handler, api.NewMiddleware(log)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	workers.Close()
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// checkRegistry warns about running workers the activity registry does not describe.
func checkRegistry(path string, taskTypes []string, log *zap.Logger) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry not loaded", zap.String("path", path), zap.Error(err))
		return
	}
	if err := reg.Validate(); err != nil {
		log.Warn("activity registry invalid", zap.String("path", path), zap.Error(err))
	}
	for _, tt := range reg.MissingTaskTypes(taskTypes) {
		log.Warn("worker missing from activity registry", zap.String("taskType", tt))
	}
}

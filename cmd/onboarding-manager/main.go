// cmd/onboarding-manager/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"franchise-onboarding/internal/api"
	"franchise-onboarding/internal/common/aws"
	"franchise-onboarding/internal/common/camunda"
	"franchise-onboarding/internal/common/config"
	"franchise-onboarding/internal/common/database"
	httpclient "franchise-onboarding/internal/common/http"
	"franchise-onboarding/internal/common/logger"
	"franchise-onboarding/internal/common/observability"

	nfc "franchise-onboarding/internal/workers/communication/notify-franchisee-created"
	ssr "franchise-onboarding/internal/workers/communication/send-submission-receipt"
	slu "franchise-onboarding/internal/workers/data-access/search-legacy-units"
	"franchise-onboarding/internal/workers/data-access/search-legacy-units/queries"
	lr "franchise-onboarding/internal/workers/enrichment/lookup-registry"
	cos "franchise-onboarding/internal/workers/onboarding/check-onboarding-status"
	ror "franchise-onboarding/internal/workers/onboarding/review-onboarding-request"
	so "franchise-onboarding/internal/workers/onboarding/submit-onboarding"
)

// retryWithBackoff retries operation with exponential backoff until it
// succeeds, maxRetries is reached or ctx ends.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries uint64, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialDelay
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0

	attempt := 0
	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx),
		func(err error, wait time.Duration) {
			attempt++
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Duration("nextRetryIn", wait),
			)
		})
	if err != nil {
		return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempt+1, err)
	}
	return nil
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.Build(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		bootLog.Fatal("logger build failed", zap.Error(err))
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting onboarding manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.App.Name, func(err error) {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	})
	defer obs.Shutdown()
	if cfg.Tracing.Enabled {
		if err := obs.EnableTracing(cfg.App.Name, cfg.Tracing.JaegerEndpoint, cfg.Tracing.SampleRatio); err != nil {
			zapLog.Warn("tracing disabled", zap.Error(err))
		}
	}

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return backoff.Permanent(err)
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if cfg.Database.Postgres.AutoMigrate {
		applied, err := database.Migrate(ctx, pg.DB)
		if err != nil {
			zapLog.Fatal("migrations failed", zap.Error(err))
		}
		zapLog.Info("migrations applied", zap.Strings("applied", applied))
	}

	// --- Redis (lookup cache) ---
	var redis *database.RedisClient
	if cfg.Database.Redis.Enabled {
		err = retryWithBackoff(ctx, func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return backoff.Permanent(err)
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, lookups run uncached", zap.Error(err))
			redis = nil
		} else {
			defer redis.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Elasticsearch (legacy unit search) ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(ctx, func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return backoff.Permanent(err)
			}
			return esClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, legacy search uses postgres", zap.Error(err))
			esClient = nil
		} else {
			zapLog.Info("Elasticsearch connected successfully")
			index := cfg.Database.Elasticsearch.LegacyIndex
			if created, err := esClient.EnsureIndex(ctx, index, queries.LegacyUnitMapping); err != nil {
				zapLog.Warn("legacy unit index check failed", zap.String("index", index), zap.Error(err))
			} else if created {
				zapLog.Info("legacy unit index created", zap.String("index", index))
			}
		}
	}

	// --- Zeebe ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(ctx, func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")
	}

	// --- Handlers ---
	h := buildHandlers(ctx, cfg, pg, redis, esClient, zeebe, log, zapLog)

	// --- Job workers ---
	var jobWorkers []worker.JobWorker
	if zeebe != nil {
		jobWorkers = startWorkers(zeebe, cfg, h, obs, log)
		zapLog.Info("workers registered", zap.Int("count", len(jobWorkers)))
	}

	// --- HTTP API ---
	checks := map[string]api.ReadinessCheck{"postgres": pg.Ping}
	if redis != nil {
		checks["redis"] = redis.Ping
	}
	if esClient != nil {
		checks["elasticsearch"] = esClient.Ping
	}
	if zeebe != nil {
		checks["zeebe"] = zeebe.HealthCheck
	}

	server := api.NewServer(api.Config{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RequestTimeout: config.GetDuration(cfg.HTTP.RequestTimeout),
		Environment: map[string]bool{
			"hasDatabase": true,
			"hasWorkflow": zeebe != nil,
			"hasSearch":   esClient != nil,
			"hasCache":    redis != nil,
		},
	}, h.services(), checks, log)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("API server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("API server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping API server", zap.Error(err))
	}
	for _, w := range jobWorkers {
		w.Close()
	}

	zapLog.Info("Onboarding manager stopped gracefully")
}

type handlers struct {
	lookup  *lr.Handler
	notify  *nfc.Handler
	receipt *ssr.Handler
	submit  *so.Handler
	review  *ror.Handler
	status  *cos.Handler
	search  *slu.Handler
}

func (h *handlers) services() api.Services {
	svc := api.Services{
		Submit:      h.submit,
		Review:      h.review,
		Status:      h.status,
		Lookup:      h.lookup,
		LegacyUnits: h.search,
	}
	if h.notify != nil {
		svc.Notify = h.notify
	}
	return svc
}

func buildHandlers(
	ctx context.Context,
	cfg *config.Config,
	pg *database.PostgresClient,
	redis *database.RedisClient,
	esClient *database.ElasticsearchClient,
	zeebe *camunda.Client,
	log logger.Logger,
	zapLog *zap.Logger,
) *handlers {
	retry := httpclient.RetryPolicy{
		MaxAttempts:  cfg.HTTP.Retry.MaxAttempts,
		InitialDelay: config.GetDuration(cfg.HTTP.Retry.InitialDelay),
		MaxDelay:     config.GetDuration(cfg.HTTP.Retry.MaxDelay),
		Multiplier:   cfg.HTTP.Retry.Multiplier,
	}
	h := &handlers{}

	lookupCfg := &lr.Config{
		Timeout:  config.GetDuration(cfg.Enrichment.Timeout),
		CacheTTL: time.Duration(cfg.Enrichment.CacheTTL) * time.Second,
		Retry:    retry,
		CPF: lr.PersonRegistryConfig{
			BaseURL:       cfg.Enrichment.CPF.BaseURL,
			APIKey:        cfg.Enrichment.CPF.APIKey,
			StubName:      cfg.Enrichment.CPF.StubName,
			StubBirthDate: cfg.Enrichment.CPF.StubBirthDate,
		},
		CNPJBaseURL: cfg.Enrichment.CNPJ.BaseURL,
		CEPBaseURL:  cfg.Enrichment.CEP.BaseURL,
	}
	if err := lookupCfg.Validate(); err != nil {
		zapLog.Fatal("invalid enrichment config", zap.Error(err))
	}
	var cache *goredis.Client
	if redis != nil {
		cache = redis.Client
	}
	h.lookup = lr.NewHandler(lookupCfg, cache, log)

	// Side channels. Each stays nil when not configured so the flows skip it.
	var publisher nfc.EventPublisher
	if cfg.Notifications.Events.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SNS client", zap.Error(err))
		}
		publisher = sns
	}
	if cfg.Notifications.Webhook.URL != "" {
		notifyCfg := &nfc.Config{
			WebhookURL:    cfg.Notifications.Webhook.URL,
			Timeout:       config.GetDuration(cfg.Notifications.Webhook.Timeout),
			Retry:         retry,
			EventsEnabled: cfg.Notifications.Events.Enabled,
			TopicARN:      cfg.Notifications.Events.TopicARN,
		}
		if err := notifyCfg.Validate(); err != nil {
			zapLog.Fatal("invalid notification config", zap.Error(err))
		}
		h.notify = nfc.NewHandler(notifyCfg, publisher, log)
	} else {
		zapLog.Warn("notifications.webhook.url not set, franchisee created notifications disabled")
	}

	var mailer ssr.Mailer
	if cfg.Notifications.Receipt.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SES client", zap.Error(err))
		}
		mailer = ses
	}
	receiptCfg := ssr.DefaultConfig()
	receiptCfg.Enabled = cfg.Notifications.Receipt.Enabled
	receiptCfg.FromEmail = cfg.Notifications.Receipt.FromEmail
	receiptCfg.EstimatedTime = cfg.Onboarding.EstimatedReviewTime
	h.receipt = ssr.NewHandler(receiptCfg, mailer, log)

	deps := so.Dependencies{Receipts: h.receipt}
	var notifier ror.CreatedNotifier
	if h.notify != nil {
		deps.Notifier = h.notify
		notifier = h.notify
	}
	if zeebe != nil {
		deps.Processes = zeebe
	}

	submitCfg := &so.Config{
		Timeout:              config.GetDuration(cfg.Onboarding.SubmissionTimeout),
		TrackingPrefix:       cfg.Onboarding.TrackingPrefix,
		TrackingMaxAttempts:  cfg.Onboarding.TrackingMaxAttempts,
		LinkRequiresApproval: cfg.Onboarding.LinkRequiresApproval,
		EstimatedReviewTime:  cfg.Onboarding.EstimatedReviewTime,
	}
	if zeebe != nil {
		submitCfg.ReviewProcessID = cfg.Camunda.ReviewProcessID
	}
	if err := submitCfg.Validate(); err != nil {
		zapLog.Fatal("invalid onboarding config", zap.Error(err))
	}
	h.submit = so.NewHandler(submitCfg, pg.DB, deps, log)

	h.review = ror.NewHandler(&ror.Config{Timeout: config.GetDuration(cfg.Onboarding.ReviewTimeout)}, pg.DB, notifier, log)
	h.status = cos.NewHandler(cos.DefaultConfig(), pg.DB, log)

	searchCfg := slu.DefaultConfig()
	if cfg.Database.Elasticsearch.LegacyIndex != "" {
		searchCfg.Index = cfg.Database.Elasticsearch.LegacyIndex
	}
	var es *elasticsearch.Client
	if esClient != nil {
		es = esClient.Client
	}
	h.search = slu.NewHandler(searchCfg, es, pg.DB, log)
	return h
}

type registration struct {
	taskType string
	handler  worker.JobHandler
}

func startWorkers(zeebe *camunda.Client, cfg *config.Config, h *handlers, obs *observability.Observability, log logger.Logger) []worker.JobWorker {
	registrations := []registration{
		{so.TaskType, h.submit.Handle},
		{ror.TaskType, h.review.Handle},
		{cos.TaskType, h.status.Handle},
		{lr.TaskType, h.lookup.Handle},
		{ssr.TaskType, h.receipt.Handle},
		{slu.TaskType, h.search.Handle},
	}
	if h.notify != nil {
		registrations = append(registrations, registration{nfc.TaskType, h.notify.Handle})
	}

	var started []worker.JobWorker
	for _, reg := range registrations {
		if !config.IsWorkerEnabled(cfg, reg.taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": reg.taskType})
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, reg.taskType)
		started = append(started, camunda.StartWorker(zeebe.GetClient(), reg.taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
			Record: func(taskType, outcome string, d time.Duration) {
				obs.RecordJob(context.Background(), taskType, outcome, d)
			},
		}, reg.handler, log))
	}
	return started
}

// internal/workers/enrichment/lookup-registry/handler.go
package lookupregistry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	apperrors "franchise-onboarding/internal/common/errors"
	httpclient "franchise-onboarding/internal/common/http"
	"franchise-onboarding/internal/common/logger"
	"franchise-onboarding/internal/common/metrics"
	"franchise-onboarding/internal/common/normalize"
	"franchise-onboarding/internal/common/observability"
)

const (
	TaskType = "lookup-registry"
)

var upstreamErrorMessages = map[string]string{
	TypeCPF:  "Erro ao consultar CPF",
	TypeCNPJ: "Erro ao consultar CNPJ",
	TypeCEP:  "Erro ao consultar CEP",
}

type Handler struct {
	config    *Config
	providers map[string]Provider
	cache     *resultCache
	group     singleflight.Group
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

// NewHandler wires the three registries. redisClient may be nil to run
// without the result cache.
func NewHandler(config *Config, redisClient *redis.Client, log logger.Logger) *Handler {
	client := httpclient.NewClient(config.Timeout, httpclient.WithRetryPolicy(config.Retry))

	h := &Handler{
		config: config,
		providers: map[string]Provider{
			TypeCPF:  &personProvider{cfg: config.CPF, client: client},
			TypeCNPJ: &companyProvider{baseURL: config.CNPJBaseURL, client: client},
			TypeCEP:  &addressProvider{baseURL: config.CEPBaseURL, client: client},
		},
		cache:  &resultCache{client: redisClient, ttl: config.CacheTTL},
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
	h.errors = apperrors.NewErrorHandler(h.logger)

	if config.CPF.APIKey == "" {
		h.logger.Warn("person registry API key not configured, cpf lookups return stub data", nil)
	}
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(context.Background(), client, job,
			apperrors.NewValidationError("invalid job variables", err.Error()))
		return
	}

	output, err := h.Execute(context.Background(), &input)
	if err != nil {
		h.errors.HandleJobError(context.Background(), client, job, err)
		return
	}
	h.completeJob(client, job, output)
}

// Execute performs one lookup. Upstream problems are reported in the output,
// never as an error; only an unknown lookup type is an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	provider, ok := h.providers[input.Type]
	if !ok {
		return nil, apperrors.NewValidationError("Tipo de consulta inválido", fmt.Sprintf("type: %s", input.Type))
	}

	digits := normalize.Digits(input.Value)
	if len(digits) != provider.Length() {
		metrics.LookupsTotal.WithLabelValues(input.Type, "invalid").Inc()
		stdErr := apperrors.NewInvalidLookupValueError(input.Type,
			fmt.Sprintf("expected %d digits, got %d", provider.Length(), len(digits)))
		return &Output{Success: false, Error: stdErr.Message, ErrorCode: string(stdErr.Code)}, nil
	}

	ctx, span := observability.StartSpan(ctx, "registry.lookup", attribute.String("lookup.type", input.Type))
	defer span.End()

	key := cacheKey(input.Type, digits)
	v, err, shared := h.group.Do(key, func() (interface{}, error) {
		return h.lookup(ctx, provider, key, digits)
	})
	if err != nil {
		out := h.failureOutput(input.Type, err)
		metrics.LookupsTotal.WithLabelValues(input.Type, outcome(out)).Inc()
		h.logger.Warn("registry lookup failed", map[string]interface{}{
			"type":      input.Type,
			"errorCode": out.ErrorCode,
			"error":     err.Error(),
		})
		return out, nil
	}

	out := *v.(*Output)
	metrics.LookupsTotal.WithLabelValues(input.Type, "success").Inc()
	h.logger.Debug("registry lookup completed", map[string]interface{}{
		"type":   input.Type,
		"cached": out.Cached,
		"shared": shared,
	})
	return &out, nil
}

func (h *Handler) lookup(ctx context.Context, provider Provider, key, digits string) (*Output, error) {
	if data, hit, err := h.cache.get(ctx, key); err != nil {
		h.logger.Warn("lookup cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	} else if hit {
		return &Output{Success: true, Data: data, Cached: true}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	start := time.Now()
	result, err := provider.Lookup(ctx, digits)
	metrics.LookupDuration.WithLabelValues(provider.Type()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal lookup result: %w", err)
	}

	stub := false
	if p, ok := provider.(*personProvider); ok && p.Stubbed() {
		stub = true
	}
	if !stub {
		if err := h.cache.set(ctx, key, data); err != nil {
			h.logger.Warn("lookup cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return &Output{Success: true, Data: data, Stub: stub}, nil
}

func (h *Handler) failureOutput(lookupType string, err error) *Output {
	switch {
	case httpclient.IsTimeout(err):
		return &Output{Success: false, Error: "timeout", ErrorCode: string(apperrors.ErrCodeLookupTimeout)}
	case errors.Is(err, ErrNotFound):
		return &Output{Success: false, Error: "not found"}
	default:
		return &Output{Success: false, Error: upstreamErrorMessages[lookupType], ErrorCode: string(apperrors.ErrCodeExternalService)}
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(map[string]interface{}{"lookup": output})
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func outcome(out *Output) string {
	if out.ErrorCode == "" {
		return "not_found"
	}
	return out.ErrorCode
}

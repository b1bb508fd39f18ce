package searchlegacyunits

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"go.opentelemetry.io/otel/attribute"

	apperrors "franchise-onboarding/internal/common/errors"
	"franchise-onboarding/internal/common/logger"
	"franchise-onboarding/internal/common/metrics"
	"franchise-onboarding/internal/common/observability"
	"franchise-onboarding/internal/common/validation"
	"franchise-onboarding/internal/models"
	"franchise-onboarding/internal/repository"
	"franchise-onboarding/internal/workers/data-access/search-legacy-units/queries"
)

const (
	TaskType = "search-legacy-units"

	metricType = "legacy_units"
)

type Handler struct {
	config *Config
	es     *elasticsearch.Client
	store  *repository.LegacyUnitStore
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

// NewHandler builds the search. es may be nil to search Postgres only.
func NewHandler(config *Config, es *elasticsearch.Client, db *sql.DB, log logger.Logger) *Handler {
	h := &Handler{
		config: config,
		es:     es,
		store:  repository.NewLegacyUnitStore(db),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
	h.errors = apperrors.NewErrorHandler(h.logger)
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

// Execute returns the legacy units whose code starts with the query or whose
// name contains it. Elasticsearch is tried first; Postgres answers when the
// index is unavailable.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	input.Query = strings.TrimSpace(input.Query)
	input.Limit = h.clampLimit(input.Limit)

	result, err := validation.Validate(input, validation.LegacySearchSchema())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, apperrors.NewValidationError("Parâmetros de busca inválidos", result.Summary())
	}
	if input.Query == "" {
		return &Output{Results: []models.LegacyUnit{}, Source: SourceNone}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, "legacy_units.search",
		attribute.String("search.query", input.Query),
		attribute.Int("search.limit", input.Limit),
	)

	start := time.Now()
	units, source, err := h.search(ctx, input)
	metrics.LookupDuration.WithLabelValues(metricType).Observe(time.Since(start).Seconds())
	observability.EndSpan(span, err)

	if err != nil {
		metrics.LookupsTotal.WithLabelValues(metricType, "error").Inc()
		return nil, apperrors.NewSearchQueryFailedError(err)
	}
	metrics.LookupsTotal.WithLabelValues(metricType, source).Inc()

	h.logger.Debug("legacy units searched", map[string]interface{}{
		"query":  input.Query,
		"count":  len(units),
		"source": source,
	})
	return &Output{Results: units, Count: len(units), Source: source}, nil
}

func (h *Handler) search(ctx context.Context, input *Input) ([]models.LegacyUnit, string, error) {
	if h.es != nil {
		units, err := queries.Execute(ctx, h.es, queries.LegacyUnitQuery{
			Index: h.config.Index,
			Text:  input.Query,
			Size:  input.Limit,
		})
		if err == nil {
			return units, SourceElasticsearch, nil
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		h.logger.Warn("elasticsearch search failed, falling back to postgres", map[string]interface{}{
			"error": err.Error(),
		})
	}

	units, err := h.store.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, "", err
	}
	return units, SourcePostgres, nil
}

func (h *Handler) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return h.config.DefaultLimit
	case limit > h.config.MaxLimit:
		return h.config.MaxLimit
	default:
		return limit
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
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

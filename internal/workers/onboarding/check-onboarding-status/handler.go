// internal/workers/onboarding/check-onboarding-status/handler.go
package checkonboardingstatus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "franchise-onboarding/internal/common/errors"
	"franchise-onboarding/internal/common/logger"
	"franchise-onboarding/internal/common/metrics"
	"franchise-onboarding/internal/models"
	"franchise-onboarding/internal/onboarding/tracking"
	"franchise-onboarding/internal/repository"
)

const (
	TaskType = "check-onboarding-status"
)

type Handler struct {
	config   *Config
	requests *repository.RequestStore
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	h := &Handler{
		config:   config,
		requests: repository.NewRequestStore(db),
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(map[string]interface{}{"onboardingStatus": output})
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

// Execute returns the status of the request with the given tracking number.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	tn := strings.ToUpper(strings.TrimSpace(input.TrackingNumber))
	if !tracking.Valid(tn) {
		return nil, apperrors.NewInvalidTrackingNumberError(input.TrackingNumber)
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	req, err := h.requests.FindByTrackingNumber(ctx, tn)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewRequestNotFoundError(tn)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("find onboarding request", err)
	}

	h.logger.Debug("status looked up", map[string]interface{}{
		"trackingNumber": tn,
		"status":         string(req.Status),
	})
	return toOutput(req), nil
}

func toOutput(req *models.OnboardingRequest) *Output {
	out := &Output{
		TrackingNumber: req.TrackingNumber,
		Status:         string(req.Status),
		RequestType:    string(req.RequestType),
		CreatedAt:      req.CreatedAt,
		UpdatedAt:      req.UpdatedAt,
		ReviewedAt:     req.ReviewedAt,
	}
	if req.Status == models.StatusRejected || req.Status == models.StatusError {
		out.RejectionReason = req.RejectionReason
	}
	return out
}

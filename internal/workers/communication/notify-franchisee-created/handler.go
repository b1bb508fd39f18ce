package notifyfranchiseecreated

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "franchise-onboarding/internal/common/errors"
	httpclient "franchise-onboarding/internal/common/http"
	"franchise-onboarding/internal/common/logger"
	"franchise-onboarding/internal/common/metrics"
	"franchise-onboarding/internal/common/validation"
	"franchise-onboarding/internal/models"
)

const (
	TaskType = "notify-franchisee-created"

	maxResponseBody = 64 << 10
)

// EventPublisher is satisfied by *aws.SNSClient.
type EventPublisher interface {
	PublishJSON(ctx context.Context, topicARN, eventType string, payload interface{}) (string, error)
}

type Handler struct {
	config    *Config
	client    *httpclient.Client
	publisher EventPublisher
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

// NewHandler builds the notifier. publisher may be nil when events are off.
func NewHandler(config *Config, publisher EventPublisher, log logger.Logger) *Handler {
	h := &Handler{
		config:    config,
		publisher: publisher,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
	h.client = httpclient.NewClient(config.Timeout,
		httpclient.WithRetryPolicy(config.Retry),
		httpclient.WithRetryHook(h.logRetry),
	)
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

// NotifyCreated adapts the domain event for the submission and review flows.
func (h *Handler) NotifyCreated(ctx context.Context, event models.FranchiseeCreated) error {
	_, err := h.Execute(ctx, &Input{
		TaxID:    event.TaxID,
		Name:     event.Name,
		Phone:    event.Phone,
		ID:       event.ID,
		UnitCode: event.UnitCode,
	})
	return err
}

// Execute posts the new franchisee to the workflow webhook and, when
// enabled, publishes the same payload as an event.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	status, body, err := h.postWebhook(ctx, input)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("webhook", "failed").Inc()
		h.logger.Error("webhook notification failed", map[string]interface{}{
			"franchiseeId": input.ID,
			"error":        err.Error(),
		})
		return nil, apperrors.NewNotificationSendFailedError("webhook", err)
	}
	metrics.NotificationsTotal.WithLabelValues("webhook", "sent").Inc()

	output := &Output{
		Success:         true,
		Message:         "Notificação enviada com sucesso",
		WebhookStatus:   status,
		WebhookResponse: body,
	}
	output.EventMessageID = h.publish(ctx, input)

	h.logger.Info("franchisee created notification sent", map[string]interface{}{
		"franchiseeId":  input.ID,
		"unitCode":      input.UnitCode,
		"webhookStatus": status,
	})
	return output, nil
}

func validateInput(input *Input) error {
	result, err := validation.Validate(input, validation.FranchiseeCreatedSchema())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return apperrors.NewValidationError("Campos obrigatórios faltando", result.Summary()).
			WithMetadata("required", requiredFields)
	}
	return nil
}

func (h *Handler) postWebhook(ctx context.Context, input *Input) (int, json.RawMessage, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return 0, nil, err
	}

	resp, err := h.client.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.config.WebhookURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, nil, fmt.Errorf("read webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, nil, fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}
	return resp.StatusCode, responseBody(raw), nil
}

// responseBody keeps JSON responses as is and quotes anything else.
func responseBody(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return raw
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}

func (h *Handler) publish(ctx context.Context, input *Input) string {
	if !h.config.EventsEnabled || h.publisher == nil {
		return ""
	}
	id, err := h.publisher.PublishJSON(ctx, h.config.TopicARN, EventType, input)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("sns", "failed").Inc()
		h.logger.Warn("franchisee created event not published", map[string]interface{}{
			"franchiseeId": input.ID,
			"error":        err.Error(),
		})
		return ""
	}
	metrics.NotificationsTotal.WithLabelValues("sns", "sent").Inc()
	return id
}

func (h *Handler) logRetry(err error, wait time.Duration) {
	h.logger.Warn("retrying webhook", map[string]interface{}{
		"error": err.Error(),
		"wait":  wait.String(),
	})
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

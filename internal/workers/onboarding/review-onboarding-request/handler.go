// internal/workers/onboarding/review-onboarding-request/handler.go
package reviewonboardingrequest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	"franchise-onboarding/internal/common/database"
	apperrors "franchise-onboarding/internal/common/errors"
	"franchise-onboarding/internal/common/logger"
	"franchise-onboarding/internal/common/metrics"
	"franchise-onboarding/internal/common/observability"
	"franchise-onboarding/internal/common/validation"
	"franchise-onboarding/internal/models"
	"franchise-onboarding/internal/repository"
)

const (
	TaskType = "review-onboarding-request"

	notifyTimeout = 10 * time.Second
)

// CreatedNotifier announces a person inserted by an approval.
type CreatedNotifier interface {
	NotifyCreated(ctx context.Context, event models.FranchiseeCreated) error
}

type Handler struct {
	config      *Config
	requests    *repository.RequestStore
	franchisees *repository.FranchiseeStore
	units       *repository.UnitStore
	links       *repository.LinkStore
	tx          *database.TxRunner
	notifier    CreatedNotifier
	now         func() time.Time
	errors      *apperrors.ErrorHandler
	logger      logger.Logger
}

type Option func(*Handler)

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler builds the processor. notifier may be nil.
func NewHandler(config *Config, db *sql.DB, notifier CreatedNotifier, log logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		config:      config,
		requests:    repository.NewRequestStore(db),
		franchisees: repository.NewFranchiseeStore(db),
		units:       repository.NewUnitStore(db),
		links:       repository.NewLinkStore(db),
		tx:          database.NewTxRunner(db),
		notifier:    notifier,
		now:         time.Now,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
	h.errors = apperrors.NewErrorHandler(h.logger)
	for _, opt := range opts {
		opt(h)
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

// Execute applies a reviewer decision to a pending request.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		metrics.ReviewsTotal.WithLabelValues(input.Action, "invalid").Inc()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, "onboarding.review",
		attribute.String("review.action", input.Action),
		attribute.String("request.id", input.RequestID),
	)

	output, err := h.review(ctx, input)
	observability.EndSpan(span, err)

	if err != nil {
		stdErr := apperrors.Normalize(err)
		metrics.ReviewsTotal.WithLabelValues(input.Action, string(stdErr.Code)).Inc()
		h.logger.Warn("review failed", map[string]interface{}{
			"requestId": input.RequestID,
			"action":    input.Action,
			"errorCode": string(stdErr.Code),
			"error":     stdErr.Details,
		})
		return nil, err
	}

	metrics.ReviewsTotal.WithLabelValues(input.Action, "success").Inc()
	h.logger.Info("review applied", map[string]interface{}{
		"requestId":     input.RequestID,
		"requestNumber": output.RequestNumber,
		"status":        output.Status,
		"reviewerId":    input.ReviewerID,
	})
	return output, nil
}

func validateInput(input *Input) error {
	if input.Action != ActionApprove && input.Action != ActionReject {
		return apperrors.NewInvalidActionError(input.Action)
	}
	result, err := validation.Validate(input, validation.ReviewSchema())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return apperrors.NewValidationError("requestId e action são obrigatórios", result.Summary())
	}
	if input.Action == ActionReject && strings.TrimSpace(input.RejectionReason) == "" {
		return apperrors.NewValidationError("Motivo da rejeição é obrigatório", "field: rejectionReason")
	}
	return nil
}

func (h *Handler) review(ctx context.Context, input *Input) (*Output, error) {
	req, err := h.requests.FindByID(ctx, input.RequestID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewRequestNotFoundError(input.RequestID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("find onboarding request", err)
	}
	if req.Status != models.StatusPending {
		return nil, apperrors.NewInvalidRequestStatusError(string(req.Status))
	}

	if input.Action == ActionReject {
		return h.reject(ctx, req, input)
	}
	return h.approve(ctx, req, input.ReviewerID)
}

func (h *Handler) reject(ctx context.Context, req *models.OnboardingRequest, input *Input) (*Output, error) {
	reason := strings.TrimSpace(input.RejectionReason)
	ok, err := h.requests.MarkRejected(ctx, req.ID, input.ReviewerID, reason, h.now().UTC())
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("reject onboarding request", err)
	}
	if !ok {
		return nil, h.currentStatusError(ctx, req.ID)
	}
	return &Output{
		Success:       true,
		Message:       "Solicitação rejeitada",
		RequestNumber: req.TrackingNumber,
		Status:        string(models.StatusRejected),
	}, nil
}

type approval struct {
	franchiseeID      string
	unitID            string
	franchiseeCreated bool
}

func (h *Handler) approve(ctx context.Context, req *models.OnboardingRequest, reviewer string) (*Output, error) {
	ok, err := h.requests.TransitionStatus(ctx, req.ID, models.StatusPending, models.StatusProcessing)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("claim onboarding request", err)
	}
	if !ok {
		return nil, h.currentStatusError(ctx, req.ID)
	}

	result, err := h.materialize(ctx, req, reviewer)
	if err != nil {
		procErr := apperrors.NewProcessingFailedError(err)
		markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if markErr := h.requests.MarkError(markCtx, req.ID, procErr.Message); markErr != nil {
			h.logger.Error("failed to mark request as error", map[string]interface{}{
				"requestId": req.ID,
				"error":     markErr.Error(),
			})
		}
		return nil, procErr
	}

	if result.franchiseeCreated {
		h.notifyCreated(ctx, req, result.franchiseeID)
	}
	return &Output{
		Success:       true,
		Message:       "Solicitação aprovada com sucesso",
		RequestNumber: req.TrackingNumber,
		Status:        string(models.StatusApproved),
		FranchiseeID:  result.franchiseeID,
		UnitID:        result.unitID,
	}, nil
}

// materialize creates what the request is missing, links it and marks the
// request approved, all in one transaction.
func (h *Handler) materialize(ctx context.Context, req *models.OnboardingRequest, reviewer string) (*approval, error) {
	var result approval
	err := h.tx.RunInTx(ctx, func(ctx context.Context) error {
		result = approval{franchiseeID: req.FranchiseeID, unitID: req.UnitID}

		if !req.FranchiseeExists {
			id, inserted, err := h.franchisees.Upsert(ctx, req.FormData.Franchisee())
			if err != nil {
				return err
			}
			result.franchiseeID, result.franchiseeCreated = id, inserted
		}
		if !req.UnitExists {
			id, _, err := h.units.Upsert(ctx, req.FormData.Unit())
			if err != nil {
				return err
			}
			result.unitID = id
		}
		if result.franchiseeID == "" || result.unitID == "" {
			return fmt.Errorf("request has no franchisee or unit to link")
		}

		if _, err := h.links.Ensure(ctx, result.franchiseeID, result.unitID); err != nil {
			return err
		}
		ok, err := h.requests.MarkApproved(ctx, req.ID, result.franchiseeID, result.unitID, reviewer, h.now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("request %s is no longer processing", req.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (h *Handler) currentStatusError(ctx context.Context, id string) error {
	req, err := h.requests.FindByID(ctx, id)
	if err != nil {
		return apperrors.NewInvalidRequestStatusError("unknown")
	}
	return apperrors.NewInvalidRequestStatusError(string(req.Status))
}

func (h *Handler) notifyCreated(ctx context.Context, req *models.OnboardingRequest, franchiseeID string) {
	if h.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	event := models.FranchiseeCreated{
		ID:       franchiseeID,
		Name:     req.FormData.FullName,
		Phone:    req.FormData.Contact,
		TaxID:    req.FormData.TaxID,
		UnitCode: strconv.Itoa(req.UnitCode),
	}
	if err := h.notifier.NotifyCreated(ctx, event); err != nil {
		h.logger.Warn("franchisee created notification failed", map[string]interface{}{
			"franchiseeId": franchiseeID,
			"error":        err.Error(),
		})
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

// internal/workers/onboarding/submit-onboarding/handler.go
package submitonboarding

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	"franchise-onboarding/internal/common/database"
	apperrors "franchise-onboarding/internal/common/errors"
	"franchise-onboarding/internal/common/logger"
	"franchise-onboarding/internal/common/metrics"
	"franchise-onboarding/internal/common/normalize"
	"franchise-onboarding/internal/common/observability"
	"franchise-onboarding/internal/common/validation"
	"franchise-onboarding/internal/models"
	"franchise-onboarding/internal/onboarding/existence"
	"franchise-onboarding/internal/onboarding/tracking"
	"franchise-onboarding/internal/repository"
)

const (
	TaskType = "submit-onboarding"

	sideEffectTimeout = 10 * time.Second
)

// ReceiptSender emails the applicant the tracking number of a stored request.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, req *models.OnboardingRequest) error
}

// CreatedNotifier announces a newly inserted person.
type CreatedNotifier interface {
	NotifyCreated(ctx context.Context, event models.FranchiseeCreated) error
}

type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error)
}

// Dependencies are the best-effort side channels. Any of them may be nil.
type Dependencies struct {
	Receipts  ReceiptSender
	Notifier  CreatedNotifier
	Processes ProcessStarter
}

type Handler struct {
	config      *Config
	deps        Dependencies
	requests    *repository.RequestStore
	legacy      *repository.LegacyUnitStore
	franchisees *repository.FranchiseeStore
	units       *repository.UnitStore
	links       *repository.LinkStore
	resolver    *existence.Resolver
	tracking    *tracking.Generator
	tx          *database.TxRunner
	errors      *apperrors.ErrorHandler
	logger      logger.Logger
}

func NewHandler(config *Config, db *sql.DB, deps Dependencies, log logger.Logger, opts ...tracking.Option) *Handler {
	requests := repository.NewRequestStore(db)
	franchisees := repository.NewFranchiseeStore(db)
	units := repository.NewUnitStore(db)
	links := repository.NewLinkStore(db)

	h := &Handler{
		config:      config,
		deps:        deps,
		requests:    requests,
		legacy:      repository.NewLegacyUnitStore(db),
		franchisees: franchisees,
		units:       units,
		links:       links,
		resolver:    existence.NewResolver(franchisees, units, requests, links),
		tracking:    tracking.NewGenerator(requests, append([]tracking.Option{tracking.WithPrefix(config.TrackingPrefix)}, opts...)...),
		tx:          database.NewTxRunner(db),
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

// Execute decodes the envelope into its submission variant and runs it.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Action != models.ActionSubmitForm && input.Action != models.ActionSubmitNewUnit {
		return nil, apperrors.NewInvalidActionError(input.Action)
	}
	result, err := validation.Validate(input, validation.SubmissionSchema())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, apperrors.NewValidationError("Dados do formulário inválidos", result.Summary())
	}

	sub, err := models.DecodeSubmission(
		models.SubmissionEnvelope{Action: input.Action, FormData: input.FormData},
		models.RequestMeta{IPAddress: input.IPAddress, UserAgent: input.UserAgent},
	)
	if err != nil {
		return nil, apperrors.NewValidationError("Dados do formulário inválidos", err.Error())
	}
	return h.Submit(ctx, sub)
}

// Submit runs one submission under the end-to-end deadline.
func (h *Handler) Submit(ctx context.Context, sub models.Submission) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	kind := submissionKind(sub)
	ctx, span := observability.StartSpan(ctx, "onboarding.submit", attribute.String("submission.kind", kind))

	var (
		output *Output
		err    error
	)
	switch s := sub.(type) {
	case models.NewRegistration:
		output, err = h.submitRegistration(ctx, s)
	case models.LinkToExistingUnit:
		if h.config.LinkRequiresApproval {
			output, err = h.submitLinkForReview(ctx, s)
		} else {
			output, err = h.linkToUnit(ctx, s)
		}
	case models.NewUnitForFranchisee:
		output, err = h.submitNewUnit(ctx, s)
	default:
		err = apperrors.NewInvalidActionError(kind)
	}

	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = apperrors.NewSubmissionTimeoutError("submit onboarding")
	}
	observability.EndSpan(span, err)

	if err != nil {
		stdErr := apperrors.Normalize(err)
		metrics.SubmissionsTotal.WithLabelValues(string(stdErr.Code), "").Inc()
		h.logger.Warn("submission rejected", map[string]interface{}{
			"kind":      kind,
			"errorCode": string(stdErr.Code),
			"error":     stdErr.Details,
		})
		return nil, err
	}

	metrics.SubmissionsTotal.WithLabelValues("accepted", output.RequestType).Inc()
	h.logger.Info("submission accepted", map[string]interface{}{
		"kind":           kind,
		"requestId":      output.RequestID,
		"trackingNumber": output.TrackingNumber,
		"requestType":    output.RequestType,
	})
	return output, nil
}

func (h *Handler) submitRegistration(ctx context.Context, s models.NewRegistration) (*Output, error) {
	form := normalize.Form(s.Data)
	if err := check(form, identityRules); err != nil {
		return nil, err
	}
	if err := h.checkUnitCode(ctx, form.GroupCode); err != nil {
		return nil, err
	}
	if err := check(form, unitRules, personRules); err != nil {
		return nil, err
	}

	res, err := h.resolver.Resolve(ctx, form.TaxID, form.GroupCode)
	if err != nil {
		return nil, err
	}

	req := &models.OnboardingRequest{
		FormData:         form,
		FranchiseeTaxID:  form.TaxID,
		FranchiseeEmail:  form.Email,
		UnitCode:         form.GroupCode,
		FranchiseeExists: res.FranchiseeExists,
		FranchiseeID:     res.FranchiseeID,
		UnitExists:       res.UnitExists,
		UnitID:           res.UnitID,
		Status:           models.StatusPending,
		RequestType:      res.RequestType,
		IPAddress:        s.Client.IPAddress,
		UserAgent:        s.Client.UserAgent,
	}
	if err := h.persist(ctx, req); err != nil {
		return nil, err
	}
	h.afterSubmit(ctx, req)
	return h.accepted(req, "Cadastro enviado para aprovação com sucesso!"), nil
}

func (h *Handler) submitNewUnit(ctx context.Context, s models.NewUnitForFranchisee) (*Output, error) {
	form := normalize.Form(s.Data)
	if s.FranchiseeID == "" {
		return nil, apperrors.NewValidationError("ID do franqueado não encontrado", "field: franchiseeId")
	}
	if err := h.checkUnitCode(ctx, form.GroupCode); err != nil {
		return nil, err
	}
	if err := check(form, unitRules); err != nil {
		return nil, err
	}

	franchisee, err := h.franchisees.FindByID(ctx, s.FranchiseeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewFranchiseeNotFoundError(s.FranchiseeID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("find franchisee", err)
	}
	if err := h.resolver.CheckInFlight(ctx, "", form.GroupCode); err != nil {
		return nil, err
	}

	var unitID string
	unit, err := h.units.FindByGroupCode(ctx, form.GroupCode)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, apperrors.NewDatabaseQueryFailedError("find unit", err)
	default:
		linked, err := h.links.Exists(ctx, franchisee.ID, unit.ID)
		if err != nil {
			return nil, apperrors.NewDatabaseQueryFailedError("check link", err)
		}
		if linked {
			return nil, apperrors.NewAlreadyLinkedError(franchisee.ID, unit.ID)
		}
		unitID = unit.ID
	}

	req := &models.OnboardingRequest{
		FormData:         form,
		FranchiseeEmail:  franchisee.Email,
		UnitCode:         form.GroupCode,
		FranchiseeExists: true,
		FranchiseeID:     franchisee.ID,
		UnitExists:       unitID != "",
		UnitID:           unitID,
		Status:           models.StatusPending,
		RequestType:      models.RequestExistingPersonNewUnit,
		IPAddress:        s.Client.IPAddress,
		UserAgent:        s.Client.UserAgent,
	}
	if err := h.persist(ctx, req); err != nil {
		return nil, err
	}
	h.afterSubmit(ctx, req)
	return h.accepted(req, "Nova unidade enviada para aprovação com sucesso!"), nil
}

// checkUnitCode rejects codes that are not in the legacy catalog.
func (h *Handler) checkUnitCode(ctx context.Context, groupCode int) error {
	if groupCode <= 0 {
		return apperrors.NewInvalidUnitCodeError(groupCode)
	}
	ok, err := h.legacy.Exists(ctx, groupCode)
	if err != nil {
		return apperrors.NewDatabaseQueryFailedError("check legacy unit", err)
	}
	if !ok {
		return apperrors.NewInvalidUnitCodeError(groupCode)
	}
	return nil
}

// persist issues a tracking number and inserts the request, drawing a new
// number when a concurrent submission took the same one.
func (h *Handler) persist(ctx context.Context, req *models.OnboardingRequest) error {
	for attempt := 1; ; attempt++ {
		tn, err := h.tracking.Next(ctx)
		if err != nil {
			return apperrors.NewDatabaseQueryFailedError("generate tracking number", err)
		}
		req.TrackingNumber = tn

		err = h.requests.Create(ctx, req)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrTrackingNumberTaken) || attempt >= h.config.TrackingMaxAttempts {
			return apperrors.NewDatabaseInsertFailedError("create onboarding request", err)
		}
		h.logger.Warn("tracking number taken, retrying", map[string]interface{}{
			"trackingNumber": tn,
			"attempt":        attempt,
		})
	}
}

// afterSubmit fires the receipt and the review process. Failures are logged
// only; the request is already stored.
func (h *Handler) afterSubmit(ctx context.Context, req *models.OnboardingRequest) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if h.deps.Receipts != nil {
		if err := h.deps.Receipts.SendReceipt(ctx, req); err != nil {
			h.logger.Warn("submission receipt not sent", map[string]interface{}{
				"trackingNumber": req.TrackingNumber,
				"error":          err.Error(),
			})
		}
	}

	if h.deps.Processes != nil && h.config.ReviewProcessID != "" {
		key, err := h.deps.Processes.StartProcess(ctx, h.config.ReviewProcessID, map[string]interface{}{
			"requestId":      req.ID,
			"trackingNumber": req.TrackingNumber,
			"requestType":    string(req.RequestType),
		})
		if err != nil {
			h.logger.Warn("review process not started", map[string]interface{}{
				"trackingNumber": req.TrackingNumber,
				"error":          err.Error(),
			})
			return
		}
		h.logger.Debug("review process started", map[string]interface{}{
			"trackingNumber":     req.TrackingNumber,
			"processInstanceKey": key,
		})
	}
}

func (h *Handler) notifyCreated(ctx context.Context, event models.FranchiseeCreated) {
	if h.deps.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := h.deps.Notifier.NotifyCreated(ctx, event); err != nil {
		h.logger.Warn("franchisee created notification failed", map[string]interface{}{
			"franchiseeId": event.ID,
			"error":        err.Error(),
		})
	}
}

func (h *Handler) accepted(req *models.OnboardingRequest, message string) *Output {
	return &Output{
		Success:        true,
		RequestID:      req.ID,
		TrackingNumber: req.TrackingNumber,
		RequestType:    string(req.RequestType),
		Message:        message,
		NeedsApproval:  true,
		EstimatedTime:  h.config.EstimatedReviewTime,
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

func submissionKind(sub models.Submission) string {
	switch sub.(type) {
	case models.NewRegistration:
		return "new_registration"
	case models.LinkToExistingUnit:
		return "link_to_existing_unit"
	case models.NewUnitForFranchisee:
		return "new_unit_for_franchisee"
	default:
		return fmt.Sprintf("%T", sub)
	}
}

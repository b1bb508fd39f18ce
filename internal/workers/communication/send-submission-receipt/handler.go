package sendsubmissionreceipt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"text/template"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "franchise-onboarding/internal/common/errors"
	"franchise-onboarding/internal/common/logger"
	"franchise-onboarding/internal/common/metrics"
	"franchise-onboarding/internal/models"
)

const TaskType = "send-submission-receipt"

// Mailer is satisfied by *aws.SESClient.
type Mailer interface {
	SendText(ctx context.Context, from, to, subject, body string) (string, error)
}

var requestTypeLabels = map[string]string{
	string(models.RequestNewPersonNewUnit):           "cadastro de franqueado e unidade",
	string(models.RequestExistingPersonNewUnit):      "nova unidade para franqueado existente",
	string(models.RequestNewPersonExistingUnit):      "novo franqueado em unidade existente",
	string(models.RequestExistingPersonExistingUnit): "vinculação a unidade existente",
}

var bodyTemplate = template.Must(template.New("receipt").Parse(
	`Olá{{if .Name}}, {{.Name}}{{end}}!

Recebemos sua solicitação de {{.Label}}.

Número de acompanhamento: {{.TrackingNumber}}
Prazo estimado de análise: {{.EstimatedTime}}

Guarde este número para consultar o andamento da sua solicitação.
`))

type Handler struct {
	config *Config
	mailer Mailer
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

// NewHandler builds the receipt sender. mailer may be nil when SES is off.
func NewHandler(config *Config, mailer Mailer, log logger.Logger) *Handler {
	h := &Handler{
		config: config,
		mailer: mailer,
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

// SendReceipt adapts a freshly persisted request for the submission flow.
func (h *Handler) SendReceipt(ctx context.Context, req *models.OnboardingRequest) error {
	_, err := h.Execute(ctx, &Input{
		TrackingNumber: req.TrackingNumber,
		Email:          req.FranchiseeEmail,
		Name:           req.FormData.FullName,
		RequestType:    string(req.RequestType),
	})
	return err
}

// Execute emails the tracking number to the applicant. A missing address or
// disabled channel is a skip, not an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !h.config.Enabled || h.mailer == nil {
		return &Output{Skipped: skippedDisabled}, nil
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		metrics.NotificationsTotal.WithLabelValues("email", "skipped").Inc()
		return &Output{Skipped: skippedNoEmail}, nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewValidationError("E-mail inválido", fmt.Sprintf("email: %s", email))
	}
	if input.TrackingNumber == "" {
		return nil, apperrors.NewValidationError("trackingNumber é obrigatório", "field: trackingNumber")
	}

	subject, body, err := h.render(input)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	messageID, err := h.mailer.SendText(ctx, h.config.FromEmail, email, subject, body)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("email", "failed").Inc()
		h.logger.Error("submission receipt not sent", map[string]interface{}{
			"trackingNumber": input.TrackingNumber,
			"error":          err.Error(),
		})
		return nil, apperrors.NewNotificationSendFailedError("email", err)
	}

	metrics.NotificationsTotal.WithLabelValues("email", "sent").Inc()
	h.logger.Info("submission receipt sent", map[string]interface{}{
		"trackingNumber": input.TrackingNumber,
		"messageId":      messageID,
	})
	return &Output{Sent: true, MessageID: messageID}, nil
}

func (h *Handler) render(input *Input) (string, string, error) {
	label, ok := requestTypeLabels[input.RequestType]
	if !ok {
		label = "cadastro"
	}

	var body strings.Builder
	err := bodyTemplate.Execute(&body, map[string]string{
		"Name":           strings.TrimSpace(input.Name),
		"Label":          label,
		"TrackingNumber": input.TrackingNumber,
		"EstimatedTime":  h.config.EstimatedTime,
	})
	if err != nil {
		return "", "", err
	}
	subject := fmt.Sprintf("Solicitação recebida - %s", input.TrackingNumber)
	return subject, body.String(), nil
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

package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "franchise-onboarding/internal/common/errors"
)

// nilJobClient returns nil commands; the handlers under test only create them.
type nilJobClient struct{}

func (nilJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 { return nil }
func (nilJobClient) NewFailJobCommand() commands.FailJobCommandStep1         { return nil }
func (nilJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1   { return nil }

func TestInstrument_RecordsOutcome(t *testing.T) {
	tests := []struct {
		name    string
		handler worker.JobHandler
		want    string
	}{
		{"completed", func(c worker.JobClient, _ entities.Job) { c.NewCompleteJobCommand() }, OutcomeCompleted},
		{"failed", func(c worker.JobClient, _ entities.Job) { c.NewFailJobCommand() }, OutcomeFailed},
		{"bpmn error", func(c worker.JobClient, _ entities.Job) { c.NewThrowErrorCommand() }, OutcomeBPMNError},
		{"nothing sent", func(worker.JobClient, entities.Job) {}, OutcomeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Instrument("submit-onboarding", tt.handler, func(taskType, outcome string, d time.Duration) {
				assert.Equal(t, "submit-onboarding", taskType)
				got = outcome
			})
			h(nilJobClient{}, entities.Job{})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstrument_NilRecorder(t *testing.T) {
	called := false
	h := Instrument("lookup-registry", func(worker.JobClient, entities.Job) { called = true }, nil)
	h(nilJobClient{}, entities.Job{})
	assert.True(t, called)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(status.Error(codes.Unavailable, "gateway down")))
	assert.True(t, isTransient(status.Error(codes.ResourceExhausted, "backpressure")))
	assert.True(t, isTransient(context.DeadlineExceeded))
	assert.False(t, isTransient(status.Error(codes.NotFound, "no process")))
	assert.False(t, isTransient(errors.New("plain")))
}

func TestBrokerError(t *testing.T) {
	err := brokerError("create-instance", 1, status.Error(codes.NotFound, "process not found"))

	stdErr, ok := apperrors.As(err)
	if assert.True(t, ok) {
		assert.Equal(t, apperrors.ErrCodeExternalService, stdErr.Code)
		assert.Contains(t, stdErr.Details, "process not deployed?")
	}
}

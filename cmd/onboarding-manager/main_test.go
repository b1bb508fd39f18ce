package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	nfc "franchise-onboarding/internal/workers/communication/notify-franchisee-created"
	ssr "franchise-onboarding/internal/workers/communication/send-submission-receipt"
	slu "franchise-onboarding/internal/workers/data-access/search-legacy-units"
	lr "franchise-onboarding/internal/workers/enrichment/lookup-registry"
	cos "franchise-onboarding/internal/workers/onboarding/check-onboarding-status"
	ror "franchise-onboarding/internal/workers/onboarding/review-onboarding-request"
	so "franchise-onboarding/internal/workers/onboarding/submit-onboarding"
	"franchise-onboarding/pkg/registry"
)

func TestRetryWithBackoff_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, 5, time.Millisecond, zaptest.NewLogger(t), "dial")

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("connection refused")
	}, 2, time.Millisecond, zaptest.NewLogger(t), "dial")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "dial failed after 3 attempts")
}

func TestRetryWithBackoff_PermanentStops(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), func() error {
		calls++
		return backoff.Permanent(errors.New("bad dsn"))
	}, 5, time.Millisecond, zaptest.NewLogger(t), "dial")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestActivityRegistryCoversWorkers(t *testing.T) {
	reg, err := registry.LoadRegistry(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{
		so.TaskType, ror.TaskType, cos.TaskType, lr.TaskType,
		nfc.TaskType, ssr.TaskType, slu.TaskType,
	} {
		_, ok := reg.Find(taskType)
		assert.True(t, ok, "missing activity for %s", taskType)
	}
}

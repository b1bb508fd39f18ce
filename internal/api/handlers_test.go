package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "franchise-onboarding/internal/common/errors"
	"franchise-onboarding/internal/common/logger"
	"franchise-onboarding/internal/models"
	lookupregistry "franchise-onboarding/internal/workers/enrichment/lookup-registry"
	searchlegacyunits "franchise-onboarding/internal/workers/data-access/search-legacy-units"
	checkonboardingstatus "franchise-onboarding/internal/workers/onboarding/check-onboarding-status"
	reviewonboardingrequest "franchise-onboarding/internal/workers/onboarding/review-onboarding-request"
	submitonboarding "franchise-onboarding/internal/workers/onboarding/submit-onboarding"
)

// ==========================
// Fakes
// ==========================

type fakeSubmit struct {
	got   *submitonboarding.Input
	out   *submitonboarding.Output
	err   error
	panic bool
}

func (f *fakeSubmit) Execute(_ context.Context, in *submitonboarding.Input) (*submitonboarding.Output, error) {
	if f.panic {
		panic("boom")
	}
	f.got = in
	return f.out, f.err
}

type fakeReview struct {
	got *reviewonboardingrequest.Input
	out *reviewonboardingrequest.Output
	err error
}

func (f *fakeReview) Execute(_ context.Context, in *reviewonboardingrequest.Input) (*reviewonboardingrequest.Output, error) {
	f.got = in
	return f.out, f.err
}

type fakeStatus struct {
	got *checkonboardingstatus.Input
	out *checkonboardingstatus.Output
	err error
}

func (f *fakeStatus) Execute(_ context.Context, in *checkonboardingstatus.Input) (*checkonboardingstatus.Output, error) {
	f.got = in
	return f.out, f.err
}

type fakeLookup struct {
	out *lookupregistry.Output
}

func (f *fakeLookup) Execute(_ context.Context, _ *lookupregistry.Input) (*lookupregistry.Output, error) {
	return f.out, nil
}

type fakeLegacy struct {
	got *searchlegacyunits.Input
}

func (f *fakeLegacy) Execute(_ context.Context, in *searchlegacyunits.Input) (*searchlegacyunits.Output, error) {
	f.got = in
	return &searchlegacyunits.Output{
		Results: []models.LegacyUnit{{GroupCode: 1234, GroupName: "Loja Centro"}},
		Count:   1,
		Source:  searchlegacyunits.SourcePostgres,
	}, nil
}

// ==========================
// Helpers
// ==========================

func newTestServer(t *testing.T, services Services, checks map[string]ReadinessCheck) http.Handler {
	s := NewServer(Config{
		RequestTimeout: time.Second,
		Environment:    map[string]bool{"hasDatabase": true, "hasWorkflow": false},
	}, services, checks, logger.NewTestLogger(t))
	s.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return s.Router()
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

// ==========================
// Tests
// ==========================

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1", "X-Real-IP": "10.0.0.2"}, "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		{"blank forwarded falls through", map[string]string{"X-Forwarded-For": " ", "X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		{"none", nil, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestSubmit_PassesClientMetadata(t *testing.T) {
	submit := &fakeSubmit{out: &submitonboarding.Output{
		Success:        true,
		TrackingNumber: "ONB-2025-00001",
		Message:        "Cadastro enviado para aprovação com sucesso!",
		NeedsApproval:  true,
		EstimatedTime:  "2 dias úteis",
	}}
	h := newTestServer(t, Services{Submit: submit}, nil)

	rec, body := do(t, h, http.MethodPost, "/functions/v1/onboarding-submit",
		`{"action":"submitForm","formData":{"cpf_rnm":"12345678901"},"ipAddress":"1.1.1.1"}`,
		map[string]string{"X-Forwarded-For": "203.0.113.7", "User-Agent": "wizard/1.0"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ONB-2025-00001", body["trackingNumber"])
	assert.Equal(t, true, body["needsApproval"])

	require.NotNil(t, submit.got)
	assert.Equal(t, "submitForm", submit.got.Action)
	assert.JSONEq(t, `{"cpf_rnm":"12345678901"}`, string(submit.got.FormData))
	assert.Equal(t, "203.0.113.7", submit.got.IPAddress)
	assert.Equal(t, "wizard/1.0", submit.got.UserAgent)
}

func TestSubmit_DuplicateCarriesExistingRequest(t *testing.T) {
	submit := &fakeSubmit{err: apperrors.NewDuplicateRequestError("ONB-2025-00001", "pending")}
	h := newTestServer(t, Services{Submit: submit}, nil)

	rec, body := do(t, h, http.MethodPost, "/functions/v1/onboarding-submit", `{"action":"submitForm","formData":{}}`, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "DUPLICATE_REQUEST", body["code"])
	assert.Equal(t, "ONB-2025-00001", body["existingRequest"])
	assert.Equal(t, "pending", body["status"])
}

func TestSubmit_MalformedBody(t *testing.T) {
	h := newTestServer(t, Services{Submit: &fakeSubmit{}}, nil)

	rec, body := do(t, h, http.MethodPost, "/functions/v1/onboarding-submit", `{"action":`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
}

func TestSubmit_HealthProbe(t *testing.T) {
	h := newTestServer(t, Services{Submit: &fakeSubmit{}}, nil)

	rec, body := do(t, h, http.MethodGet, "/functions/v1/onboarding-submit", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "onboarding-submit", body["function"])
	assert.Equal(t, "2025-03-10T12:00:00Z", body["timestamp"])
	assert.Equal(t, map[string]interface{}{"hasDatabase": true, "hasWorkflow": false}, body["environment"])
}

func TestSubmit_PanicIsRecovered(t *testing.T) {
	h := newTestServer(t, Services{Submit: &fakeSubmit{panic: true}}, nil)

	rec, body := do(t, h, http.MethodPost, "/functions/v1/onboarding-submit", `{"action":"submitForm"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}

func TestReview_ProcessingFailure(t *testing.T) {
	review := &fakeReview{err: apperrors.NewProcessingFailedError(errors.New("disk full"))}
	h := newTestServer(t, Services{Review: review}, nil)

	rec, body := do(t, h, http.MethodPost, "/functions/v1/approve-onboarding-request",
		`{"requestId":"r-1","action":"approve","reviewerId":"admin-1"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Erro ao processar: disk full", body["error"])
	assert.Equal(t, "admin-1", review.got.ReviewerID)
}

func TestStatus_UsesPathParam(t *testing.T) {
	status := &fakeStatus{out: &checkonboardingstatus.Output{TrackingNumber: "ONB-2025-00001", Status: "pending"}}
	h := newTestServer(t, Services{Status: status}, nil)

	rec, body := do(t, h, http.MethodGet, "/functions/v1/onboarding-status/ONB-2025-00001", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "ONB-2025-00001", status.got.TrackingNumber)
}

func TestStatus_NotFound(t *testing.T) {
	status := &fakeStatus{err: apperrors.NewRequestNotFoundError("ONB-2025-00099")}
	h := newTestServer(t, Services{Status: status}, nil)

	rec, body := do(t, h, http.MethodGet, "/functions/v1/onboarding-status/ONB-2025-00099", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "REQUEST_NOT_FOUND", body["code"])
}

func TestLookup_UpstreamFailureIsOK(t *testing.T) {
	lookup := &fakeLookup{out: &lookupregistry.Output{Success: false, Error: "Erro ao consultar CPF"}}
	h := newTestServer(t, Services{Lookup: lookup}, nil)

	rec, body := do(t, h, http.MethodPost, "/functions/v1/api-lookup", `{"type":"cpf","value":"12345678901"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Erro ao consultar CPF", body["error"])
}

func TestLegacyUnits_QueryParams(t *testing.T) {
	legacy := &fakeLegacy{}
	h := newTestServer(t, Services{LegacyUnits: legacy}, nil)

	rec, body := do(t, h, http.MethodGet, "/functions/v1/legacy-units?q=cent&limit=5", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, &searchlegacyunits.Input{Query: "cent", Limit: 5}, legacy.got)
}

func TestUnconfiguredRouteIsNotMounted(t *testing.T) {
	h := newTestServer(t, Services{}, nil)

	rec, _ := do(t, h, http.MethodPost, "/functions/v1/api-lookup", `{}`, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, Services{Submit: &fakeSubmit{}}, nil)

	rec, _ := do(t, h, http.MethodOptions, "/functions/v1/onboarding-submit", "", map[string]string{
		"Origin":                         "https://wizard.example.com",
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "content-type, apikey",
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestReady(t *testing.T) {
	h := newTestServer(t, Services{}, map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rec, body := do(t, h, http.MethodGet, "/ready", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body["status"])
	assert.Equal(t, map[string]interface{}{"postgres": "ok", "redis": "connection refused"}, body["checks"])
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, Services{}, nil)

	rec, body := do(t, h, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

// internal/workers/onboarding/submit-onboarding/handler_test.go
package submitonboarding

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "franchise-onboarding/internal/common/errors"
	"franchise-onboarding/internal/common/logger"
	"franchise-onboarding/internal/models"
	"franchise-onboarding/internal/onboarding/tracking"
)

const (
	testTaxID        = "12345678901"
	testGroupCode    = 1234
	testFranchiseeID = "7f6d2b0a-3c57-4f7e-9d0b-4a1e2c3d4e5f"
	testUnitID       = "0c9e8d7f-6b5a-4c3d-8e2f-1a0b9c8d7e6f"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeReceipts struct {
	sent []*models.OnboardingRequest
	err  error
}

func (f *fakeReceipts) SendReceipt(ctx context.Context, req *models.OnboardingRequest) error {
	f.sent = append(f.sent, req)
	return f.err
}

type fakeNotifier struct {
	events []models.FranchiseeCreated
}

func (f *fakeNotifier) NotifyCreated(ctx context.Context, event models.FranchiseeCreated) error {
	f.events = append(f.events, event)
	return nil
}

type fakeProcesses struct {
	started []interface{}
	err     error
}

func (f *fakeProcesses) StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error) {
	f.started = append(f.started, variables)
	return 2251799813685249, f.err
}

type fixture struct {
	handler   *Handler
	mock      sqlmock.Sqlmock
	receipts  *fakeReceipts
	notifier  *fakeNotifier
	processes *fakeProcesses
}

func newFixture(t *testing.T, configure ...func(*Config)) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := DefaultConfig()
	cfg.ReviewProcessID = "onboarding-review"
	for _, c := range configure {
		c(cfg)
	}

	f := &fixture{
		mock:      mock,
		receipts:  &fakeReceipts{},
		notifier:  &fakeNotifier{},
		processes: &fakeProcesses{},
	}
	clock := func() time.Time { return time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC) }
	f.handler = NewHandler(cfg, db, Dependencies{
		Receipts:  f.receipts,
		Notifier:  f.notifier,
		Processes: f.processes,
	}, logger.NewTestLogger(t), tracking.WithClock(clock))
	return f
}

func validForm() map[string]interface{} {
	return map[string]interface{}{
		"cpf_rnm":                       "123.456.789-01",
		"full_name":                     " Maria Souza ",
		"email":                         "Maria@Example.com",
		"contact":                       "(41) 99876-5432",
		"group_code":                    testGroupCode,
		"group_name":                    "Loja Centro",
		"cnpj":                          "11.222.333/0001-81",
		"store_phase":                   models.StorePhaseOperation,
		"has_partner_parking":           false,
		"system_term_accepted":          true,
		"confidentiality_term_accepted": true,
		"lgpd_term_accepted":            true,
	}
}

func submitInput(t *testing.T, action string, form map[string]interface{}) *Input {
	t.Helper()
	raw, err := json.Marshal(form)
	require.NoError(t, err)
	return &Input{Action: action, FormData: raw, IPAddress: "203.0.113.9", UserAgent: "test-agent"}
}

func (f *fixture) expectLegacyUnit(exists bool) {
	f.mock.ExpectQuery(`FROM legacy_units WHERE group_code`).
		WithArgs(testGroupCode).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func (f *fixture) expectFranchisee(found bool) {
	q := f.mock.ExpectQuery(`FROM franchisees WHERE tax_id`).WithArgs(testTaxID)
	if !found {
		q.WillReturnError(sql.ErrNoRows)
		return
	}
	q.WillReturnRows(sqlmock.NewRows([]string{
		"id", "tax_id", "full_name", "birth_date", "email", "phone", "instagram",
		"city", "uf", "postal_code", "is_active_system",
	}).AddRow(testFranchiseeID, testTaxID, "Maria Souza", nil, "maria@example.com", nil, nil, nil, nil, nil, true))
}

func (f *fixture) expectUnit(found bool) {
	q := f.mock.ExpectQuery(`FROM units WHERE group_code`).WithArgs(testGroupCode)
	if !found {
		q.WillReturnError(sql.ErrNoRows)
		return
	}
	q.WillReturnRows(sqlmock.NewRows([]string{
		"id", "group_code", "group_name", "registry_id", "fantasy_name", "store_phase", "is_active",
	}).AddRow(testUnitID, testGroupCode, "Loja Centro", nil, nil, nil, true))
}

func (f *fixture) expectNoInFlight(taxID string) {
	f.mock.ExpectQuery(`status IN \('pending', 'processing'\)`).
		WithArgs(taxID, testGroupCode).
		WillReturnError(sql.ErrNoRows)
}

func (f *fixture) expectLastTracking(last string) {
	q := f.mock.ExpectQuery(`ORDER BY tracking_number DESC`).WithArgs("ONB-2025-%")
	if last == "" {
		q.WillReturnError(sql.ErrNoRows)
		return
	}
	q.WillReturnRows(sqlmock.NewRows([]string{"tracking_number"}).AddRow(last))
}

func (f *fixture) expectInsert(trackingNumber string, requestType models.RequestType) *sqlmock.ExpectedQuery {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	return f.mock.ExpectQuery(`INSERT INTO onboarding_requests`).
		WithArgs(sqlmock.AnyArg(), trackingNumber, sqlmock.AnyArg(), testTaxID, "maria@example.com",
			testGroupCode, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"pending", string(requestType), "203.0.113.9", "test-agent").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) *apperrors.StandardError {
	t.Helper()
	stdErr, ok := apperrors.As(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
	return stdErr
}

// ==========================
// New registration
// ==========================

func TestExecute_NewRegistration_Accepted(t *testing.T) {
	f := newFixture(t)
	f.expectLegacyUnit(true)
	f.expectFranchisee(false)
	f.expectUnit(false)
	f.expectNoInFlight(testTaxID)
	f.expectLastTracking("")
	f.expectInsert("ONB-2025-00001", models.RequestNewPersonNewUnit)

	out, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, validForm()))

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.RequestID)
	assert.Equal(t, "ONB-2025-00001", out.TrackingNumber)
	assert.Equal(t, "new_person_new_unit", out.RequestType)
	assert.True(t, out.NeedsApproval)
	assert.Equal(t, "2 dias úteis", out.EstimatedTime)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	require.Len(t, f.receipts.sent, 1)
	stored := f.receipts.sent[0]
	assert.Equal(t, "Maria Souza", stored.FormData.FullName)
	assert.Equal(t, "41998765432", stored.FormData.Contact)
	assert.Equal(t, "11222333000181", stored.FormData.RegistryID)
	require.Len(t, f.processes.started, 1)
	assert.Empty(t, f.notifier.events)
}

func TestExecute_NewRegistration_Classification(t *testing.T) {
	tests := []struct {
		name             string
		franchiseeExists bool
		unitExists       bool
		want             models.RequestType
	}{
		{"existing person new unit", true, false, models.RequestExistingPersonNewUnit},
		{"new person existing unit", false, true, models.RequestNewPersonExistingUnit},
		{"existing person existing unit not linked", true, true, models.RequestExistingPersonNewUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.expectLegacyUnit(true)
			f.expectFranchisee(tt.franchiseeExists)
			f.expectUnit(tt.unitExists)
			f.expectNoInFlight(testTaxID)
			if tt.franchiseeExists && tt.unitExists {
				f.mock.ExpectQuery(`FROM franchisee_units`).
					WithArgs(testFranchiseeID, testUnitID).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			}
			f.expectLastTracking("")
			f.expectInsert("ONB-2025-00001", tt.want)

			out, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, validForm()))

			require.NoError(t, err)
			assert.Equal(t, string(tt.want), out.RequestType)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestExecute_TrackingNumbersIncrease(t *testing.T) {
	f := newFixture(t)
	f.expectLegacyUnit(true)
	f.expectFranchisee(false)
	f.expectUnit(false)
	f.expectNoInFlight(testTaxID)
	f.expectLastTracking("ONB-2025-00041")
	f.expectInsert("ONB-2025-00042", models.RequestNewPersonNewUnit)

	out, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, validForm()))

	require.NoError(t, err)
	assert.Equal(t, "ONB-2025-00042", out.TrackingNumber)
}

func TestExecute_RetriesTrackingNumberCollision(t *testing.T) {
	f := newFixture(t)
	f.expectLegacyUnit(true)
	f.expectFranchisee(false)
	f.expectUnit(false)
	f.expectNoInFlight(testTaxID)
	f.expectLastTracking("")
	f.mock.ExpectQuery(`INSERT INTO onboarding_requests`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "onboarding_requests_tracking_number_key"})
	f.expectLastTracking("ONB-2025-00001")
	f.expectInsert("ONB-2025-00002", models.RequestNewPersonNewUnit)

	out, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, validForm()))

	require.NoError(t, err)
	assert.Equal(t, "ONB-2025-00002", out.TrackingNumber)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestExecute_TrackingNumberCollisionExhausted(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.TrackingMaxAttempts = 2 })
	f.expectLegacyUnit(true)
	f.expectFranchisee(false)
	f.expectUnit(false)
	f.expectNoInFlight(testTaxID)
	for i := 0; i < 2; i++ {
		f.expectLastTracking("")
		f.mock.ExpectQuery(`INSERT INTO onboarding_requests`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "onboarding_requests_tracking_number_key"})
	}

	_, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, validForm()))

	stdErr := requireCode(t, err, apperrors.ErrCodeDatabaseInsertFailed)
	assert.True(t, stdErr.Retryable)
	assert.Empty(t, f.receipts.sent)
}

func TestExecute_SideEffectFailuresDoNotFailSubmission(t *testing.T) {
	f := newFixture(t)
	f.receipts.err = errors.New("ses throttled")
	f.processes.err = errors.New("process not deployed")
	f.expectLegacyUnit(true)
	f.expectFranchisee(false)
	f.expectUnit(false)
	f.expectNoInFlight(testTaxID)
	f.expectLastTracking("")
	f.expectInsert("ONB-2025-00001", models.RequestNewPersonNewUnit)

	out, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, validForm()))

	require.NoError(t, err)
	assert.True(t, out.Success)
}

// ==========================
// Rejections
// ==========================

func TestExecute_DuplicateResubmission(t *testing.T) {
	f := newFixture(t)
	f.expectLegacyUnit(true)
	f.expectFranchisee(false)
	f.expectUnit(false)
	f.mock.ExpectQuery(`FROM onboarding_requests`).
		WithArgs(testTaxID, testGroupCode).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tracking_number", "status"}).
			AddRow("5b4a3c2d-1e0f-4a9b-8c7d-6e5f4a3b2c1d", "ONB-2025-00001", "pending"))

	_, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, validForm()))

	stdErr := requireCode(t, err, apperrors.ErrCodeDuplicateRequest)
	assert.Equal(t, "ONB-2025-00001", stdErr.Metadata["existingRequest"])
	assert.Equal(t, 409, apperrors.HTTPStatus(stdErr.Code))
	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Empty(t, f.receipts.sent)
}

func TestExecute_InvalidUnitCodeWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.expectLegacyUnit(false)

	_, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, validForm()))

	stdErr := requireCode(t, err, apperrors.ErrCodeInvalidUnitCode)
	assert.Equal(t, 400, apperrors.HTTPStatus(stdErr.Code))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestExecute_NonPositiveUnitCode(t *testing.T) {
	f := newFixture(t)
	form := validForm()
	form["group_code"] = 0

	_, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, form))

	requireCode(t, err, apperrors.ErrCodeInvalidUnitCode)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestExecute_FieldValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(map[string]interface{})
		needsLegacy bool
		message     string
	}{
		{
			name:    "missing tax id",
			mutate:  func(m map[string]interface{}) { m["cpf_rnm"] = "" },
			message: "CPF e nome completo são obrigatórios",
		},
		{
			name:    "missing full name",
			mutate:  func(m map[string]interface{}) { m["full_name"] = "   " },
			message: "CPF e nome completo são obrigatórios",
		},
		{
			name:        "partner parking without address",
			mutate:      func(m map[string]interface{}) { m["has_partner_parking"] = true },
			needsLegacy: true,
			message:     "Endereço do estacionamento parceiro é obrigatório quando estacionamento parceiro está habilitado",
		},
		{
			name:        "term not accepted",
			mutate:      func(m map[string]interface{}) { m["lgpd_term_accepted"] = false },
			needsLegacy: true,
			message:     "Todos os termos devem ser aceitos",
		},
		{
			name: "implantation without sub-phase",
			mutate: func(m map[string]interface{}) {
				m["store_phase"] = models.StorePhaseImplantation
			},
			needsLegacy: true,
			message:     "Fase de implantação é obrigatória para unidades em implantação",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.needsLegacy {
				f.expectLegacyUnit(true)
			}
			form := validForm()
			tt.mutate(form)

			_, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, form))

			stdErr := requireCode(t, err, apperrors.ErrCodeValidationFailed)
			assert.Equal(t, tt.message, stdErr.Message)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestExecute_InvalidAction(t *testing.T) {
	f := newFixture(t)

	_, err := f.handler.Execute(context.Background(), submitInput(t, "deleteEverything", validForm()))

	requireCode(t, err, apperrors.ErrCodeInvalidAction)
}

func TestExecute_MissingFormData(t *testing.T) {
	f := newFixture(t)

	_, err := f.handler.Execute(context.Background(), &Input{Action: models.ActionSubmitForm})

	requireCode(t, err, apperrors.ErrCodeValidationFailed)
}

func TestExecute_StoreFailureIsRetryable(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectQuery(`FROM legacy_units`).WillReturnError(errors.New("connection refused"))

	_, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, validForm()))

	stdErr := requireCode(t, err, apperrors.ErrCodeDatabaseQueryFailed)
	assert.True(t, stdErr.Retryable)
}

func TestExecute_DeadlineMapsToSubmissionTimeout(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Timeout = 20 * time.Millisecond })
	f.mock.ExpectQuery(`FROM legacy_units`).
		WillDelayFor(500 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, validForm()))

	stdErr := requireCode(t, err, apperrors.ErrCodeSubmissionTimeout)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, 504, apperrors.HTTPStatus(stdErr.Code))
}

// ==========================
// Link to existing unit
// ==========================

func linkForm() map[string]interface{} {
	form := validForm()
	form["_linking_existing_unit"] = true
	form["_existing_unit_id"] = testUnitID
	return form
}

func (f *fixture) expectUnitByID() {
	f.mock.ExpectQuery(`FROM units WHERE id`).
		WithArgs(testUnitID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "group_code", "group_name", "registry_id", "fantasy_name", "store_phase", "is_active",
		}).AddRow(testUnitID, testGroupCode, "Loja Centro", nil, nil, nil, true))
}

func TestExecute_LinkToExistingUnit(t *testing.T) {
	f := newFixture(t)
	f.expectUnitByID()
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`INSERT INTO franchisees`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow(testFranchiseeID, true))
	f.mock.ExpectQuery(`FROM franchisee_units`).
		WithArgs(testFranchiseeID, testUnitID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	f.mock.ExpectExec(`INSERT INTO franchisee_units`).
		WithArgs(sqlmock.AnyArg(), testFranchiseeID, testUnitID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	out, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, linkForm()))

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.False(t, out.NeedsApproval)
	assert.Empty(t, out.TrackingNumber)
	assert.Equal(t, testFranchiseeID, out.FranchiseeID)
	assert.Equal(t, testUnitID, out.UnitID)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, models.FranchiseeCreated{
		ID:       testFranchiseeID,
		Name:     "Maria Souza",
		Phone:    "41998765432",
		TaxID:    testTaxID,
		UnitCode: "1234",
	}, f.notifier.events[0])
}

func TestExecute_LinkToExistingUnit_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.expectUnitByID()
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`INSERT INTO franchisees`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow(testFranchiseeID, true))
	f.mock.ExpectQuery(`FROM franchisee_units`).WillReturnError(errors.New("connection reset"))
	f.mock.ExpectRollback()

	_, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, linkForm()))

	requireCode(t, err, apperrors.ErrCodeDatabaseInsertFailed)
	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Empty(t, f.notifier.events)
}

func TestExecute_LinkRequiresApproval(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.LinkRequiresApproval = true })
	f.expectUnitByID()
	f.expectFranchisee(true)
	f.expectUnit(true)
	f.expectNoInFlight(testTaxID)
	f.mock.ExpectQuery(`FROM franchisee_units`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	f.expectLastTracking("")
	f.expectInsert("ONB-2025-00001", models.RequestExistingPersonExistingUnit)

	out, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitForm, linkForm()))

	require.NoError(t, err)
	assert.True(t, out.NeedsApproval)
	assert.Equal(t, "existing_person_existing_unit", out.RequestType)
	assert.Equal(t, testUnitID, out.UnitID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

// ==========================
// New unit for existing franchisee
// ==========================

func newUnitForm() map[string]interface{} {
	form := validForm()
	form["franchiseeId"] = testFranchiseeID
	return form
}

func TestExecute_NewUnitForFranchisee(t *testing.T) {
	f := newFixture(t)
	f.expectLegacyUnit(true)
	f.mock.ExpectQuery(`FROM franchisees WHERE id`).
		WithArgs(testFranchiseeID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tax_id", "full_name", "birth_date", "email", "phone", "instagram",
			"city", "uf", "postal_code", "is_active_system",
		}).AddRow(testFranchiseeID, testTaxID, "Maria Souza", nil, "maria@example.com", nil, nil, nil, nil, nil, true))
	f.expectNoInFlight("")
	f.expectUnit(false)
	f.expectLastTracking("ONB-2025-00007")
	f.mock.ExpectQuery(`INSERT INTO onboarding_requests`).
		WithArgs(sqlmock.AnyArg(), "ONB-2025-00008", sqlmock.AnyArg(), nil, "maria@example.com",
			testGroupCode, true, testFranchiseeID, false, nil,
			"pending", "existing_person_new_unit", "203.0.113.9", "test-agent").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	out, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitNewUnit, newUnitForm()))

	require.NoError(t, err)
	assert.Equal(t, "ONB-2025-00008", out.TrackingNumber)
	assert.Equal(t, "existing_person_new_unit", out.RequestType)
	assert.Equal(t, "Nova unidade enviada para aprovação com sucesso!", out.Message)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestExecute_NewUnitForFranchisee_MissingFranchisee(t *testing.T) {
	f := newFixture(t)

	_, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitNewUnit, validForm()))

	stdErr := requireCode(t, err, apperrors.ErrCodeValidationFailed)
	assert.Equal(t, "ID do franqueado não encontrado", stdErr.Message)
}

func TestExecute_NewUnitForFranchisee_UnknownFranchisee(t *testing.T) {
	f := newFixture(t)
	f.expectLegacyUnit(true)
	f.mock.ExpectQuery(`FROM franchisees WHERE id`).WillReturnError(sql.ErrNoRows)

	_, err := f.handler.Execute(context.Background(), submitInput(t, models.ActionSubmitNewUnit, newUnitForm()))

	requireCode(t, err, apperrors.ErrCodeFranchiseeNotFound)
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"franchise-onboarding/internal/common/database"
	"franchise-onboarding/internal/models"
)

const requestColumns = `id, tracking_number, form_data, franchisee_tax_id, franchisee_email,
		unit_code, franchisee_exists, franchisee_id, unit_exists, unit_id, status, request_type,
		reviewed_by, reviewed_at, rejection_reason, ip_address, user_agent, created_at, updated_at`

// RequestStore persists onboarding requests and their status transitions.
type RequestStore struct {
	db *sql.DB
}

func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

// InFlightRequest is the part of a pending or processing request needed to
// report a duplicate.
type InFlightRequest struct {
	ID             string
	TrackingNumber string
	Status         models.RequestStatus
}

// FindInFlight returns the oldest pending or processing request whose tax id
// or unit code matches. An empty taxID matches on unit code only. Returns
// ErrNotFound when there is none.
func (s *RequestStore) FindInFlight(ctx context.Context, taxID string, unitCode int) (*InFlightRequest, error) {
	var r InFlightRequest
	err := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, tracking_number, status
		FROM onboarding_requests
		WHERE status IN ('pending', 'processing')
		  AND ((franchisee_tax_id = $1 AND $1 <> '') OR unit_code = $2)
		ORDER BY created_at
		LIMIT 1`, taxID, unitCode).Scan(&r.ID, &r.TrackingNumber, &r.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query in-flight request: %w", err)
	}
	return &r, nil
}

// LastTrackingNumber returns the greatest tracking number starting with
// prefix, or "" when none exists.
func (s *RequestStore) LastTrackingNumber(ctx context.Context, prefix string) (string, error) {
	var tn string
	err := database.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT tracking_number
		FROM onboarding_requests
		WHERE tracking_number LIKE $1
		ORDER BY tracking_number DESC
		LIMIT 1`, escapeLike(prefix)+"%").Scan(&tn)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query last tracking number: %w", err)
	}
	return tn, nil
}

// Create inserts r as given and fills ID, CreatedAt and UpdatedAt. A clash on
// the tracking number returns ErrTrackingNumberTaken.
func (s *RequestStore) Create(ctx context.Context, r *models.OnboardingRequest) error {
	formJSON, err := json.Marshal(r.FormData)
	if err != nil {
		return fmt.Errorf("marshal form data: %w", err)
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	err = database.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO onboarding_requests (
			id, tracking_number, form_data, franchisee_tax_id, franchisee_email,
			unit_code, franchisee_exists, franchisee_id, unit_exists, unit_id,
			status, request_type, ip_address, user_agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		r.ID, r.TrackingNumber, formJSON, nullable(r.FranchiseeTaxID), nullable(r.FranchiseeEmail),
		r.UnitCode, r.FranchiseeExists, nullable(r.FranchiseeID), r.UnitExists, nullable(r.UnitID),
		string(r.Status), string(r.RequestType), nullable(r.IPAddress), nullable(r.UserAgent),
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if IsUniqueViolation(err, constraintTrackingNumber) {
		return fmt.Errorf("%w: %s", ErrTrackingNumberTaken, r.TrackingNumber)
	}
	if err != nil {
		return fmt.Errorf("insert onboarding request: %w", err)
	}
	return nil
}

// FindByID returns ErrNotFound when the id is unknown.
func (s *RequestStore) FindByID(ctx context.Context, id string) (*models.OnboardingRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, `WHERE id = $1`, id)
}

// FindByTrackingNumber returns ErrNotFound when the number is unknown.
func (s *RequestStore) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.OnboardingRequest, error) {
	return s.findOne(ctx, `WHERE tracking_number = $1`, trackingNumber)
}

func (s *RequestStore) findOne(ctx context.Context, where string, arg any) (*models.OnboardingRequest, error) {
	row := database.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM onboarding_requests `+where, arg)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query onboarding request: %w", err)
	}
	return r, nil
}

func scanRequest(row rowScanner) (*models.OnboardingRequest, error) {
	var (
		r                          models.OnboardingRequest
		formJSON                   []byte
		taxID, email, franchiseeID sql.NullString
		unitID, reviewedBy, reason sql.NullString
		ipAddress, userAgent       sql.NullString
		status, requestType        string
		reviewedAt                 sql.NullTime
	)
	if err := row.Scan(
		&r.ID, &r.TrackingNumber, &formJSON, &taxID, &email,
		&r.UnitCode, &r.FranchiseeExists, &franchiseeID, &r.UnitExists, &unitID, &status, &requestType,
		&reviewedBy, &reviewedAt, &reason, &ipAddress, &userAgent, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(formJSON) > 0 {
		if err := json.Unmarshal(formJSON, &r.FormData); err != nil {
			return nil, fmt.Errorf("decode form data: %w", err)
		}
	}
	r.FranchiseeTaxID = str(taxID)
	r.FranchiseeEmail = str(email)
	r.FranchiseeID = str(franchiseeID)
	r.UnitID = str(unitID)
	r.Status = models.RequestStatus(status)
	r.RequestType = models.RequestType(requestType)
	r.ReviewedBy = str(reviewedBy)
	r.RejectionReason = str(reason)
	r.IPAddress = str(ipAddress)
	r.UserAgent = str(userAgent)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		r.ReviewedAt = &t
	}
	return &r, nil
}

// TransitionStatus moves the request from one status to another and reports
// whether the row was in the expected status.
func (s *RequestStore) TransitionStatus(ctx context.Context, id string, from, to models.RequestStatus) (bool, error) {
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE onboarding_requests
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("update request status: %w", err)
	}
	return affectedOne(res)
}

// MarkApproved records the resolved ids and reviewer of a processing request.
func (s *RequestStore) MarkApproved(ctx context.Context, id, franchiseeID, unitID, reviewer string, at time.Time) (bool, error) {
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE onboarding_requests
		SET status = 'approved', franchisee_id = $2, unit_id = $3,
		    reviewed_by = $4, reviewed_at = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`,
		id, franchiseeID, unitID, nullable(reviewer), at)
	if err != nil {
		return false, fmt.Errorf("approve request: %w", err)
	}
	return affectedOne(res)
}

// MarkRejected rejects a pending request.
func (s *RequestStore) MarkRejected(ctx context.Context, id, reviewer, reason string, at time.Time) (bool, error) {
	res, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE onboarding_requests
		SET status = 'rejected', reviewed_by = $2, reviewed_at = $3,
		    rejection_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		id, nullable(reviewer), at, reason)
	if err != nil {
		return false, fmt.Errorf("reject request: %w", err)
	}
	return affectedOne(res)
}

// MarkError moves a processing request to error with the failure message.
func (s *RequestStore) MarkError(ctx context.Context, id, reason string) error {
	_, err := database.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE onboarding_requests
		SET status = 'error', rejection_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`, id, reason)
	if err != nil {
		return fmt.Errorf("mark request error: %w", err)
	}
	return nil
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

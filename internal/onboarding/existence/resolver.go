// Package existence decides whether a submission's person and unit are
// already known, and whether another request or link blocks it.
package existence

import (
	"context"
	"errors"

	apperrors "franchise-onboarding/internal/common/errors"
	"franchise-onboarding/internal/models"
	"franchise-onboarding/internal/repository"
)

type FranchiseeFinder interface {
	FindByTaxID(ctx context.Context, taxID string) (*models.Franchisee, error)
}

type UnitFinder interface {
	FindByGroupCode(ctx context.Context, groupCode int) (*models.Unit, error)
}

type InFlightFinder interface {
	FindInFlight(ctx context.Context, taxID string, unitCode int) (*repository.InFlightRequest, error)
}

type LinkChecker interface {
	Exists(ctx context.Context, franchiseeID, unitID string) (bool, error)
}

// Resolution is the outcome of a successful check. IDs are empty when the
// matching record does not exist yet.
type Resolution struct {
	FranchiseeExists bool
	FranchiseeID     string
	UnitExists       bool
	UnitID           string
	RequestType      models.RequestType
}

type Resolver struct {
	franchisees FranchiseeFinder
	units       UnitFinder
	requests    InFlightFinder
	links       LinkChecker
}

func NewResolver(franchisees FranchiseeFinder, units UnitFinder, requests InFlightFinder, links LinkChecker) *Resolver {
	return &Resolver{
		franchisees: franchisees,
		units:       units,
		requests:    requests,
		links:       links,
	}
}

// Resolve looks up the person and the unit, rejects the submission when an
// in-flight request or an existing link covers it, and classifies the rest.
// It never writes.
func (r *Resolver) Resolve(ctx context.Context, taxID string, groupCode int) (*Resolution, error) {
	var res Resolution

	person, err := r.franchisees.FindByTaxID(ctx, taxID)
	switch {
	case err == nil:
		res.FranchiseeExists = true
		res.FranchiseeID = person.ID
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewDatabaseQueryFailedError("find franchisee", err)
	}

	unit, err := r.units.FindByGroupCode(ctx, groupCode)
	switch {
	case err == nil:
		res.UnitExists = true
		res.UnitID = unit.ID
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewDatabaseQueryFailedError("find unit", err)
	}

	if err := r.CheckInFlight(ctx, taxID, groupCode); err != nil {
		return nil, err
	}

	if res.FranchiseeExists && res.UnitExists {
		linked, err := r.links.Exists(ctx, res.FranchiseeID, res.UnitID)
		if err != nil {
			return nil, apperrors.NewDatabaseQueryFailedError("check link", err)
		}
		if linked {
			return nil, apperrors.NewAlreadyLinkedError(res.FranchiseeID, res.UnitID)
		}
	}

	res.RequestType = Classify(res.FranchiseeExists, res.UnitExists)
	return &res, nil
}

// CheckInFlight only looks for a pending or processing request. An empty
// taxID restricts the check to the unit code.
func (r *Resolver) CheckInFlight(ctx context.Context, taxID string, groupCode int) error {
	existing, err := r.requests.FindInFlight(ctx, taxID, groupCode)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.NewDatabaseQueryFailedError("find in-flight request", err)
	}
	return apperrors.NewDuplicateRequestError(existing.TrackingNumber, string(existing.Status))
}

// Classify maps the existence flags to a request type. A known person with
// a known unit that are not yet linked is treated as a new unit for that
// person.
func Classify(franchiseeExists, unitExists bool) models.RequestType {
	switch {
	case !franchiseeExists && unitExists:
		return models.RequestNewPersonExistingUnit
	case franchiseeExists:
		return models.RequestExistingPersonNewUnit
	default:
		return models.RequestNewPersonNewUnit
	}
}

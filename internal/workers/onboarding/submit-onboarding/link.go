package submitonboarding

import (
	"context"
	"errors"
	"strconv"

	apperrors "franchise-onboarding/internal/common/errors"
	"franchise-onboarding/internal/common/normalize"
	"franchise-onboarding/internal/models"
	"franchise-onboarding/internal/repository"
)

// linkToUnit adds a co-owner to an approved unit right away: the person is
// upserted by tax id and linked in one transaction.
func (h *Handler) linkToUnit(ctx context.Context, s models.LinkToExistingUnit) (*Output, error) {
	form := normalize.Form(s.Data)
	if err := check(form, identityRules); err != nil {
		return nil, err
	}
	unit, err := h.findUnit(ctx, s.UnitID)
	if err != nil {
		return nil, err
	}

	var (
		franchiseeID string
		created      bool
		linked       bool
	)
	err = h.tx.RunInTx(ctx, func(ctx context.Context) error {
		id, inserted, err := h.franchisees.Upsert(ctx, form.Franchisee())
		if err != nil {
			return apperrors.NewDatabaseInsertFailedError("upsert franchisee", err)
		}
		ok, err := h.links.Ensure(ctx, id, unit.ID)
		if err != nil {
			return apperrors.NewDatabaseInsertFailedError("create link", err)
		}
		franchiseeID, created, linked = id, inserted, ok
		return nil
	})
	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.NewDatabaseInsertFailedError("link franchisee", err)
		}
		return nil, err
	}

	if created {
		h.notifyCreated(ctx, models.FranchiseeCreated{
			ID:       franchiseeID,
			Name:     form.FullName,
			Phone:    form.Contact,
			TaxID:    form.TaxID,
			UnitCode: strconv.Itoa(unit.GroupCode),
		})
	}

	message := "Franqueado vinculado à unidade com sucesso!"
	if !linked {
		message = "Franqueado já estava vinculado a esta unidade"
	}
	return &Output{
		Success:      true,
		RequestType:  string(models.RequestExistingPersonExistingUnit),
		Message:      message,
		FranchiseeID: franchiseeID,
		UnitID:       unit.ID,
	}, nil
}

// submitLinkForReview queues the co-owner link as a regular pending request.
func (h *Handler) submitLinkForReview(ctx context.Context, s models.LinkToExistingUnit) (*Output, error) {
	unit, err := h.findUnit(ctx, s.UnitID)
	if err != nil {
		return nil, err
	}
	form := normalize.Form(s.Data).Update(func(f *models.FormData) {
		f.GroupCode = unit.GroupCode
	})
	if err := check(form, identityRules, personRules); err != nil {
		return nil, err
	}

	res, err := h.resolver.Resolve(ctx, form.TaxID, unit.GroupCode)
	if err != nil {
		return nil, err
	}

	req := &models.OnboardingRequest{
		FormData:         form,
		FranchiseeTaxID:  form.TaxID,
		FranchiseeEmail:  form.Email,
		UnitCode:         unit.GroupCode,
		FranchiseeExists: res.FranchiseeExists,
		FranchiseeID:     res.FranchiseeID,
		UnitExists:       true,
		UnitID:           unit.ID,
		Status:           models.StatusPending,
		RequestType:      models.RequestExistingPersonExistingUnit,
		IPAddress:        s.Client.IPAddress,
		UserAgent:        s.Client.UserAgent,
	}
	if err := h.persist(ctx, req); err != nil {
		return nil, err
	}
	h.afterSubmit(ctx, req)

	out := h.accepted(req, "Vinculação enviada para aprovação com sucesso!")
	out.UnitID = unit.ID
	return out, nil
}

func (h *Handler) findUnit(ctx context.Context, unitID string) (*models.Unit, error) {
	unit, err := h.units.FindByID(ctx, unitID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewValidationError("Unidade não encontrada", "unitId: "+unitID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("find unit", err)
	}
	return unit, nil
}

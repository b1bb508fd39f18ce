package submitonboarding

import (
	apperrors "franchise-onboarding/internal/common/errors"
	"franchise-onboarding/internal/models"
)

type rule struct {
	field   string
	failed  func(models.FormData) bool
	message string
}

var identityRules = []rule{
	{
		field:   "cpf_rnm",
		failed:  func(f models.FormData) bool { return f.TaxID == "" || f.FullName == "" },
		message: "CPF e nome completo são obrigatórios",
	},
}

var unitRules = []rule{
	{
		field:   "partner_parking_address",
		failed:  func(f models.FormData) bool { return f.HasPartnerParking && f.PartnerParkingAddress == "" },
		message: "Endereço do estacionamento parceiro é obrigatório quando estacionamento parceiro está habilitado",
	},
	{
		field:   "store_imp_phase",
		failed:  func(f models.FormData) bool { return f.StorePhase == models.StorePhaseImplantation && f.StoreImpPhase == "" },
		message: "Fase de implantação é obrigatória para unidades em implantação",
	},
}

var personRules = []rule{
	{
		field:   "terms",
		failed:  func(f models.FormData) bool { return !f.AllTermsAccepted() },
		message: "Todos os termos devem ser aceitos",
	},
	{
		field:   "referrer_name",
		failed:  func(f models.FormData) bool { return f.WasReferred && f.ReferrerName == "" },
		message: "Informe quem indicou a franquia",
	},
	{
		field:   "other_activities_description",
		failed:  func(f models.FormData) bool { return f.HasOtherActivities && f.OtherActivitiesDescription == "" },
		message: "Descreva as outras atividades exercidas",
	},
}

// check returns a VALIDATION_FAILED error for the first rule f breaks.
func check(f models.FormData, rules ...[]rule) error {
	for _, set := range rules {
		for _, r := range set {
			if r.failed(f) {
				return apperrors.NewValidationError(r.message, "field: "+r.field)
			}
		}
	}
	return nil
}

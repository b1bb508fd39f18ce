// internal/models/form.go
package models

import (
	"github.com/shopspring/decimal"
)

// FormData is the wizard payload. It is passed and stored by value; use
// Update to derive a modified copy.
type FormData struct {
	TaxID                      string          `json:"cpf_rnm"`
	FullName                   string          `json:"full_name"`
	BirthDate                  string          `json:"birth_date"`
	Email                      string          `json:"email"`
	Contact                    string          `json:"contact"`
	Nationality                string          `json:"nationality"`
	OwnerType                  string          `json:"owner_type"`
	Education                  string          `json:"education"`
	PreviousProfession         string          `json:"previous_profession"`
	PreviousSalaryRange        string          `json:"previous_salary_range"`
	WasEntrepreneur            bool            `json:"was_entrepreneur"`
	Availability               string          `json:"availability"`
	DiscoverySource            string          `json:"discovery_source"`
	WasReferred                bool            `json:"was_referred"`
	ReferrerName               string          `json:"referrer_name"`
	ReferrerUnitCode           string          `json:"referrer_unit_code"`
	HasOtherActivities         bool            `json:"has_other_activities"`
	OtherActivitiesDescription string          `json:"other_activities_description"`
	ReceivesProlabore          bool            `json:"receives_prolabore"`
	ProlaboreValue             decimal.Decimal `json:"prolabore_value"`
	ProfileImage               string          `json:"profile_image"`
	Instagram                  string          `json:"instagram"`

	FranchiseePostalCode   string `json:"franchisee_postal_code"`
	FranchiseeAddress      string `json:"franchisee_address"`
	FranchiseeNumber       string `json:"franchisee_number_address"`
	FranchiseeComplement   string `json:"franchisee_address_complement"`
	FranchiseeNeighborhood string `json:"franchisee_neighborhood"`
	FranchiseeCity         string `json:"franchisee_city"`
	FranchiseeState        string `json:"franchisee_state"`
	FranchiseeUF           string `json:"franchisee_uf"`

	UnitPostalCode   string `json:"unit_postal_code"`
	UnitAddress      string `json:"unit_address"`
	UnitNumber       string `json:"unit_number_address"`
	UnitComplement   string `json:"unit_address_complement"`
	UnitNeighborhood string `json:"unit_neighborhood"`
	UnitCity         string `json:"unit_city"`
	UnitState        string `json:"unit_state"`
	UnitUF           string `json:"unit_uf"`

	RegistryID            string `json:"cnpj"`
	FantasyName           string `json:"fantasy_name"`
	GroupName             string `json:"group_name"`
	GroupCode             int    `json:"group_code"`
	StoreModel            string `json:"store_model"`
	StorePhase            string `json:"store_phase"`
	StoreImpPhase         string `json:"store_imp_phase"`
	UnitEmail             string `json:"email_unit"`
	UnitPhone             string `json:"phone_unit"`
	InstagramProfile      string `json:"instagram_profile"`
	HasParking            bool   `json:"has_parking"`
	ParkingSpots          int    `json:"parking_spots"`
	HasPartnerParking     bool   `json:"has_partner_parking"`
	PartnerParkingAddress string `json:"partner_parking_address"`
	PurchasesActive       bool   `json:"purchases_active"`
	SalesActive           bool   `json:"sales_active"`

	OperationMon string `json:"operation_mon"`
	OperationTue string `json:"operation_tue"`
	OperationWed string `json:"operation_wed"`
	OperationThu string `json:"operation_thu"`
	OperationFri string `json:"operation_fri"`
	OperationSat string `json:"operation_sat"`
	OperationSun string `json:"operation_sun"`
	OperationHol string `json:"operation_hol"`

	SystemTermAccepted          bool `json:"system_term_accepted"`
	ConfidentialityTermAccepted bool `json:"confidentiality_term_accepted"`
	LGPDTermAccepted            bool `json:"lgpd_term_accepted"`
}

// Update returns a copy of f with every mutator applied in order. f itself is
// never modified.
func (f FormData) Update(mutators ...func(*FormData)) FormData {
	next := f
	for _, m := range mutators {
		if m != nil {
			m(&next)
		}
	}
	return next
}

// AllTermsAccepted reports whether the three mandatory terms were accepted.
func (f FormData) AllTermsAccepted() bool {
	return f.SystemTermAccepted && f.ConfidentialityTermAccepted && f.LGPDTermAccepted
}

// Franchisee projects the person fields of the form.
func (f FormData) Franchisee() Franchisee {
	return Franchisee{
		TaxID:                      f.TaxID,
		FullName:                   f.FullName,
		BirthDate:                  f.BirthDate,
		Email:                      f.Email,
		Phone:                      f.Contact,
		Nationality:                f.Nationality,
		OwnerType:                  f.OwnerType,
		Education:                  f.Education,
		PreviousProfession:         f.PreviousProfession,
		PreviousSalaryRange:        f.PreviousSalaryRange,
		WasEntrepreneur:            f.WasEntrepreneur,
		Availability:               f.Availability,
		DiscoverySource:            f.DiscoverySource,
		WasReferred:                f.WasReferred,
		ReferrerName:               f.ReferrerName,
		ReferrerUnitCode:           f.ReferrerUnitCode,
		HasOtherActivities:         f.HasOtherActivities,
		OtherActivitiesDescription: f.OtherActivitiesDescription,
		ReceivesProlabore:          f.ReceivesProlabore,
		ProlaboreValue:             f.ProlaboreValue,
		ProfileImage:               f.ProfileImage,
		Instagram:                  f.Instagram,
		Address: Address{
			Street:       f.FranchiseeAddress,
			Number:       f.FranchiseeNumber,
			Complement:   f.FranchiseeComplement,
			Neighborhood: f.FranchiseeNeighborhood,
			City:         f.FranchiseeCity,
			State:        f.FranchiseeState,
			UF:           f.FranchiseeUF,
			PostalCode:   f.FranchiseePostalCode,
		},
		SystemTermAccepted:          f.SystemTermAccepted,
		ConfidentialityTermAccepted: f.ConfidentialityTermAccepted,
		LGPDTermAccepted:            f.LGPDTermAccepted,
		IsInContract:                false,
		IsActiveSystem:              true,
	}
}

// Unit projects the unit fields of the form.
func (f FormData) Unit() Unit {
	return Unit{
		GroupCode:        f.GroupCode,
		GroupName:        f.GroupName,
		RegistryID:       f.RegistryID,
		FantasyName:      f.FantasyName,
		StoreModel:       f.StoreModel,
		StorePhase:       f.StorePhase,
		StoreImpPhase:    f.StoreImpPhase,
		Email:            f.UnitEmail,
		Phone:            f.UnitPhone,
		InstagramProfile: f.InstagramProfile,
		Address: Address{
			Street:       f.UnitAddress,
			Number:       f.UnitNumber,
			Complement:   f.UnitComplement,
			Neighborhood: f.UnitNeighborhood,
			City:         f.UnitCity,
			State:        f.UnitState,
			UF:           f.UnitUF,
			PostalCode:   f.UnitPostalCode,
		},
		Hours: OperatingHours{
			Mon: f.OperationMon,
			Tue: f.OperationTue,
			Wed: f.OperationWed,
			Thu: f.OperationThu,
			Fri: f.OperationFri,
			Sat: f.OperationSat,
			Sun: f.OperationSun,
			Hol: f.OperationHol,
		},
		HasParking:            f.HasParking,
		ParkingSpots:          f.ParkingSpots,
		HasPartnerParking:     f.HasPartnerParking,
		PartnerParkingAddress: f.PartnerParkingAddress,
		PurchasesActive:       f.PurchasesActive,
		SalesActive:           f.SalesActive,
		IsActive:              true,
	}
}

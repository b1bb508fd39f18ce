// internal/models/onboarding.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the lifecycle state of an onboarding request.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusProcessing RequestStatus = "processing"
	StatusApproved   RequestStatus = "approved"
	StatusRejected   RequestStatus = "rejected"
	StatusError      RequestStatus = "error"
)

// InFlight reports whether the status blocks a new submission for the same
// person or unit.
func (s RequestStatus) InFlight() bool {
	return s == StatusPending || s == StatusProcessing
}

// RequestType classifies what approval has to create.
type RequestType string

const (
	RequestNewPersonNewUnit           RequestType = "new_person_new_unit"
	RequestExistingPersonNewUnit      RequestType = "existing_person_new_unit"
	RequestNewPersonExistingUnit      RequestType = "new_person_existing_unit"
	RequestExistingPersonExistingUnit RequestType = "existing_person_existing_unit"
)

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	switch t {
	case RequestNewPersonNewUnit, RequestExistingPersonNewUnit,
		RequestNewPersonExistingUnit, RequestExistingPersonExistingUnit:
		return true
	}
	return false
}

const (
	StorePhaseImplantation = "implantacao"
	StorePhaseOperation    = "operacao"
)

// OnboardingRequest is one submission waiting for, or past, review.
type OnboardingRequest struct {
	ID               string        `json:"id"`
	TrackingNumber   string        `json:"trackingNumber"`
	FormData         FormData      `json:"formData"`
	FranchiseeTaxID  string        `json:"franchiseeTaxId,omitempty"`
	FranchiseeEmail  string        `json:"franchiseeEmail,omitempty"`
	UnitCode         int           `json:"unitCode"`
	FranchiseeExists bool          `json:"franchiseeExists"`
	FranchiseeID     string        `json:"franchiseeId,omitempty"`
	UnitExists       bool          `json:"unitExists"`
	UnitID           string        `json:"unitId,omitempty"`
	Status           RequestStatus `json:"status"`
	RequestType      RequestType   `json:"requestType"`
	ReviewedBy       string        `json:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time    `json:"reviewedAt,omitempty"`
	RejectionReason  string        `json:"rejectionReason,omitempty"`
	IPAddress        string        `json:"ipAddress,omitempty"`
	UserAgent        string        `json:"userAgent,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Address is shared by persons and units.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	UF           string `json:"uf"`
	PostalCode   string `json:"postalCode"`
}

// Franchisee is a person who owns or co-owns units.
type Franchisee struct {
	ID                          string          `json:"id"`
	TaxID                       string          `json:"taxId"`
	FullName                    string          `json:"fullName"`
	BirthDate                   string          `json:"birthDate,omitempty"`
	Email                       string          `json:"email,omitempty"`
	Phone                       string          `json:"phone,omitempty"`
	Nationality                 string          `json:"nationality,omitempty"`
	OwnerType                   string          `json:"ownerType,omitempty"`
	Education                   string          `json:"education,omitempty"`
	PreviousProfession          string          `json:"previousProfession,omitempty"`
	PreviousSalaryRange         string          `json:"previousSalaryRange,omitempty"`
	WasEntrepreneur             bool            `json:"wasEntrepreneur"`
	Availability                string          `json:"availability,omitempty"`
	DiscoverySource             string          `json:"discoverySource,omitempty"`
	WasReferred                 bool            `json:"wasReferred"`
	ReferrerName                string          `json:"referrerName,omitempty"`
	ReferrerUnitCode            string          `json:"referrerUnitCode,omitempty"`
	HasOtherActivities          bool            `json:"hasOtherActivities"`
	OtherActivitiesDescription  string          `json:"otherActivitiesDescription,omitempty"`
	ReceivesProlabore           bool            `json:"receivesProlabore"`
	ProlaboreValue              decimal.Decimal `json:"prolaboreValue"`
	ProfileImage                string          `json:"profileImage,omitempty"`
	Instagram                   string          `json:"instagram,omitempty"`
	Address                     Address         `json:"address"`
	SystemTermAccepted          bool            `json:"systemTermAccepted"`
	ConfidentialityTermAccepted bool            `json:"confidentialityTermAccepted"`
	LGPDTermAccepted            bool            `json:"lgpdTermAccepted"`
	IsInContract                bool            `json:"isInContract"`
	IsActiveSystem              bool            `json:"isActiveSystem"`
}

// OperatingHours holds free-text opening hours per weekday and holidays.
type OperatingHours struct {
	Mon string `json:"mon,omitempty"`
	Tue string `json:"tue,omitempty"`
	Wed string `json:"wed,omitempty"`
	Thu string `json:"thu,omitempty"`
	Fri string `json:"fri,omitempty"`
	Sat string `json:"sat,omitempty"`
	Sun string `json:"sun,omitempty"`
	Hol string `json:"hol,omitempty"`
}

// Unit is a franchise location, keyed by its group code.
type Unit struct {
	ID                    string         `json:"id"`
	GroupCode             int            `json:"groupCode"`
	GroupName             string         `json:"groupName"`
	RegistryID            string         `json:"registryId,omitempty"`
	FantasyName           string         `json:"fantasyName,omitempty"`
	StoreModel            string         `json:"storeModel,omitempty"`
	StorePhase            string         `json:"storePhase,omitempty"`
	StoreImpPhase         string         `json:"storeImpPhase,omitempty"`
	Email                 string         `json:"email,omitempty"`
	Phone                 string         `json:"phone,omitempty"`
	InstagramProfile      string         `json:"instagramProfile,omitempty"`
	Address               Address        `json:"address"`
	Hours                 OperatingHours `json:"hours"`
	HasParking            bool           `json:"hasParking"`
	ParkingSpots          int            `json:"parkingSpots"`
	HasPartnerParking     bool           `json:"hasPartnerParking"`
	PartnerParkingAddress string         `json:"partnerParkingAddress,omitempty"`
	PurchasesActive       bool           `json:"purchasesActive"`
	SalesActive           bool           `json:"salesActive"`
	IsActive              bool           `json:"isActive"`
}

// Link associates one franchisee with one unit.
type Link struct {
	ID           string    `json:"id"`
	FranchiseeID string    `json:"franchiseeId"`
	UnitID       string    `json:"unitId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LegacyUnit is a row of the read-only catalog of valid group codes.
type LegacyUnit struct {
	GroupCode int    `json:"groupCode"`
	GroupName string `json:"groupName"`
	City      string `json:"city,omitempty"`
	UF        string `json:"uf,omitempty"`
}

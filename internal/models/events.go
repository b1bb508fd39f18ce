package models

// FranchiseeCreated is announced after a person row is inserted, so that
// downstream automation can provision system access.
type FranchiseeCreated struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	TaxID    string `json:"taxId"`
	UnitCode string `json:"unitCode"`
}

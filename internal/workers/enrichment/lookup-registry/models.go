package lookupregistry

import "encoding/json"

const (
	TypeCPF  = "cpf"
	TypeCNPJ = "cnpj"
	TypeCEP  = "cep"
)

type Input struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Output is either {success:true, data} or {success:false, error}.
type Output struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorCode string          `json:"errorCode,omitempty"`
	Cached    bool            `json:"cached,omitempty"`
	Stub      bool            `json:"stub,omitempty"`
}

// Person is the tax id registry result.
type Person struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
}

// Company is the company registry result.
type Company struct {
	DisplayName  string `json:"displayName"`
	LegalName    string `json:"legalName"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	PostalCode   string `json:"postalCode"`
	City         string `json:"city"`
	Region       string `json:"region"`
}

// Address is the postal code result.
type Address struct {
	Street       string `json:"street"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	Region       string `json:"region"`
	PostalCode   string `json:"postalCode"`
}

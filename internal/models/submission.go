// internal/models/submission.go
package models

import (
	"encoding/json"
	"fmt"
)

// Actions accepted by the submission entry point.
const (
	ActionSubmitForm    = "submitForm"
	ActionSubmitNewUnit = "submitNewUnit"
)

// RequestMeta is the client information recorded with a request.
type RequestMeta struct {
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// Submission is one of NewRegistration, LinkToExistingUnit or
// NewUnitForFranchisee.
type Submission interface {
	Form() FormData
	Meta() RequestMeta
	isSubmission()
}

// NewRegistration is the regular wizard submission that goes to review.
type NewRegistration struct {
	Data   FormData
	Client RequestMeta
}

// LinkToExistingUnit adds a co-owner to an already approved unit.
type LinkToExistingUnit struct {
	Data   FormData
	UnitID string
	Client RequestMeta
}

// NewUnitForFranchisee is an existing franchisee registering another unit.
type NewUnitForFranchisee struct {
	Data         FormData
	FranchiseeID string
	Client       RequestMeta
}

func (s NewRegistration) Form() FormData    { return s.Data }
func (s NewRegistration) Meta() RequestMeta { return s.Client }
func (NewRegistration) isSubmission()       {}

func (s LinkToExistingUnit) Form() FormData    { return s.Data }
func (s LinkToExistingUnit) Meta() RequestMeta { return s.Client }
func (LinkToExistingUnit) isSubmission()       {}

func (s NewUnitForFranchisee) Form() FormData    { return s.Data }
func (s NewUnitForFranchisee) Meta() RequestMeta { return s.Client }
func (NewUnitForFranchisee) isSubmission()       {}

// SubmissionEnvelope is the raw body posted by the wizard.
type SubmissionEnvelope struct {
	Action   string          `json:"action"`
	FormData json.RawMessage `json:"formData"`
}

type controlFlags struct {
	LinkingExistingUnit bool   `json:"_linking_existing_unit"`
	ExistingUnitID      string `json:"_existing_unit_id"`
	FranchiseeID        string `json:"franchiseeId"`
}

// ErrUnknownAction is returned for actions other than submitForm and submitNewUnit.
var ErrUnknownAction = fmt.Errorf("unknown submission action")

// DecodeSubmission turns the envelope into its concrete variant. Control flags
// embedded in formData select the variant and are not kept in FormData.
func DecodeSubmission(env SubmissionEnvelope, meta RequestMeta) (Submission, error) {
	if len(env.FormData) == 0 {
		return nil, fmt.Errorf("formData is required")
	}

	var data FormData
	if err := json.Unmarshal(env.FormData, &data); err != nil {
		return nil, fmt.Errorf("invalid formData: %w", err)
	}
	var flags controlFlags
	if err := json.Unmarshal(env.FormData, &flags); err != nil {
		return nil, fmt.Errorf("invalid formData: %w", err)
	}

	switch env.Action {
	case ActionSubmitForm:
		if flags.LinkingExistingUnit && flags.ExistingUnitID != "" {
			return LinkToExistingUnit{Data: data, UnitID: flags.ExistingUnitID, Client: meta}, nil
		}
		return NewRegistration{Data: data, Client: meta}, nil
	case ActionSubmitNewUnit:
		return NewUnitForFranchisee{Data: data, FranchiseeID: flags.FranchiseeID, Client: meta}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Action)
	}
}

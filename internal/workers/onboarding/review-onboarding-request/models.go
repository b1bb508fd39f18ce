// internal/workers/onboarding/review-onboarding-request/models.go
package reviewonboardingrequest

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type Input struct {
	RequestID       string `json:"requestId"`
	Action          string `json:"action"`
	RejectionReason string `json:"rejectionReason,omitempty"`
	ReviewerID      string `json:"reviewerId,omitempty"`
}

type Output struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	RequestNumber string `json:"requestNumber"`
	Status        string `json:"status"`
	FranchiseeID  string `json:"franchiseeId,omitempty"`
	UnitID        string `json:"unitId,omitempty"`
}

// internal/workers/onboarding/submit-onboarding/models.go
package submitonboarding

import "encoding/json"

// Input is the wizard envelope plus the client metadata captured by the
// transport.
type Input struct {
	Action    string          `json:"action"`
	FormData  json.RawMessage `json:"formData"`
	IPAddress string          `json:"ipAddress,omitempty"`
	UserAgent string          `json:"userAgent,omitempty"`
}

type Output struct {
	Success        bool   `json:"success"`
	RequestID      string `json:"requestId,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	RequestType    string `json:"requestType,omitempty"`
	Message        string `json:"message"`
	NeedsApproval  bool   `json:"needsApproval"`
	EstimatedTime  string `json:"estimatedTime,omitempty"`
	FranchiseeID   string `json:"franchiseeId,omitempty"`
	UnitID         string `json:"unitId,omitempty"`
}

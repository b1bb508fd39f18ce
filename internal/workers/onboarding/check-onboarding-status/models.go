// internal/workers/onboarding/check-onboarding-status/models.go
package checkonboardingstatus

import "time"

type Input struct {
	TrackingNumber string `json:"trackingNumber"`
}

// Output is the public view of a request. Form data and client metadata are
// never exposed here.
type Output struct {
	TrackingNumber  string     `json:"trackingNumber"`
	Status          string     `json:"status"`
	RequestType     string     `json:"requestType"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

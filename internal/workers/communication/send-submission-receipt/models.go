package sendsubmissionreceipt

type Input struct {
	TrackingNumber string `json:"trackingNumber"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	RequestType    string `json:"requestType"`
}

type Output struct {
	Sent      bool   `json:"sent"`
	Skipped   string `json:"skipped,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

const (
	skippedDisabled = "disabled"
	skippedNoEmail  = "no_email"
)

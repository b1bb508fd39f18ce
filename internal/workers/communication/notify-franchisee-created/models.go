package notifyfranchiseecreated

import "encoding/json"

const EventType = "franchisee.created"

// Input is forwarded to the webhook as is.
type Input struct {
	TaxID    string `json:"cpf"`
	Name     string `json:"nome"`
	Phone    string `json:"telefone"`
	ID       string `json:"id"`
	UnitCode string `json:"codigo_unidade"`
}

type Output struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	WebhookStatus   int             `json:"webhookStatus"`
	WebhookResponse json.RawMessage `json:"webhookResponse,omitempty"`
	EventMessageID  string          `json:"eventMessageId,omitempty"`
}

var requiredFields = []string{"cpf", "nome", "telefone", "id", "codigo_unidade"}

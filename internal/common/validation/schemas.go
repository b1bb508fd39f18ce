package validation

// SubmissionSchema covers the outer envelope of the wizard submission. The
// form itself is checked field by field by the submission worker.
func SubmissionSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"action": {
				Type: "string",
				Enum: []string{"submitForm", "submitNewUnit"},
			},
			"formData": {
				Type: "object",
			},
		},
		Required: []string{"action", "formData"},
	}
}

func ReviewSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"requestId": {
				Type:      "string",
				MinLength: intPtr(1),
			},
			"action": {
				Type: "string",
				Enum: []string{"approve", "reject"},
			},
			"rejectionReason": {Type: []string{"string", "null"}},
			"reviewerId":      {Type: []string{"string", "null"}},
		},
		Required: []string{"requestId", "action"},
	}
}

func LookupSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"type": {
				Type: "string",
				Enum: []string{"cpf", "cnpj", "cep"},
			},
			"value": {
				Type:      "string",
				MinLength: intPtr(1),
				MaxLength: intPtr(32),
			},
		},
		Required: []string{"type", "value"},
	}
}

// FranchiseeCreatedSchema is the payload forwarded to the workflow webhook.
func FranchiseeCreatedSchema() JSONSchema {
	nonEmpty := Property{Type: "string", MinLength: intPtr(1)}
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"cpf":            nonEmpty,
			"nome":           nonEmpty,
			"telefone":       nonEmpty,
			"id":             nonEmpty,
			"codigo_unidade": nonEmpty,
		},
		Required: []string{"cpf", "nome", "telefone", "id", "codigo_unidade"},
	}
}

func LegacySearchSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"query": {Type: "string"},
			"limit": {
				Type:    "integer",
				Minimum: floatPtr(1),
				Maximum: floatPtr(50),
			},
		},
		Required:             []string{"query"},
		AdditionalProperties: boolPtr(false),
	}
}

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Review(t *testing.T) {
	tests := []struct {
		name  string
		doc   map[string]interface{}
		valid bool
		field string
	}{
		{
			name:  "approve",
			doc:   map[string]interface{}{"requestId": "abc", "action": "approve"},
			valid: true,
		},
		{
			name:  "reject with null reviewer",
			doc:   map[string]interface{}{"requestId": "abc", "action": "reject", "rejectionReason": "x", "reviewerId": nil},
			valid: true,
		},
		{
			name:  "unknown action",
			doc:   map[string]interface{}{"requestId": "abc", "action": "archive"},
			field: "action",
		},
		{
			name:  "missing request id",
			doc:   map[string]interface{}{"action": "approve"},
			field: "requestId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Validate(tt.doc, ReviewSchema())
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			if !tt.valid {
				require.NotEmpty(t, res.Errors)
				assert.Contains(t, res.Summary(), tt.field)
			}
		})
	}
}

func TestValidateJSON_Lookup(t *testing.T) {
	res, err := ValidateJSON([]byte(`{"type":"cnpj","value":"11.222.333/0001-81"}`), LookupSchema())
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = ValidateJSON([]byte(`{"type":"rg","value":"1"}`), LookupSchema())
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = ValidateJSON([]byte(`{not json`), LookupSchema())
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "INVALID_JSON", res.Errors[0].Code)
}

func TestValidate_FranchiseeCreatedRequiresAllFields(t *testing.T) {
	res, err := Validate(map[string]interface{}{
		"cpf": "12345678901", "nome": "Maria", "telefone": "", "id": "f-1",
	}, FranchiseeCreatedSchema())
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Summary(), "telefone")
	assert.Contains(t, res.Summary(), "codigo_unidade")
}

func TestValidate_LegacySearchLimit(t *testing.T) {
	res, err := Validate(map[string]interface{}{"query": "cen", "limit": 51}, LegacySearchSchema())
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

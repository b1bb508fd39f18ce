package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"franchise-onboarding/internal/models"
)

func TestDigits(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"masked cpf", "123.456.789-09", "12345678909"},
		{"masked cnpj", "12.345.678/0001-90", "12345678000190"},
		{"phone", "(11) 98765-4321", "11987654321"},
		{"cep", "01310-100", "01310100"},
		{"empty", "", ""},
		{"garbage", "abc-/.", ""},
		{"unicode digits ignored", "１２3", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Digits(tt.input))
		})
	}
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"cents only", "5", "0.05"},
		{"masked", "R$ 1.234,56", "1234.56"},
		{"plain digits", "150000", "1500"},
		{"leading zeros", "000123", "1.23"},
		{"empty", "", "0"},
		{"garbage", "abc", "0"},
		{"at ceiling", "1000000000", "10000000"},
		{"above ceiling", "1000000001", "10000000"},
		{"absurdly long", "99999999999999999999999", "10000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := decimal.RequireFromString(tt.want)
			got := Currency(tt.input)
			assert.True(t, want.Equal(got), "want %s got %s", want, got)
		})
	}
}

func TestCurrency_RoundTrip(t *testing.T) {
	values := []string{"0", "0.01", "0.10", "1", "999.99", "1234.56", "100000", "9999999.99", "10000000"}
	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			x := decimal.RequireFromString(v)
			formatted := FormatCurrency(x)
			assert.True(t, x.Equal(Currency(formatted)), "round trip of %s via %q", v, formatted)
			// formatting is idempotent through a parse
			assert.Equal(t, formatted, FormatCurrency(Currency(formatted)))
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "R$ 0,00", FormatCurrency(decimal.Zero))
	assert.Equal(t, "R$ 1.234,56", FormatCurrency(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "R$ 999,90", FormatCurrency(decimal.RequireFromString("999.9")))
	assert.Equal(t, "R$ 10.000.000,00", FormatCurrency(decimal.RequireFromString("25000000")))
	assert.Equal(t, "R$ 0,00", FormatCurrency(decimal.RequireFromString("-3")))
}

func TestUF(t *testing.T) {
	assert.Equal(t, "SP", UF("sp"))
	assert.Equal(t, "RJ", UF(" rj "))
	assert.Equal(t, "MG", UF("MGX"))
	assert.Equal(t, "", UF("12"))
}

func TestBirthDate(t *testing.T) {
	assert.Equal(t, "1985-03-15", BirthDate("15/03/1985"))
	assert.Equal(t, "1985-03-15", BirthDate("1985-03-15"))
	assert.Equal(t, "", BirthDate("  "))
	assert.Equal(t, "1/3/85", BirthDate("1/3/85"))
	assert.Equal(t, "aa/bb/cccc", BirthDate("aa/bb/cccc"))
}

func TestForm(t *testing.T) {
	raw := models.FormData{
		TaxID:          "123.456.789-09",
		FullName:       "  Maria Souza ",
		BirthDate:      "01/02/1990",
		Email:          " Maria@Example.COM ",
		Contact:        "(11) 91234-5678",
		ProlaboreValue: decimal.RequireFromString("20000000"),
		RegistryID:     "12.345.678/0001-90",
		UnitPhone:      "(11) 3333-4444",
		UnitPostalCode: "01310-100",
		UnitUF:         "sp",
		ParkingSpots:   -2,
	}

	got := Form(raw)

	assert.Equal(t, "12345678909", got.TaxID)
	assert.Equal(t, "Maria Souza", got.FullName)
	assert.Equal(t, "1990-02-01", got.BirthDate)
	assert.Equal(t, "maria@example.com", got.Email)
	assert.Equal(t, "11912345678", got.Contact)
	assert.True(t, MaxCurrency.Equal(got.ProlaboreValue))
	assert.Equal(t, "12345678000190", got.RegistryID)
	assert.Equal(t, "1133334444", got.UnitPhone)
	assert.Equal(t, "01310100", got.UnitPostalCode)
	assert.Equal(t, "SP", got.UnitUF)
	assert.Equal(t, 0, got.ParkingSpots)

	// input is left untouched
	assert.Equal(t, "123.456.789-09", raw.TaxID)

	// normalizing twice changes nothing
	assert.Equal(t, got, Form(got))
}

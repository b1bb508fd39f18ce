// Package normalize cleans user-entered identifiers, phones, postal codes and
// money amounts. Every function is total: garbage in yields "" or zero.
package normalize

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"franchise-onboarding/internal/models"
)

// MaxCurrency is the ceiling applied to parsed money amounts.
var MaxCurrency = decimal.NewFromInt(10_000_000)

// maxCurrencyDigits bounds the digit string handed to decimal; anything longer
// is already above MaxCurrency.
const maxCurrencyDigits = 12

// Lengths of the Brazilian identifiers after cleaning.
const (
	TaxIDLength      = 11
	RegistryIDLength = 14
	PostalCodeLength = 8
)

// Digits strips every non-digit character.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TaxID cleans a CPF/RNM.
func TaxID(s string) string { return Digits(s) }

// RegistryID cleans a CNPJ.
func RegistryID(s string) string { return Digits(s) }

// PostalCode cleans a CEP.
func PostalCode(s string) string { return Digits(s) }

// Phone cleans a phone number.
func Phone(s string) string { return Digits(s) }

// UF returns a two-letter upper-case region code, or "" when s has no letters.
func UF(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() == 2 {
				break
			}
		}
	}
	return b.String()
}

// Currency reads the digits of s as an amount whose last two digits are cents.
// The result is clamped to [0, MaxCurrency].
func Currency(s string) decimal.Decimal {
	digits := strings.TrimLeft(Digits(s), "0")
	if digits == "" {
		return decimal.Zero
	}
	if len(digits) > maxCurrencyDigits {
		return MaxCurrency
	}
	cents, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero
	}
	return ClampCurrency(cents.Shift(-2))
}

// ClampCurrency rounds to cents and bounds d to [0, MaxCurrency].
func ClampCurrency(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		d = decimal.Zero
	}
	if d.GreaterThan(MaxCurrency) {
		d = MaxCurrency
	}
	return d.Round(2)
}

// FormatCurrency renders d as "R$ 1.234,56".
func FormatCurrency(d decimal.Decimal) string {
	d = ClampCurrency(d)
	fixed := d.StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]

	var b strings.Builder
	b.WriteString("R$ ")
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// BirthDate converts DD/MM/YYYY to YYYY-MM-DD. ISO dates pass through;
// anything else is returned trimmed.
func BirthDate(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "/")
	if len(parts) != 3 || len(parts[0]) != 2 || len(parts[1]) != 2 || len(parts[2]) != 4 {
		return s
	}
	for _, p := range parts {
		if Digits(p) != p {
			return s
		}
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

// Form returns a normalized copy of f.
func Form(f models.FormData) models.FormData {
	return f.Update(func(n *models.FormData) {
		n.TaxID = TaxID(n.TaxID)
		n.FullName = strings.TrimSpace(n.FullName)
		n.BirthDate = BirthDate(n.BirthDate)
		n.Email = strings.ToLower(strings.TrimSpace(n.Email))
		n.Contact = Phone(n.Contact)
		n.ProlaboreValue = ClampCurrency(n.ProlaboreValue)
		n.FranchiseePostalCode = PostalCode(n.FranchiseePostalCode)
		n.FranchiseeUF = UF(n.FranchiseeUF)

		n.RegistryID = RegistryID(n.RegistryID)
		n.UnitPhone = Phone(n.UnitPhone)
		n.UnitEmail = strings.ToLower(strings.TrimSpace(n.UnitEmail))
		n.UnitPostalCode = PostalCode(n.UnitPostalCode)
		n.UnitUF = UF(n.UnitUF)
		n.PartnerParkingAddress = strings.TrimSpace(n.PartnerParkingAddress)
		if n.ParkingSpots < 0 {
			n.ParkingSpots = 0
		}
	})
}

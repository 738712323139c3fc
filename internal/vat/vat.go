// Package vat maps VAT treatment categories to rates and computes the tax
// amount on an invoice subtotal.
package vat

import (
	"github.com/lexbill/lexbill/internal/shared"
)

// Type enumerates the VAT treatment categories an invoice may carry.
type Type string

const (
	TypeNone   Type = "none"
	TypeExempt Type = "exempt"
	TypeZero   Type = "vat0"
	TypeTen    Type = "vat10"
	TypeTwenty Type = "vat20"
)

// rates is the authoritative rate table. Categories outside it (the legacy
// UI once offered a "vat22" option with no backing rate) are rejected at
// validation rather than silently mapped to an existing rate.
var rates = map[Type]float64{
	TypeNone:   0,
	TypeExempt: 0,
	TypeZero:   0,
	TypeTen:    0.10,
	TypeTwenty: 0.20,
}

// Parse validates a raw VAT category string.
func Parse(raw string) (Type, error) {
	vt := Type(raw)
	if _, ok := rates[vt]; !ok {
		return "", &shared.ValidationError{Field: "vat_type", Reason: "unsupported VAT category " + raw}
	}
	return vt, nil
}

// Valid reports whether the category is in the rate table.
func (t Type) Valid() bool {
	_, ok := rates[t]
	return ok
}

// Rate returns the tax rate for the category. Unknown categories return 0;
// they are filtered out earlier by Parse.
func (t Type) Rate() float64 {
	return rates[t]
}

// Compute returns the tax amount for a subtotal, rounded half-up to 2
// decimal places.
func Compute(subtotal float64, vt Type) (float64, error) {
	if !vt.Valid() {
		return 0, &shared.ValidationError{Field: "vat_type", Reason: "unsupported VAT category " + string(vt)}
	}
	return shared.RoundMoney(subtotal * vt.Rate()), nil
}

// Label returns the display label of the category. Exempt and zero-rated
// both yield zero tax but read differently on the printed invoice.
func (t Type) Label() string {
	switch t {
	case TypeNone:
		return "No VAT"
	case TypeExempt:
		return "VAT exempt"
	case TypeZero:
		return "VAT 0%"
	case TypeTen:
		return "VAT 10%"
	case TypeTwenty:
		return "VAT 20%"
	default:
		return string(t)
	}
}

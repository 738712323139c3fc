// Package profiles manages the billing-party profiles whose defaults
// (rate, currency, VAT treatment) the invoice engine consumes.
package profiles

import (
	"time"

	"github.com/lexbill/lexbill/internal/vat"
)

// Kind determines which bank details a profile must carry.
type Kind string

const (
	// KindRU profiles bill with domestic bank details (INN/BIK/accounts).
	KindRU Kind = "ru"
	// KindEU profiles bill with IBAN/SWIFT details.
	KindEU Kind = "eu"
)

// Profile holds issuer details and billing defaults. Exactly one profile is
// active at a time and is used as the invoice issuer default.
type Profile struct {
	ID          int64  `json:"id"`
	Label       string `json:"label"`
	Kind        Kind   `json:"type"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
	Address     string `json:"address"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`

	// Domestic bank details (ru profiles).
	INN                  string `json:"inn,omitempty"`
	BIK                  string `json:"bik,omitempty"`
	CheckingAccount      string `json:"checking_account,omitempty"`
	CorrespondentAccount string `json:"correspondent_account,omitempty"`

	// International bank details (eu profiles).
	IBAN  string `json:"iban,omitempty"`
	SWIFT string `json:"swift,omitempty"`

	DefaultHourlyRate float64  `json:"default_hourly_rate"`
	DefaultCurrency   string   `json:"default_currency"`
	VatType           vat.Type `json:"vat_type"`
	Language          string   `json:"language"`
	Active            bool     `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

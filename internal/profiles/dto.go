package profiles

// UpsertRequest creates or replaces a profile. Kind-dependent bank fields
// are checked in the service, not by struct tags.
type UpsertRequest struct {
	Label       string `json:"label" validate:"required,max=100"`
	Kind        string `json:"type" validate:"required,oneof=ru eu"`
	FullName    string `json:"full_name" validate:"required,max=255"`
	CompanyName string `json:"company_name" validate:"required,max=255"`
	Address     string `json:"address" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,max=20"`

	INN                  string `json:"inn,omitempty" validate:"omitempty,max=12"`
	BIK                  string `json:"bik,omitempty" validate:"omitempty,len=9"`
	CheckingAccount      string `json:"checking_account,omitempty" validate:"omitempty,max=20"`
	CorrespondentAccount string `json:"correspondent_account,omitempty" validate:"omitempty,max=20"`
	IBAN                 string `json:"iban,omitempty" validate:"omitempty,max=34"`
	SWIFT                string `json:"swift,omitempty" validate:"omitempty,max=11"`

	DefaultHourlyRate float64 `json:"default_hourly_rate" validate:"required,gt=0"`
	DefaultCurrency   string  `json:"default_currency" validate:"required,len=3"`
	VatType           string  `json:"vat_type" validate:"required"`
	Language          string  `json:"language" validate:"required,oneof=ru en"`
}

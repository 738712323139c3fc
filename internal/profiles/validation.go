package profiles

import (
	"strings"

	"github.com/lexbill/lexbill/internal/shared"
	"github.com/lexbill/lexbill/internal/vat"
)

func (s *Service) validate(req UpsertRequest) error {
	if _, err := vat.Parse(req.VatType); err != nil {
		return err
	}
	switch Kind(req.Kind) {
	case KindRU:
		for field, value := range map[string]string{
			"inn":                   req.INN,
			"bik":                   req.BIK,
			"checking_account":      req.CheckingAccount,
			"correspondent_account": req.CorrespondentAccount,
		} {
			if strings.TrimSpace(value) == "" {
				return &shared.ValidationError{Field: field, Reason: "required for ru profiles"}
			}
		}
	case KindEU:
		if strings.TrimSpace(req.IBAN) == "" {
			return &shared.ValidationError{Field: "iban", Reason: "required for eu profiles"}
		}
		if strings.TrimSpace(req.SWIFT) == "" {
			return &shared.ValidationError{Field: "swift", Reason: "required for eu profiles"}
		}
	default:
		return &shared.ValidationError{Field: "type", Reason: "must be ru or eu"}
	}
	return nil
}

// Package clients is the client directory: billing counterparties referenced
// by projects and invoices. Plain key-based storage, no lifecycle rules.
package clients

import "time"

// Client is a billed party, either a person or a company.
type Client struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	ContactPerson *string `json:"contact_person,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Address       *string `json:"address,omitempty"`
	INN           *string `json:"inn,omitempty"`

	// Bank details, optional: the client may be a private person.
	BankName             *string `json:"bank_name,omitempty"`
	BIK                  *string `json:"bik,omitempty"`
	CheckingAccount      *string `json:"checking_account,omitempty"`
	CorrespondentAccount *string `json:"correspondent_account,omitempty"`

	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UpsertRequest creates or replaces a client.
type UpsertRequest struct {
	Name          string  `json:"name" validate:"required,max=255"`
	ContactPerson *string `json:"contact_person,omitempty"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address       *string `json:"address,omitempty"`
	INN           *string `json:"inn,omitempty" validate:"omitempty,max=12"`

	BankName             *string `json:"bank_name,omitempty"`
	BIK                  *string `json:"bik,omitempty" validate:"omitempty,len=9"`
	CheckingAccount      *string `json:"checking_account,omitempty" validate:"omitempty,max=20"`
	CorrespondentAccount *string `json:"correspondent_account,omitempty" validate:"omitempty,max=20"`

	Notes *string `json:"notes,omitempty"`
}

// ListFilter narrows and paginates client listings.
type ListFilter struct {
	Search string
	Page   int
	Size   int
}

// Package projects is the project directory. A project supplies the rate
// and currency basis for the monetary value of its time entries.
package projects

import "time"

// Status enumerates project statuses.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Project belongs to a client and optionally carries its own hourly rate;
// a nil rate means "use the active profile's default".
type Project struct {
	ID          int64     `json:"id"`
	ClientID    int64     `json:"client_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	HourlyRate  *float64  `json:"hourly_rate,omitempty"`
	Currency    string    `json:"currency"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Stats aggregates a project's hours by billing state. Hours are decimal
// strings to match the rest of the reporting surface.
type Stats struct {
	TotalHours     string `json:"total_hours"`
	ConfirmedHours string `json:"confirmed_hours"`
	UnbilledHours  string `json:"unbilled_hours"`
}

// Detail is a project with its aggregated stats.
type Detail struct {
	Project
	Stats Stats `json:"stats"`
}

// UpsertRequest creates or replaces a project.
type UpsertRequest struct {
	ClientID    int64    `json:"client_id" validate:"required,gt=0"`
	Name        string   `json:"name" validate:"required,max=255"`
	Description *string  `json:"description,omitempty"`
	HourlyRate  *float64 `json:"hourly_rate,omitempty" validate:"omitempty,gt=0"`
	Currency    string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Status      Status   `json:"status,omitempty" validate:"omitempty,oneof=active paused completed"`
}

// ListFilter narrows and paginates project listings.
type ListFilter struct {
	ClientID *int64
	Status   *Status
	Page     int
	Size     int
}

// Package fx fetches daily exchange rates, caches them per calendar day and
// converts amounts between currencies.
package fx

// Currency is an ISO 4217 currency code.
type Currency string

const (
	RUB Currency = "RUB"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// DateLayout is the calendar-day key format used by the rate cache.
const DateLayout = "2006-01-02"

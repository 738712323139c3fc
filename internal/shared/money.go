package shared

import (
	"math"
	"strconv"
)

// RoundMoney rounds an amount to 2 decimal places using round-half-up.
// All monetary totals in the system go through this single function so
// subtotal, tax and total stay mutually consistent.
func RoundMoney(amount float64) float64 {
	return math.Floor(amount*100+0.5) / 100
}

// RoundHours rounds a duration to the 0.1h granularity used by time entries.
func RoundHours(hours float64) float64 {
	return math.Floor(hours*10+0.5) / 10
}

// MoneyString renders an amount as a fixed 2-decimal string. Listing and
// report payloads carry money this way to avoid floating-point display drift.
func MoneyString(amount float64) string {
	return strconv.FormatFloat(RoundMoney(amount), 'f', 2, 64)
}

// HoursString renders a duration with the 0.1h granularity.
func HoursString(hours float64) string {
	return strconv.FormatFloat(RoundHours(hours), 'f', 1, 64)
}

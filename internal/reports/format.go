package reports

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var currencySymbols = map[string]string{
	"RUB": "₽",
	"USD": "$",
	"EUR": "€",
}

// FormatMoney renders an amount with locale-aware digit grouping in the
// profile's language, e.g. "1 234,50 ₽" for ru and "$1,234.50" for en.
func FormatMoney(amount float64, currencyCode, lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	formatted := p.Sprint(number.Decimal(amount, number.MinFractionDigits(2), number.MaxFractionDigits(2)))

	symbol, ok := currencySymbols[currencyCode]
	if !ok {
		symbol = currencyCode
	}
	// Russian convention puts the symbol after the amount.
	if strings.HasPrefix(lang, "ru") {
		return formatted + " " + symbol
	}
	return symbol + formatted
}

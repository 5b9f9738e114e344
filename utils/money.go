// utils/money.go
package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders a dollar amount with grouping, e.g. "$12,500.00".
func FormatMoney(amount float64) string {
	return moneyPrinter.Sprintf("$%.2f", amount)
}

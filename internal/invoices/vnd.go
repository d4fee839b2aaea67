package invoices

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var vndPrinter = message.NewPrinter(language.Vietnamese)

// FormatVND renders an amount with Vietnamese digit grouping and the dong
// sign, e.g. 1234567.89 becomes "1.234.568 ₫". Amounts are rounded to whole
// dong for display.
func FormatVND(amount float64) string {
	return vndPrinter.Sprintf("%v ₫", number.Decimal(amount, number.MaxFractionDigits(0)))
}

// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// currencySymbols maps ISO currency codes to their display symbols.
var currencySymbols = map[string]string{
	"USD": "$",
	"PKR": "Rs.",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"JPY": "¥",
	"CNY": "¥",
	"AUD": "A$",
	"CAD": "C$",
	"CHF": "CHF",
	"AED": "د.إ",
	"SAR": "﷼",
}

// spacedCurrencies are the codes whose symbol is separated from the
// amount with a space (Rs. 1,200.00 rather than Rs.1,200.00).
var spacedCurrencies = map[string]bool{
	"PKR": true,
	"INR": true,
}

// CurrencySymbol returns the display symbol for an ISO currency code,
// falling back to the code itself.
func CurrencySymbol(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "USD"
	}
	if sym, ok := currencySymbols[code]; ok {
		return sym
	}
	return code
}

// FormatMoney formats an amount with its currency symbol.
// e.g., FormatMoney(1234.5, "USD") -> "$1,234.50"
func FormatMoney(amount float64, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "USD"
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	whole := int64(amount)
	cents := int64(math.Round((amount - float64(whole)) * 100))
	if cents >= 100 {
		whole++
		cents -= 100
	}

	sep := ""
	if spacedCurrencies[code] {
		sep = " "
	}
	return fmt.Sprintf("%s%s%s%s.%02d", sign, CurrencySymbol(code), sep, FormatNumber(whole), cents)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 float as a percentage string.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDate formats a renewal or invoice date for table output.
// Zero dates render as a dash.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("Jan 2, 2006")
}

// FormatDuration formats seconds into a human-readable duration.
// e.g., 3725 -> "1h 2m", 125 -> "2m", 45 -> "45s"
func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// Truncate shortens a string to at most n runes, appending an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

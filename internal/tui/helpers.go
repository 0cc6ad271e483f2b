package tui

import "github.com/shopspring/decimal"

// formatMoney formats an amount as "Rs X,XXX.XX" with comma separators
func formatMoney(prefix string, amount decimal.Decimal) string {
	rounded := amount.Round(2)
	negative := rounded.IsNegative()
	s := rounded.Abs().StringFixed(2)

	// Split at decimal point
	dotPos := len(s) - 3
	intPart := s[:dotPos]
	decPart := s[dotPos:]

	// Add commas to integer part
	result := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}

	sign := ""
	if negative {
		sign = "-"
	}
	if prefix == "" {
		return sign + string(result) + decPart
	}
	return prefix + " " + sign + string(result) + decPart
}

// truncateStr truncates a string to the specified length with ellipsis
func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

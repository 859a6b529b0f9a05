package money

import "strings"

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// Format renders m for display, e.g. "₹2,45,000.00" or "$1,234.50".
// Rupee amounts use lakh/crore grouping.
func Format(m Money) string {
	fixed := m.Amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped string
	if m.Currency == "INR" {
		grouped = groupIndian(intPart)
	} else {
		grouped = groupThousands(intPart)
	}

	prefix, ok := symbols[m.Currency]
	if !ok && m.Currency != "" {
		prefix = m.Currency + " "
	}
	sign := ""
	if m.Amount.IsNegative() {
		sign = "-"
	}
	return sign + prefix + grouped + "." + frac
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func groupIndian(s string) string {
	if len(s) <= 3 {
		return s
	}
	head, last3 := s[:len(s)-3], s[len(s)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(append(parts, last3), ",")
}

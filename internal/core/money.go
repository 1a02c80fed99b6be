// Package core holds the finance domain types shared by the API clients,
// the page controllers and the background worker.
//
// Amounts are shopspring decimals. They travel as plain JSON numbers and are
// displayed in VND with no fraction digits.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount parses a user-entered positive amount.
//
// Whitespace and the "₫" suffix are ignored. Input is read the way FormatVND
// writes it: a dot separates groups of exactly three digits and the comma is
// the only decimal mark.
//
// Examples:
//
//	ParseAmount("150000")    -> 150000, nil
//	ParseAmount("45.000")    -> 45000, nil
//	ParseAmount("1.250.000") -> 1250000, nil
//	ParseAmount("12,5")      -> 12.5, nil
//	ParseAmount("2.50")      -> 0, ErrInvalidAmount
//	ParseAmount("-3")        -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parseNumber(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseOptionalAmount parses a non-negative amount. An empty input yields nil.
func ParseOptionalAmount(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := parseNumber(s)
	if err != nil || d.IsNegative() {
		return nil, ErrInvalidAmount
	}
	return &d, nil
}

func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "₫")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	whole, frac, hasFrac := strings.Cut(s, ",")
	if hasFrac && (frac == "" || strings.Contains(frac, ",") || strings.Contains(frac, ".")) {
		return decimal.Zero, ErrInvalidAmount
	}
	whole, ok := ungroup(whole)
	if !ok {
		return decimal.Zero, ErrInvalidAmount
	}
	if hasFrac {
		whole += "." + frac
	}
	d, err := decimal.NewFromString(whole)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ungroup strips dot thousands separators. Every group after the first must
// have exactly three digits.
func ungroup(s string) (string, bool) {
	if !strings.Contains(s, ".") {
		return s, true
	}
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	groups := strings.Split(s, ".")
	if first := len(groups[0]); first < 1 || first > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	return sign + strings.Join(groups, ""), true
}

// FormatVND renders d rounded to whole dong, e.g. "1.250.000 ₫" or "-50.000 ₫".
func FormatVND(d decimal.Decimal) string {
	rounded := d.Round(0)
	neg := rounded.IsNegative()
	digits := rounded.Abs().StringFixed(0)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteString(" ₫")
	return b.String()
}

// FormatSigned prefixes the magnitude with "- " for expenses and "+ " otherwise.
func FormatSigned(d decimal.Decimal, t TransactionType) string {
	prefix := "+ "
	if t == Expense {
		prefix = "- "
	}
	return prefix + FormatVND(d.Abs())
}

// FormatSignedValue takes the sign from the value itself.
func FormatSignedValue(d decimal.Decimal) string {
	if d.IsNegative() {
		return FormatSigned(d, Expense)
	}
	return FormatSigned(d, Income)
}

// FormatPlain renders d without currency or grouping for form inputs, with a
// decimal comma so that ParseAmount reads it back unchanged.
func FormatPlain(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}

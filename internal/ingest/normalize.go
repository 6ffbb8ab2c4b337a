package ingest

import "strings"

// Normalize reduces an HS code to its digits so that "4804.11.00",
// "4804 11 00" and "48041100" compare equal. Input without digits
// normalizes to "", which matches no reference row.
func Normalize(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCountry canonicalizes an ISO alpha-2 country code.
func NormalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// normalizeName collapses internal whitespace in a product description.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

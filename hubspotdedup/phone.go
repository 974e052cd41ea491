package hubspotdedup

import (
	"slices"
	"strings"
)

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// NormalizeWith1 strips all non-digits and ensures the number starts with a
// single country code "1". Returns an empty string when phone has no digits.
func NormalizeWith1(phone string) string {
	d := digitsOnly(phone)
	if d == "" {
		return ""
	}
	if strings.HasPrefix(d, "1") {
		return d
	}
	return "1" + d
}

// NormalizeWithout1 strips all non-digits and removes one leading "1".
func NormalizeWithout1(phone string) string {
	return strings.TrimPrefix(digitsOnly(phone), "1")
}

// PhoneCandidates returns the ordered search values for a raw phone string:
// the raw value, the form with a leading 1, and the form without it.
// Duplicates and empty forms are dropped.
func PhoneCandidates(phone string) []string {
	if phone == "" {
		return nil
	}

	candidates := []string{phone}
	for _, c := range []string{NormalizeWith1(phone), NormalizeWithout1(phone)} {
		if c == "" || slices.Contains(candidates, c) {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}

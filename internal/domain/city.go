package domain

import "strings"

// NormalizeCity is the form stored in city_norm and used for lookups.
// "  MELBOURNE  " -> "melbourne"
func NormalizeCity(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

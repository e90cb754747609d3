package curtain

import "strings"

// Normalize strips any parenthesized suffix from raw and maps the remainder
// through table. Unmapped values come back stripped but otherwise unchanged.
// A nil table only strips.
func Normalize(raw string, table map[string]string) string {
	trimmed := strings.TrimSpace(raw)
	key := stripSuffix(trimmed)
	if key == "" {
		return trimmed
	}
	if mapped, ok := table[key]; ok {
		return mapped
	}
	return key
}

func stripSuffix(v string) string {
	before, _, _ := strings.Cut(v, "(")
	return strings.TrimSpace(before)
}

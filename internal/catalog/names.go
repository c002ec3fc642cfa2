package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize returns the lookup key for a user supplied item name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Capitalize upper-cases the first rune for display ("tea" -> "Tea").
func Capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

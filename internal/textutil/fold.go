package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldAccents lowercases value and strips combining marks so "Cédula" and
// "cedula" compare equal.
func FoldAccents(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(folded)
}

// TrimEdgePunct removes leading and trailing runes that are neither letters
// nor digits. Interior punctuation is kept.
func TrimEdgePunct(value string) string {
	return strings.TrimFunc(value, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Fields splits value on any run of whitespace.
func Fields(value string) []string {
	return strings.FieldsFunc(value, unicode.IsSpace)
}

// KeepAlnum returns value with every rune that is not an ASCII letter or digit removed.
func KeepAlnum(value string) string {
	return strings.Map(func(r rune) rune {
		if isASCIIAlnum(r) {
			return r
		}
		return -1
	}, value)
}

// KeepDigits returns only the ASCII digits of value.
func KeepDigits(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
}

// IsDigits reports whether value is non-empty and made only of ASCII digits.
func IsDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isASCIIAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

package dictation

import (
	"strings"

	"cuadrilla/internal/textutil"
)

const (
	minNumericLen      = 5
	maxNumericLen      = 12
	minAlphanumericLen = 6
	maxAlphanumericLen = 18
)

// Normalize validates an accumulated identifier buffer. All-digit buffers lose
// their leading zeros and need at least 5 digits, keeping the last 12 when
// longer. Anything else is upper-cased, needs at least 6 characters and keeps
// the first 18. The boolean result is false when the buffer is rejected.
func Normalize(buffer string) (string, bool) {
	id := strings.ToUpper(buffer)
	if textutil.IsDigits(id) {
		return normalizeNumeric(id)
	}
	return normalizeAlphanumeric(id)
}

// NormalizeDocument normalizes an identifier typed or pasted by a person:
// separators such as dots, dashes and spaces are removed before Normalize.
func NormalizeDocument(value string) (string, bool) {
	return Normalize(textutil.KeepAlnum(value))
}

func normalizeNumeric(digits string) (string, bool) {
	digits = strings.TrimLeft(digits, "0")
	if len(digits) < minNumericLen {
		return "", false
	}
	if len(digits) > maxNumericLen {
		digits = digits[len(digits)-maxNumericLen:]
	}
	return digits, true
}

func normalizeAlphanumeric(id string) (string, bool) {
	if len(id) < minAlphanumericLen {
		return "", false
	}
	if len(id) > maxAlphanumericLen {
		id = id[:maxAlphanumericLen]
	}
	return id, true
}

package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName collapses whitespace and title-cases a worker name.
// Names made only of digits and letters without spaces (document IDs used as
// placeholder names) are returned upper-cased instead.
func DisplayName(value string) string {
	parts := strings.Fields(value)
	if len(parts) == 0 {
		return ""
	}
	joined := strings.Join(parts, " ")
	if len(parts) == 1 && KeepAlnum(joined) == joined && strings.ContainsAny(joined, "0123456789") {
		return strings.ToUpper(joined)
	}
	return cases.Title(language.Spanish).String(joined)
}

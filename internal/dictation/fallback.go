package dictation

import (
	"strings"

	"cuadrilla/internal/attendance"
	"cuadrilla/internal/textutil"
)

// Partial is what the fallback extractor could recover from an utterance.
// DocumentID or Status may be empty on their own; Complete reports whether
// both were found.
type Partial struct {
	Keyword    string            `json:"keyword,omitempty"`
	DocumentID string            `json:"documentId,omitempty"`
	Status     attendance.Status `json:"status,omitempty"`
}

// Complete reports whether both halves of a pair were recovered.
func (p Partial) Complete() bool {
	return p.DocumentID != "" && p.Status != ""
}

// Pair converts a complete partial into a Pair.
func (p Partial) Pair() (Pair, bool) {
	if !p.Complete() {
		return Pair{}, false
	}
	return Pair{DocumentID: p.DocumentID, Status: p.Status}, true
}

// Extract recovers at most one pair from an utterance the state machine could
// not parse. The identifier is read from the tokens after the last keyword and
// before the first status word; fillers are ignored. Alphanumeric keywords
// keep letters and digits, every other keyword (or none) keeps digits only.
func Extract(utterance string) Partial {
	tokens := Tokenize(utterance)

	var result Partial
	end := len(tokens)
	for i, tok := range tokens {
		if tok.Kind == KindStatus {
			result.Status = tok.Status
			end = i
			break
		}
	}

	// The governing keyword is the last one in the whole utterance. When it
	// follows the status word the region is everything before the status.
	start := 0
	mode := ModeNumeric
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Kind == KindKeyword {
			result.Keyword = tokens[i].Word
			mode = tokens[i].Mode
			if i < end {
				start = i + 1
			}
			break
		}
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		tok := tokens[i]
		if tok.Kind != KindChunk {
			continue
		}
		sb.WriteString(tok.Chunk)
	}

	region := sb.String()
	if mode == ModeAlphanumeric {
		if id, ok := normalizeAlphanumeric(upperASCII(region)); ok {
			result.DocumentID = id
		}
		return result
	}
	if digits := textutil.KeepDigits(region); digits != "" {
		if id, ok := normalizeNumeric(digits); ok {
			result.DocumentID = id
		}
	}
	return result
}

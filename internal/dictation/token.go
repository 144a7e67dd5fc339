package dictation

import (
	"cuadrilla/internal/attendance"
	"cuadrilla/internal/textutil"
)

// Kind is the grammatical class of a token.
type Kind int

const (
	KindChunk Kind = iota
	KindKeyword
	KindStatus
	KindFiller
)

func (k Kind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindStatus:
		return "status"
	case KindFiller:
		return "filler"
	default:
		return "chunk"
	}
}

// Token is one whitespace-separated word of an utterance after classification.
// Only the fields relevant to Kind are set.
type Token struct {
	Kind Kind
	Raw  string
	// Word is the lower-cased, accent-folded form with edge punctuation trimmed.
	Word   string
	Mode   Mode
	Status attendance.Status
	// Chunk holds the ASCII letters and digits of the token.
	Chunk string
}

// Classify assigns a kind to a single raw token.
func Classify(raw string) Token {
	word := textutil.TrimEdgePunct(textutil.FoldAccents(raw))
	tok := Token{Raw: raw, Word: word}
	if mode, ok := keywords[word]; ok {
		tok.Kind = KindKeyword
		tok.Mode = mode
		return tok
	}
	if status, ok := statusWords[word]; ok {
		tok.Kind = KindStatus
		tok.Status = status
		return tok
	}
	if _, ok := fillers[word]; ok {
		tok.Kind = KindFiller
		return tok
	}
	tok.Kind = KindChunk
	tok.Chunk = textutil.KeepAlnum(textutil.FoldAccents(raw))
	return tok
}

// Tokenize splits utterance on whitespace and classifies every token.
func Tokenize(utterance string) []Token {
	fields := textutil.Fields(utterance)
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, Classify(f))
	}
	return tokens
}

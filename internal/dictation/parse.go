package dictation

// Result is the outcome of parsing one utterance.
type Result struct {
	Pairs []Pair
	// Fallback is set when the state machine found nothing and the single-pair
	// extractor was consulted.
	Fallback bool
	// Partial holds whatever the extractor recovered, complete or not.
	Partial Partial
}

// ParseUtterance runs the state machine over utterance and returns its
// deduplicated pairs.
func ParseUtterance(utterance string) []Pair {
	m := NewMachine()
	for _, tok := range Tokenize(utterance) {
		m.Feed(tok)
	}
	return m.Pairs()
}

// Parse runs the state machine and, when it yields nothing, the single-pair
// fallback extractor.
func Parse(utterance string) Result {
	if pairs := ParseUtterance(utterance); len(pairs) > 0 {
		return Result{Pairs: pairs}
	}
	partial := Extract(utterance)
	result := Result{Fallback: true, Partial: partial}
	if pair, ok := partial.Pair(); ok {
		result.Pairs = []Pair{pair}
	}
	return result
}

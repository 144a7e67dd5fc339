package dictation

import (
	"cuadrilla/internal/attendance"
	"cuadrilla/internal/textutil"
)

const (
	// maxBuffer is the longest identifier buffer kept before trimming.
	maxBuffer = 24
	// trimmedBuffer is how many trailing characters survive a trim.
	trimmedBuffer = 18
	// minCheckDigitPrefix is the shortest digit run a K check digit may follow.
	minCheckDigitPrefix = 6
)

// Pair is one recognized worker identifier with its attendance status.
type Pair struct {
	DocumentID string            `json:"documentId"`
	Status     attendance.Status `json:"status"`
}

// Machine accumulates identifier chunks and emits pairs on status words.
// The zero value is ready to use in numeric mode.
type Machine struct {
	mode  Mode
	buf   string
	pairs []Pair
	index map[string]int
}

// NewMachine returns a machine in numeric mode with an empty buffer.
func NewMachine() *Machine {
	return &Machine{}
}

// Mode reports the current accumulation mode.
func (m *Machine) Mode() Mode { return m.mode }

// Buffer reports the identifier characters accumulated so far.
func (m *Machine) Buffer() string { return m.buf }

// Feed advances the machine by one token.
func (m *Machine) Feed(tok Token) {
	switch tok.Kind {
	case KindKeyword:
		m.buf = ""
		m.mode = tok.Mode
	case KindStatus:
		if m.buf != "" {
			if id, ok := Normalize(m.buf); ok {
				m.emit(Pair{DocumentID: id, Status: tok.Status})
			}
		}
		m.buf = ""
		m.mode = ModeNumeric
	case KindFiller:
	case KindChunk:
		m.accumulate(tok.Chunk)
	}
}

func (m *Machine) accumulate(chunk string) {
	if chunk == "" {
		return
	}
	switch m.mode {
	case ModeNumeric:
		m.buf += textutil.KeepDigits(chunk)
	case ModeCheckDigit:
		switch {
		case textutil.IsDigits(chunk):
			m.buf += chunk
		case (chunk == "k" || chunk == "K") && textutil.IsDigits(m.buf) && len(m.buf) >= minCheckDigitPrefix:
			m.buf += "K"
		}
	case ModeAlphanumeric:
		m.buf += upperASCII(chunk)
	}
	if len(m.buf) > maxBuffer {
		m.buf = m.buf[len(m.buf)-trimmedBuffer:]
	}
}

// emit records p, keeping the first position of an identifier and the
// latest status given for it.
func (m *Machine) emit(p Pair) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[p.DocumentID]; ok {
		m.pairs[i].Status = p.Status
		return
	}
	m.index[p.DocumentID] = len(m.pairs)
	m.pairs = append(m.pairs, p)
}

// Pairs returns the deduplicated pairs emitted so far.
func (m *Machine) Pairs() []Pair {
	return append([]Pair(nil), m.pairs...)
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

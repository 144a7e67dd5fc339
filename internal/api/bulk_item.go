package api

import (
	"bytes"
	"encoding/json"
)

// bulkItemWire mirrors BulkItem with every field left raw so one badly typed
// item cannot fail the decode of the whole batch.
type bulkItemWire struct {
	DocumentID json.RawMessage `json:"documentId"`
	Status     json.RawMessage `json:"status"`
	FullName   json.RawMessage `json:"fullName"`
	Date       json.RawMessage `json:"date"`
	Notes      json.RawMessage `json:"notes"`
}

// UnmarshalJSON accepts documentId as a string or a number. Any other shape
// leaves the item marked malformed instead of returning an error.
func (b *BulkItem) UnmarshalJSON(data []byte) error {
	*b = BulkItem{}
	var wire bulkItemWire
	if err := json.Unmarshal(data, &wire); err != nil {
		b.malformed = "malformed item"
		return nil
	}

	document, ok := scalarText(wire.DocumentID, true)
	if !ok {
		b.malformed = "malformed documentId"
		return nil
	}
	b.DocumentID = document

	fields := []struct {
		raw  json.RawMessage
		dst  *string
		name string
	}{
		{wire.Status, &b.Status, "status"},
		{wire.FullName, &b.FullName, "fullName"},
		{wire.Date, &b.Date, "date"},
		{wire.Notes, &b.Notes, "notes"},
	}
	for _, f := range fields {
		value, ok := scalarText(f.raw, false)
		if !ok {
			b.malformed = "malformed " + f.name
			return nil
		}
		*f.dst = value
	}
	return nil
}

// Malformed reports the decode problem recorded for the item, if any.
func (b BulkItem) Malformed() string {
	return b.malformed
}

// scalarText returns the string value of raw. Absent and null values are
// empty; numbers are kept as their literal text when allowNumber is set.
func scalarText(raw json.RawMessage, allowNumber bool) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", true
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	default:
		if !allowNumber {
			return "", false
		}
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
}

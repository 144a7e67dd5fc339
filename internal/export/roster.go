package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"cuadrilla/internal/textutil"
)

// RosterRow is one worker listed in an imported roster.
type RosterRow struct {
	Line       int
	DocumentID string
	FullName   string
}

var (
	documentHeaders = []string{"documentid", "document", "documento", "doc", "dni", "rut", "cedula", "id"}
	nameHeaders     = []string{"fullname", "name", "nombre", "nombrecompleto"}
)

// ReadRoster parses a CSV or XLSX roster chosen by the filename extension.
// The first row must name a document column and may name a full-name column.
// Rows without a document value are skipped.
func ReadRoster(r io.Reader, filename string) ([]RosterRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err = readWorkbookRows(data)
	default:
		reader := csv.NewReader(bytes.NewReader(data))
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		rows, err = reader.ReadAll()
	}
	if err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", filepath.Base(filename), err)
	}
	if len(rows) == 0 {
		return nil, errors.New("roster is empty")
	}

	docCol := findColumn(rows[0], documentHeaders)
	if docCol < 0 {
		return nil, fmt.Errorf("roster header has no document column (expected one of %s)", strings.Join(documentHeaders, ", "))
	}
	nameCol := findColumn(rows[0], nameHeaders)

	out := make([]RosterRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		doc := cellValue(row, docCol)
		if doc == "" {
			continue
		}
		out = append(out, RosterRow{Line: i + 2, DocumentID: doc, FullName: cellValue(row, nameCol)})
	}
	return out, nil
}

func readWorkbookRows(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	name := file.GetSheetName(0)
	if name == "" {
		return nil, errors.New("no worksheet found")
	}
	return file.GetRows(name)
}

func findColumn(headerRow []string, candidates []string) int {
	for i, h := range headerRow {
		key := textutil.KeepAlnum(textutil.FoldAccents(h))
		for _, c := range candidates {
			if key == c {
				return i
			}
		}
	}
	return -1
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

package export

import (
	"fmt"
	"io"
	"strings"

	"cuadrilla/internal/attendance"
	"cuadrilla/internal/textutil"
)

// Format names a supported spreadsheet encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case; blank means CSV.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv or xlsx)", value)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// header is the column order of every exported sheet.
var header = []string{"documentId", "fullName", "date", "status", "notes"}

// Sheet is one site's attendance for one day.
type Sheet struct {
	SiteID   int64
	SiteName string
	Date     string
	Entries  []attendance.DayEntry
}

// FileName suggests a download name such as "asistencia-obra_norte-2026-03-02.csv".
func (s Sheet) FileName(f Format) string {
	return fmt.Sprintf("asistencia-%s-%s.%s", textutil.SanitizeToken(s.SiteName), s.Date, f)
}

func (s Sheet) rows() [][]string {
	rows := make([][]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		rows = append(rows, []string{e.DocumentID, e.FullName, e.Date, string(e.Status), e.Notes})
	}
	return rows
}

// Write encodes sheet to w in format f.
func Write(w io.Writer, sheet Sheet, f Format) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, sheet)
	case FormatCSV, "":
		return WriteCSV(w, sheet)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

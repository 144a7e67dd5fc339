package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the header row followed by one row per entry.
func WriteCSV(w io.Writer, sheet Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(sheet.rows()); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

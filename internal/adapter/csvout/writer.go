// Package csvout renders an assembled record set as CSV.
package csvout

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/sos-station-harvester/internal/domain"
)

// Write renders the record set to w: a header row of the fixed column list,
// then one row per station in processing order. Absent optional values are
// written as empty cells; every row carries every column.
func Write(w io.Writer, records *domain.RecordSet) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(domain.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records.Records() {
		if err := cw.Write(domain.Row(rec)); err != nil {
			return fmt.Errorf("write row %s: %w", rec.StationURN, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile renders the record set to a file, replacing any existing content.
func WriteFile(path string, records *domain.RecordSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

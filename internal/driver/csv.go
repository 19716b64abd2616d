package driver

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSV scans a single column out of a CSV file, treating an empty field as
// NULL (mapped to an empty value per spec §4.2). It is one of the two
// bundled Scanner implementations the CLI uses in place of a real
// database column (§6 says that boundary is external to the core).
type CSV struct {
	r      io.Reader
	column int
	header bool
}

// NewCSV returns a Scanner over the column at the given 0-based index.
// If header is true, the first row is skipped.
func NewCSV(r io.Reader, column int, header bool) *CSV {
	return &CSV{r: r, column: column, header: header}
}

func (c *CSV) Scan(fn func(Row) error) error {
	reader := csv.NewReader(c.r)
	reader.FieldsPerRecord = -1

	var id uint32
	first := c.header
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("csv: %w", err)
		}
		if first {
			first = false
			continue
		}
		if c.column >= len(record) {
			return fmt.Errorf("csv: row %d has %d columns, want column %d", id, len(record), c.column)
		}
		value := record[c.column]
		var bytesValue []byte
		if value != "" {
			bytesValue = []byte(value)
		}
		if err := fn(Row{RecordID: id, Value: bytesValue}); err != nil {
			return err
		}
		id++
	}
}

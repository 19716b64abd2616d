package driver

import (
	"strings"
	"testing"
)

func TestCSVScanWithHeader(t *testing.T) {
	data := "id,name\n1,alice\n2,bob\n3,\n"
	var rows []Row
	c := NewCSV(strings.NewReader(data), 1, true)
	if err := c.Scan(func(r Row) error {
		rows = append(rows, r)
		return nil
	}); err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if string(rows[0].Value) != "alice" || rows[0].RecordID != 0 {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if string(rows[1].Value) != "bob" || rows[1].RecordID != 1 {
		t.Fatalf("row 1 = %+v", rows[1])
	}
	if rows[2].Value != nil {
		t.Fatalf("empty field should decode to nil Value, got %q", rows[2].Value)
	}
}

func TestCSVScanWithoutHeader(t *testing.T) {
	data := "x,foo\ny,bar\n"
	var rows []Row
	c := NewCSV(strings.NewReader(data), 1, false)
	if err := c.Scan(func(r Row) error {
		rows = append(rows, r)
		return nil
	}); err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if string(rows[0].Value) != "foo" {
		t.Fatalf("row 0 value = %q", rows[0].Value)
	}
}

func TestCSVScanStopsOnCallbackError(t *testing.T) {
	data := "a\nb\nc\n"
	c := NewCSV(strings.NewReader(data), 0, false)
	n := 0
	wantErr := "stop"
	err := c.Scan(func(r Row) error {
		n++
		if n == 2 {
			return errString(wantErr)
		}
		return nil
	})
	if err == nil || err.Error() != wantErr {
		t.Fatalf("err = %v, want %q", err, wantErr)
	}
	if n != 2 {
		t.Fatalf("callback invoked %d times, want 2", n)
	}
}

type errString string

func (e errString) Error() string { return string(e) }

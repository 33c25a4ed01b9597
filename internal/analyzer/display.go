package analyzer

import (
	"fmt"
	"io"
)

// DisplayLimit is how many records Display prints by default.
const DisplayLimit = 10

// Missing is printed in place of an absent optional field.
const Missing = "N/A"

// Display writes one line per record for the first limit records.
func Display(w io.Writer, records []Record, limit int) error {
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	for _, rec := range records[:limit] {
		if _, err := fmt.Fprintln(w, FormatRecord(rec)); err != nil {
			return err
		}
	}
	return nil
}

// NoData is printed when no candidate log exists.
const NoData = "No FIFO log found; no data available"

// Report writes the summary counters of res followed by its first limit
// records.
func Report(w io.Writer, res Result, limit int) error {
	if !res.Found {
		_, err := fmt.Fprintln(w, NoData)
		return err
	}
	s := res.Summary
	if _, err := fmt.Fprintf(w, "Log: %s\n", res.Path); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Records: %d  Writes: %d  Reads: %d  Mismatches: %d  Timing: %d\n",
		s.Total, s.Writes, s.Reads, s.Mismatches, s.Timing); err != nil {
		return err
	}
	return Display(w, res.Records, limit)
}

// FormatRecord renders rec according to its shape.
func FormatRecord(rec Record) string {
	in, hasIn := rec.Get(FieldDataIn)
	out, hasOut := rec.Get(FieldDataOut)
	switch {
	case hasIn && hasOut:
		return fmt.Sprintf("Test: in=%s out=%s (%s -> %s)", in, out, hexForm(in), hexForm(out))
	case hasIn:
		return fmt.Sprintf("Write: data_in=%s (%s) full=%s", in, hexForm(in), optional(rec, FieldFull))
	case hasOut:
		return fmt.Sprintf("Read: data_out=%s (%s) empty=%s", out, hexForm(out), optional(rec, FieldEmpty))
	default:
		return "Record: " + rec.String()
	}
}

func hexForm(v Value) string {
	if !v.IsInt {
		return v.Text
	}
	if v.Int < 0 {
		return fmt.Sprintf("-0x%02X", uint64(-v.Int))
	}
	return fmt.Sprintf("0x%02X", v.Int)
}

func optional(rec Record, key string) string {
	if v, ok := rec.Get(key); ok {
		return v.String()
	}
	return Missing
}

package analyzer

import "strings"

// Summary aggregates a record sequence. Writes and Reads may both count the
// same record.
type Summary struct {
	Total      int `json:"total"`
	Writes     int `json:"writes"`
	Reads      int `json:"reads"`
	Mismatches int `json:"mismatches"`
	Timing     int `json:"timing"`
}

// Summarize computes the summary for records.
func Summarize(records []Record) Summary {
	s := Summary{Total: len(records)}
	for _, rec := range records {
		if rec.Tag == TagWrite || rec.Has(FieldDataIn) {
			s.Writes++
		}
		if rec.Tag == TagRead || rec.Has(FieldDataOut) {
			s.Reads++
		}
		if rec.Mismatch() {
			s.Mismatches++
		}
		if strings.Contains(strings.ToLower(rec.String()), "time") {
			s.Timing++
		}
	}
	return s
}

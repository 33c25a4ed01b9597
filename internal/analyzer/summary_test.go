package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeMatchingPair(t *testing.T) {
	rec, _ := ParseLine("data_in=41 data_out=41")
	s := Summarize([]Record{rec})

	assert.Equal(t, Summary{Total: 1, Writes: 1, Reads: 1}, s)
}

func TestSummarizeMismatch(t *testing.T) {
	rec, _ := ParseLine("data_in=41 data_out=42")
	s := Summarize([]Record{rec})

	assert.Equal(t, 1, s.Mismatches)
}

func TestSummarizeIntVersusTextIsMismatch(t *testing.T) {
	rec, _ := ParseLine("data_in=7 data_out=07x")
	assert.Equal(t, 1, Summarize([]Record{rec}).Mismatches)
}

func TestSummarizeCounts(t *testing.T) {
	lines := []string{
		"Write: data_in=7, full=0",
		"Read: data_out=7, empty=1",
		"Write: full=1",
		"data_in=1 data_out=2 sim_time=40",
		"Read: latency=3, TIMESTAMP=100",
	}
	var records []Record
	for _, line := range lines {
		rec, ok := ParseLine(line)
		if ok {
			records = append(records, rec)
		}
	}

	s := Summarize(records)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 3, s.Writes)
	assert.Equal(t, 3, s.Reads)
	assert.Equal(t, 1, s.Mismatches)
	assert.Equal(t, 2, s.Timing)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}

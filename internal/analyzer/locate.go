package analyzer

import (
	"github.com/llstack/rtlpipe/internal/discovery"
)

// DefaultCandidates is the prioritized list of places a simulation log may be
// found, relative to the project root.
var DefaultCandidates = []string{
	"results/logs/fifo_test.log",
	"results/logs/fifo.log",
	"sim/fifo/fifo_test.log",
	"fifo_test.log",
}

// Locate returns the first candidate that exists. The bool is false when no
// candidate exists, which callers report as "no data available".
func Locate(root string, candidates []string) (string, bool) {
	path, err := discovery.First(root, candidates)
	if err != nil {
		return "", false
	}
	return path, true
}

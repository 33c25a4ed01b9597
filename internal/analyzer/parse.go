package analyzer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrLogNotFound indicates the simulation log could not be opened.
var ErrLogNotFound = errors.New("simulation log not found")

const (
	prefixWrite = "Write:"
	prefixRead  = "Read:"

	maxLineBytes = 1024 * 1024
)

// Parse reads the log at path and returns its records in line order. A file
// that cannot be opened yields no records and an error wrapping ErrLogNotFound.
func Parse(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrLogNotFound, path, err)
	}
	defer f.Close()

	records, err := ParseReader(f)
	if err != nil {
		return records, fmt.Errorf("read %q: %w", path, err)
	}
	return records, nil
}

// ParseReader is Parse over an arbitrary stream. Lines longer than
// maxLineBytes are dropped and parsing resumes on the next line.
func ParseReader(r io.Reader) ([]Record, error) {
	records := make([]Record, 0)
	reader := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	oversized := false
	for {
		chunk, err := reader.ReadSlice('\n')
		if !oversized {
			if len(line)+len(chunk) > maxLineBytes {
				oversized = true
				line = line[:0]
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		if !oversized {
			if rec, ok := ParseLine(strings.TrimRight(string(line), "\r\n")); ok {
				records = append(records, rec)
			}
		}
		line, oversized = line[:0], false

		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
	}
}

// ParseLine applies the two line grammars in order. Lines matching neither,
// and matching lines that yield no fields, are reported as not ok.
func ParseLine(line string) (Record, bool) {
	if strings.TrimSpace(line) == "" {
		return Record{}, false
	}

	if strings.Contains(line, FieldDataIn) && strings.Contains(line, FieldDataOut) {
		rec := parseFieldPairs(line)
		return rec, len(rec.Fields) > 0
	}

	if idx := strings.Index(line, prefixWrite); idx >= 0 {
		return parsePrefixed(TagWrite, line[idx+len(prefixWrite):]), true
	}
	if idx := strings.Index(line, prefixRead); idx >= 0 {
		return parsePrefixed(TagRead, line[idx+len(prefixRead):]), true
	}
	return Record{}, false
}

func parseFieldPairs(line string) Record {
	var rec Record
	for _, token := range strings.Fields(line) {
		key, value, ok := strings.Cut(token, "=")
		if !ok || key == "" {
			continue
		}
		rec.set(key, ParseValue(value))
	}
	return rec
}

func parsePrefixed(tag Tag, rest string) Record {
	rec := Record{Tag: tag}
	for _, segment := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		rec.set(key, ParseValue(strings.TrimSpace(value)))
	}
	return rec
}

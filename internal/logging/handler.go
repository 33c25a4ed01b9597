package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TimeLayout is the timestamp layout of every log line.
const TimeLayout = "2006-01-02 15:04:05"

// lineHandler renders records as "[<ts>] [<LEVEL>] <message> key=value ..."
// and writes each line to all of its writers.
type lineHandler struct {
	mu      *sync.Mutex
	writers []io.Writer
	level   slog.Leveler
	attrs   []slog.Attr
	group   string
	now     func() time.Time
}

func newLineHandler(level slog.Leveler, now func() time.Time, writers ...io.Writer) *lineHandler {
	return &lineHandler{
		mu:      &sync.Mutex{},
		writers: writers,
		level:   level,
		now:     now,
	}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if h.now != nil {
		ts = h.now()
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "[%s] [%s] %s", ts.Format(TimeLayout), r.Level.String(), r.Message)
	for _, a := range h.attrs {
		appendAttr(&buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&buf, h.group, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	line := buf.Bytes()
	var firstErr error
	for _, w := range h.writers {
		if _, err := w.Write(line); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), qualify(h.group, attrs)...)
	return &clone
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}
	return &clone
}

// withWriter returns a handler that also writes to w. The mutex is shared so
// lines never interleave across the derived handlers.
func (h *lineHandler) withWriter(w io.Writer) *lineHandler {
	clone := *h
	clone.writers = append(append([]io.Writer{}, h.writers...), w)
	return &clone
}

func qualify(group string, attrs []slog.Attr) []slog.Attr {
	if group == "" {
		return attrs
	}
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.Attr{Key: group + "." + a.Key, Value: a.Value})
	}
	return out
}

func appendAttr(buf *bytes.Buffer, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, sub := range a.Value.Group() {
			appendAttr(buf, key, sub)
		}
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteByte('=')
	buf.WriteString(quoteIfNeeded(a.Value.String()))
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\r\"=") {
		return strconv.Quote(s)
	}
	return s
}

package analyzer

import (
	"strconv"
	"strings"
)

// Field names with special meaning for classification and display.
const (
	FieldDataIn  = "data_in"
	FieldDataOut = "data_out"
	FieldFull    = "full"
	FieldEmpty   = "empty"
)

// Tag is the prefix-derived type of a record.
type Tag string

const (
	TagNone  Tag = ""
	TagWrite Tag = "write"
	TagRead  Tag = "read"
)

// Shape is the closed set of record layouts consumers switch over.
type Shape int

const (
	ShapeUnclassified Shape = iota
	ShapeWrite
	ShapeRead
	ShapePairedIO
)

func (s Shape) String() string {
	switch s {
	case ShapeWrite:
		return "write"
	case ShapeRead:
		return "read"
	case ShapePairedIO:
		return "paired-io"
	default:
		return "unclassified"
	}
}

// Value is a parsed field value: an integer when the raw text is a base-10
// literal, the raw text otherwise.
type Value struct {
	Int   int64
	Text  string
	IsInt bool
}

// ParseValue applies the integer-then-text fallback.
func ParseValue(raw string) Value {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Value{Int: n, IsInt: true}
	}
	return Value{Text: raw}
}

// IntValue builds an integer value.
func IntValue(n int64) Value {
	return Value{Int: n, IsInt: true}
}

// TextValue builds a text value.
func TextValue(s string) Value {
	return Value{Text: s}
}

func (v Value) String() string {
	if v.IsInt {
		return strconv.FormatInt(v.Int, 10)
	}
	return v.Text
}

// Equal compares kind and content; the integer 7 and the text "7," differ.
func (v Value) Equal(o Value) bool {
	if v.IsInt != o.IsInt {
		return false
	}
	if v.IsInt {
		return v.Int == o.Int
	}
	return v.Text == o.Text
}

// Field is one key=value pair in line order.
type Field struct {
	Key   string
	Value Value
}

// Record is one structured observation extracted from a matched log line.
type Record struct {
	Tag    Tag
	Fields []Field
}

// Get returns the value stored under key.
func (r Record) Get(key string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// set stores key, replacing an earlier value in place.
func (r *Record) set(key string, v Value) {
	for i := range r.Fields {
		if r.Fields[i].Key == key {
			r.Fields[i].Value = v
			return
		}
	}
	r.Fields = append(r.Fields, Field{Key: key, Value: v})
}

// Shape derives the record layout from its field set, falling back to the tag.
func (r Record) Shape() Shape {
	in, out := r.Has(FieldDataIn), r.Has(FieldDataOut)
	switch {
	case in && out:
		return ShapePairedIO
	case in:
		return ShapeWrite
	case out:
		return ShapeRead
	case r.Tag == TagWrite:
		return ShapeWrite
	case r.Tag == TagRead:
		return ShapeRead
	default:
		return ShapeUnclassified
	}
}

// Mismatch reports whether both io fields are present and differ.
func (r Record) Mismatch() bool {
	in, okIn := r.Get(FieldDataIn)
	out, okOut := r.Get(FieldDataOut)
	return okIn && okOut && !in.Equal(out)
}

// String renders the record as {type: write, key: value, ...}; the tag comes
// first when present.
func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	write := func(k, v string) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
	}
	if r.Tag != TagNone {
		write("type", string(r.Tag))
	}
	for _, f := range r.Fields {
		write(f.Key, f.Value.String())
	}
	b.WriteByte('}')
	return b.String()
}

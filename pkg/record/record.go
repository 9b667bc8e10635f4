// Package record holds the dynamically shaped attribute container that flows
// through the enrichment pipeline. Records have no fixed schema; enrichment
// stages add attributes and never implicitly remove them.
package record

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Record maps attribute names to values. Values are strings, integers,
// floats, nested records or lists, depending on what the decoder produced.
type Record map[string]any

// String returns the value for key if it is present and is a string.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}

// Int64 returns the value for key coerced to int64. JSON decoding produces
// float64 for numbers, so all common numeric shapes are accepted.
func (r Record) Int64(key string) (int64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}

	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}

		return i, true
	default:
		return 0, false
	}
}

// Sub returns the nested record stored under key, if any.
func (r Record) Sub(key string) (Record, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}

	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return Record(m), true
	default:
		return nil, false
	}
}

// List returns the list of nested records stored under key. Elements that are
// not records are skipped.
func (r Record) List(key string) ([]Record, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}

	raw, ok := v.([]any)
	if !ok {
		if recs, isRecs := v.([]Record); isRecs {
			return recs, true
		}

		return nil, false
	}

	out := make([]Record, 0, len(raw))

	for _, elem := range raw {
		switch m := elem.(type) {
		case Record:
			out = append(out, m)
		case map[string]any:
			out = append(out, Record(m))
		}
	}

	return out, true
}

// Field returns the value for key rendered as a string, or the empty string
// when the key is absent. Used for composite merge keys, where values of any
// type are concatenated verbatim.
func (r Record) Field(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}

	if s, isStr := v.(string); isStr {
		return s
	}

	if f, isFloat := v.(float64); isFloat && f == float64(int64(f)) {
		// JSON integers arrive as float64; render them without the mantissa.
		return fmt.Sprintf("%d", int64(f))
	}

	return fmt.Sprint(v)
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r[key]

	return ok
}

// Clone returns a copy of the record. Top-level keys are copied; nested
// values are shared, which is safe because stages never mutate nested values
// in place.
func (r Record) Clone() Record {
	out := make(Record, len(r))

	for k, v := range r {
		out[k] = v
	}

	return out
}

// Merge copies every attribute of other into r, overwriting existing keys.
func (r Record) Merge(other Record) {
	for k, v := range other {
		r[k] = v
	}
}

// Fill copies attributes of other into r only where r does not already have
// the key.
func (r Record) Fill(other Record) {
	for k, v := range other {
		if _, ok := r[k]; !ok {
			r[k] = v
		}
	}
}

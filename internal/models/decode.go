package models

import (
	"fmt"
	"sort"
)

// Result is the outcome of decoding one record from a snapshot.
// Invalid is empty when Value holds a well-formed record.
type Result[T any] struct {
	ID      string
	Value   T
	Invalid string
}

// OK reports whether the record decoded cleanly.
func (r Result[T]) OK() bool {
	return r.Invalid == ""
}

// Partition splits results into valid values and rejected results, keeping order.
func Partition[T any](results []Result[T]) ([]T, []Result[T]) {
	valid := make([]T, 0, len(results))
	var invalid []Result[T]
	for _, r := range results {
		if r.OK() {
			valid = append(valid, r.Value)
		} else {
			invalid = append(invalid, r)
		}
	}
	return valid, invalid
}

// record is one decoded JSON object.
type record map[string]any

func asRecord(v any) (record, bool) {
	m, ok := v.(map[string]any)
	return record(m), ok
}

// decodeCollection decodes every child of a keyed collection snapshot. A nil
// snapshot is an empty collection. Children come back in key order; generated keys
// are time-ordered, so that is creation order.
func decodeCollection[T any](snap any, decode func(id string, r record) (T, error)) []Result[T] {
	if snap == nil {
		return nil
	}
	m, ok := snap.(map[string]any)
	if !ok {
		return []Result[T]{{Invalid: fmt.Sprintf("collection is %T, not an object", snap)}}
	}

	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Result[T], 0, len(ids))
	for _, id := range ids {
		r, ok := asRecord(m[id])
		if !ok {
			out = append(out, Result[T]{ID: id, Invalid: fmt.Sprintf("record is %T, not an object", m[id])})
			continue
		}
		v, err := decode(id, r)
		if err != nil {
			out = append(out, Result[T]{ID: id, Invalid: err.Error()})
			continue
		}
		out = append(out, Result[T]{ID: id, Value: v})
	}
	return out
}

func (r record) requiredString(key string) (string, error) {
	v, ok := r[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is %T, not a string", key, v)
	}
	return s, nil
}

func (r record) optionalString(key string) (string, error) {
	if _, ok := r[key]; !ok {
		return "", nil
	}
	return r.requiredString(key)
}

func (r record) requiredNumber(key string) (float64, error) {
	v, ok := r[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	n, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("field %q is %T, not a number", key, v)
	}
	return n, nil
}

func (r record) optionalNumber(key string) (float64, error) {
	if _, ok := r[key]; !ok {
		return 0, nil
	}
	return r.requiredNumber(key)
}

func (r record) optionalBool(key string) (bool, error) {
	v, ok := r[key]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %q is %T, not a boolean", key, v)
	}
	return b, nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

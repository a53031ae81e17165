package docstore

import (
	"fmt"
	"sort"
)

// Normalize converts value into the store's value model: nested map[string]any, string,
// float64, bool. Integer types widen to float64. Empty maps collapse to nil because the
// store never holds an empty node.
func Normalize(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string, bool, float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return Normalize(out)
	case map[string]bool:
		out := make(map[string]any, len(v))
		for k, b := range v {
			out[k] = b
		}
		return Normalize(out)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			if err := ValidatePath(k); err != nil || k == "" {
				return nil, fmt.Errorf("%w: key %q", ErrInvalidPath, k)
			}
			n, err := Normalize(child)
			if err != nil {
				return nil, err
			}
			if n != nil {
				out[k] = n
			}
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

// Clone deep-copies a normalized value.
func Clone(value any) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// Lookup returns the value at path inside root, or nil.
func Lookup(root any, path string) any {
	cur := root
	for _, seg := range Segments(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[seg]
	}
	return cur
}

// Put returns root with value stored at path. Maps along the way are copied, so
// snapshots handed out earlier are never mutated. A nil value removes path and prunes
// parents left empty.
func Put(root any, path string, value any) any {
	return put(root, Segments(path), value)
}

func put(node any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	m, _ := node.(map[string]any)
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	child := put(out[segs[0]], segs[1:], value)
	if child == nil {
		delete(out, segs[0])
	} else {
		out[segs[0]] = child
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// PrepareUpdates cleans and normalizes a batched update, rejecting overlapping paths.
// Paths are returned in lexical order so callers apply them deterministically.
func PrepareUpdates(updates map[string]any) ([]string, map[string]any, error) {
	prepared := make(map[string]any, len(updates))
	paths := make([]string, 0, len(updates))
	for raw, value := range updates {
		p := Clean(raw)
		if p == "" {
			return nil, nil, fmt.Errorf("%w: batched update at root", ErrInvalidPath)
		}
		if err := ValidatePath(p); err != nil {
			return nil, nil, err
		}
		n, err := Normalize(value)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", p, err)
		}
		prepared[p] = n
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for i := range paths {
		for j := i + 1; j < len(paths); j++ {
			if Overlaps(paths[i], paths[j]) {
				return nil, nil, fmt.Errorf("%w: %s and %s", ErrOverlappingPaths, paths[i], paths[j])
			}
		}
	}
	return paths, prepared, nil
}

// MergeUpdates expresses Merge(path, fields) as a batched update.
func MergeUpdates(path string, fields map[string]any) map[string]any {
	updates := make(map[string]any, len(fields))
	for k, v := range fields {
		updates[Join(path, k)] = v
	}
	return updates
}

// Flatten lists the leaves of value keyed by their full path below base.
func Flatten(base string, value any) map[string]any {
	out := make(map[string]any)
	flatten(Clean(base), value, out)
	return out
}

func flatten(path string, value any, out map[string]any) {
	m, ok := value.(map[string]any)
	if !ok {
		if value != nil {
			out[path] = value
		}
		return
	}
	for k, v := range m {
		flatten(Join(path, k), v, out)
	}
}

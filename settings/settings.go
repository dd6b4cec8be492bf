// Package settings resolves per-task configuration from layered project
// files.
//
// Two formats are supported: INI (gofer.cfg) and TOML (gofer.toml), each
// with an optional environment-level overlay (gofer.local.cfg,
// gofer.local.toml) that wins on key conflicts. One section or table per
// task name. A missing file or missing section resolves to an empty map,
// never an error.
package settings

import (
	"strconv"
	"strings"
)

// Map is an ordered, read-only key/value view of one task's settings.
//
// Values are one of: string, bool, []string, int64, float64. INI sources
// are typed at load time (true/false literals become bools, multiline
// values become string lists, everything else stays a raw string); TOML
// sources keep their native types. Iteration order is file order, with
// overlay layers replacing values in place.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap returns an empty settings map.
func NewMap() *Map {
	return &Map{values: map[string]any{}}
}

// Len returns the number of keys.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns the keys in resolution order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Get returns the raw value for key.
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// GetString returns the value for key as a string, or def when the key is
// absent or holds a list.
func (m *Map) GetString(key, def string) string {
	v, ok := m.values[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return def
	}
}

// GetBool returns the value for key when it is a bool (native, or an INI
// true/false literal typed at load). Any other value, including a raw
// string that failed coercion, yields def.
func (m *Map) GetBool(key string, def bool) bool {
	if v, ok := m.values[key].(bool); ok {
		return v
	}
	return def
}

// GetList returns the value for key as an ordered string list. A single
// string becomes a one-element list; scalars of other types yield def.
func (m *Map) GetList(key string, def []string) []string {
	v, ok := m.values[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case string:
		if t == "" {
			return []string{}
		}
		return []string{t}
	default:
		return def
	}
}

// GetInt returns the value for key as an int, parsing string values, or
// def when absent or unparseable.
func (m *Map) GetInt(key string, def int) int {
	v, ok := m.values[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return def
}

// set records a value, keeping the first-seen position for existing keys
// so overlay layers replace values without reordering.
func (m *Map) set(key string, v any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

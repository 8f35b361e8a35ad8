// lint.go collects structured diagnostics found during a conversion.
package wt

import (
	"encoding/json"
	"maps"
	"reflect"
)

// Lint is one diagnostic record. Data never holds nil values.
type Lint struct {
	Type string
	Data map[string]any
}

// MarshalJSON flattens the record into {"type": ..., data...}.
func (l Lint) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(l.Data)+1)
	for k, v := range l.Data {
		out[k] = v
	}
	out["type"] = l.Type
	return json.Marshal(out)
}

// LintCollector is an append-only sequence of lints.
type LintCollector struct {
	lints []Lint
}

// Add strips nil-valued fields from data and appends the record.
func (c *LintCollector) Add(lintType string, data map[string]any) Lint {
	clean := make(map[string]any, len(data))
	for k, v := range data {
		if isNil(v) {
			continue
		}
		clean[k] = v
	}
	c.lints = append(c.lints, Lint{Type: lintType, Data: clean})
	return Lint{Type: lintType, Data: maps.Clone(clean)}
}

// All returns a copy of the recorded lints in insertion order. The data
// maps are copied too; their values are shared.
func (c *LintCollector) All() []Lint {
	out := make([]Lint, len(c.lints))
	for i, l := range c.lints {
		out[i] = Lint{Type: l.Type, Data: maps.Clone(l.Data)}
	}
	return out
}

// Len returns the number of recorded lints.
func (c *LintCollector) Len() int {
	return len(c.lints)
}

// isNil reports untyped nil and nil pointers, maps, slices, funcs and
// interfaces.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

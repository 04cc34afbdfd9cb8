// Package record provides a schemaless model type for option sources that
// decode JSON, YAML, SQL rows or BSON documents, plus the field-path mapping
// that turns such records into select options.
package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

// Record is a decoded model keyed by field name.
type Record map[string]any

// Lookup resolves a dotted path ("author.id") through nested maps.
func (r Record) Lookup(path string) (any, bool) {
	if r == nil || path == "" {
		return nil, false
	}
	var cur any = map[string]any(r)
	for _, segment := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			cur = next
		case Record:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			cur = next
		default:
			return nil, false
		}
	}
	return cur, true
}

// String resolves path and formats the value. Missing and nil values yield
// the empty string.
func (r Record) String(path string) string {
	value, ok := r.Lookup(path)
	if !ok || value == nil {
		return ""
	}
	return Stringify(value)
}

// Bool resolves path as a boolean; strings are parsed with strconv.
func (r Record) Bool(path string) bool {
	value, ok := r.Lookup(path)
	if !ok {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return false
	}
}

// Stringify formats scalar values the way they appear on the wire: integral
// floats lose their fraction so JSON ids (decoded as float64) stay stable.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return Stringify(float64(v))
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Mapping names the record paths used to build an option.
type Mapping struct {
	Value    string `json:"value" yaml:"value"`
	Label    string `json:"label" yaml:"label"`
	Disabled string `json:"disabled,omitempty" yaml:"disabled"`
}

// DefaultMapping maps "value" and "label".
func DefaultMapping() Mapping {
	return Mapping{Value: "value", Label: "label"}
}

func (m Mapping) normalized() Mapping {
	m.Value = strings.TrimSpace(m.Value)
	m.Label = strings.TrimSpace(m.Label)
	m.Disabled = strings.TrimSpace(m.Disabled)
	if m.Value == "" && m.Label == "" {
		d := DefaultMapping()
		d.Disabled = m.Disabled
		return d
	}
	if m.Value == "" {
		m.Value = "value"
	}
	if m.Label == "" {
		m.Label = m.Value
	}
	return m
}

// FieldTransform builds options from records using mapping. Labels fall back
// to the value when the label path is empty; top-level fields that are not
// mapped are copied to Option.Extra.
func FieldTransform(mapping Mapping) selectsingle.TransformFunc[Record, string] {
	mapping = mapping.normalized()
	return func(rec Record, _ int) selectsingle.Option[string, Record] {
		value := rec.String(mapping.Value)
		label := rec.String(mapping.Label)
		if label == "" {
			label = value
		}
		opt := selectsingle.Option[string, Record]{
			Value: value,
			Label: label,
		}
		if mapping.Disabled != "" {
			opt.Disabled = rec.Bool(mapping.Disabled)
		}
		for key, v := range rec {
			if key == mapping.Value || key == mapping.Label || key == mapping.Disabled {
				continue
			}
			if opt.Extra == nil {
				opt.Extra = make(map[string]any, len(rec))
			}
			opt.Extra[key] = v
		}
		return opt
	}
}

// ExtractResults walks path (dotted, may be empty) inside a decoded payload
// and returns the records found in the array at that location. Non-object
// array entries are skipped.
func ExtractResults(payload any, path string) []Record {
	if payload == nil {
		return nil
	}
	cur := payload
	if path = strings.TrimSpace(path); path != "" {
		for _, segment := range strings.Split(path, ".") {
			node, ok := asMap(cur)
			if !ok {
				return nil
			}
			cur = node[segment]
		}
	}

	var items []any
	switch v := cur.(type) {
	case []any:
		items = v
	case []map[string]any:
		items = make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
	case []Record:
		return append([]Record(nil), v...)
	default:
		return nil
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		obj, ok := asMap(item)
		if !ok {
			continue
		}
		out = append(out, Record(obj))
	}
	return out
}

func asMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case Record:
		return map[string]any(v), true
	default:
		return nil, false
	}
}

// Package records defines the generic record shape passed between the
// parser, transformers, and storage layers, plus typed accessors that
// implement the numeric coercion rules for semi-structured JSON input.
//
// JSON sources are sloppy about numeric encoding: an integer year may arrive
// as 1982, "1982", or 1982.0, and a duration may arrive as a float or a
// string. The accessors below accept all of those spellings and fail loudly
// (with a field-named error) on anything else, so a malformed field surfaces
// as a per-file failure instead of a silently inserted zero.
package records

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one semi-structured input record keyed by source field name.
// Values are whatever encoding/json produced: string, json.Number (the
// parser decodes with UseNumber), bool, nil, or nested maps/slices.
type Record map[string]any

// Has reports whether the field is present and non-nil.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// String returns the field as a string. Missing, nil, or non-string values
// return an error naming the field.
func (r Record) String(field string) (string, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", fmt.Errorf("field %q: missing", field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: want string, got %T", field, v)
	}
	return s, nil
}

// StringOrEmpty returns the field as a string, or "" when it is missing,
// nil, or the empty string. It never fails: free-text fields like location
// and user agent are optional everywhere they appear.
func (r Record) StringOrEmpty(field string) string {
	s, err := r.String(field)
	if err != nil {
		return ""
	}
	return s
}

// Int coerces the field to an integer. Accepted encodings: json.Number with
// an integral value, a float with zero fraction, or a decimal string.
func (r Record) Int(field string) (int, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, fmt.Errorf("field %q: missing", field)
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		// Fall through for "1982.0" style numbers.
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %q: %q is not numeric", field, n.String())
		}
		return floatToInt(field, f)
	case float64:
		return floatToInt(field, n)
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, fmt.Errorf("field %q: empty", field)
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: %q is not an integer", field, s)
		}
		return floatToInt(field, f)
	default:
		return 0, fmt.Errorf("field %q: want integer, got %T", field, v)
	}
}

// Int64 coerces the field to int64 under the same rules as Int. Used for
// epoch-millisecond timestamps, which overflow 32-bit ints.
func (r Record) Int64(field string) (int64, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, fmt.Errorf("field %q: missing", field)
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %q: %q is not numeric", field, n.String())
		}
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("field %q: %v has a fractional part", field, f)
		}
		return int64(f), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("field %q: %v has a fractional part", field, n)
		}
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: %q is not an integer", field, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("field %q: want integer, got %T", field, v)
	}
}

// Float coerces the field to a float64. Accepted encodings: json.Number,
// float, integer, or a decimal string.
func (r Record) Float(field string) (float64, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, fmt.Errorf("field %q: missing", field)
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %q: %q is not numeric", field, n.String())
		}
		return f, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: %q is not a number", field, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %q: want number, got %T", field, v)
	}
}

// NullString returns a pointer to the field's string value, or nil when the
// field is missing, null, or empty. Nullable text columns map through this.
func (r Record) NullString(field string) *string {
	s, err := r.String(field)
	if err != nil || s == "" {
		return nil
	}
	return &s
}

// NullFloat returns a pointer to the field's float value, or nil when the
// field is missing or null. A malformed non-null value is an error: absent
// coordinates are valid, garbage coordinates are not.
func (r Record) NullFloat(field string) (*float64, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, nil
	}
	f, err := r.Float(field)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func floatToInt(field string, f float64) (int, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("field %q: %v has a fractional part", field, f)
	}
	return int(f), nil
}

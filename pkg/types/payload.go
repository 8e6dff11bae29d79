// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Payload is the decoded JSON object passed to every operation.
type Payload map[string]any

// ParsePayload decodes raw as a JSON object. Arrays, scalars and null are
// rejected.
func ParsePayload(raw string) (Payload, error) {
	var v any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", jsonKind(v))
	}
	return Payload(obj), nil
}

// String returns the value at key when it is a non-empty string.
func (p Payload) String(key string) (string, bool) {
	s, ok := p[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Strings returns the value at key as a list of non-empty strings. A single
// string is accepted as a one-element list.
func (p Payload) Strings(key string) ([]string, bool) {
	switch v := p[key].(type) {
	case string:
		if v == "" {
			return nil, false
		}
		return []string{v}, true
	case []string:
		for _, s := range v {
			if s == "" {
				return nil, false
			}
		}
		return v, len(v) > 0
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, false
			}
			out = append(out, s)
		}
		return out, len(out) > 0
	}
	return nil, false
}

// Int returns the value at key when it is an integral JSON number that fits
// in an int, or a string holding one.
func (p Payload) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			if i < math.MinInt || i > math.MaxInt {
				return 0, false
			}
			return int(i), true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return floatInt(f)
	case int:
		return v, true
	case float64:
		return floatInt(v)
	case string:
		return Payload{key: json.Number(strings.TrimSpace(v))}.Int(key)
	}
	return 0, false
}

// floatInt converts f when it is integral and within the int range.
// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive.
func floatInt(f float64) (int, bool) {
	if f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

// Has reports whether key is present, whatever its value.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

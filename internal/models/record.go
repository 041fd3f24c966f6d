package models

import (
	"encoding/json"
	"strconv"
)

// RawRecord is a loosely structured listing or lot record as decoded from JSON.
type RawRecord map[string]interface{}

// Present reports whether key exists and is not null.
func (r RawRecord) Present(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Str returns the value at key as text. Numbers are rendered without
// trailing zeros. Anything else yields "".
func (r RawRecord) Str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// Num returns the value at key when it is a JSON number.
func (r RawRecord) Num(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// FirstStr returns the first non-empty Str among keys.
func (r RawRecord) FirstStr(keys ...string) string {
	for _, k := range keys {
		if s := r.Str(k); s != "" {
			return s
		}
	}
	return ""
}

// Identity returns the explicit id of a record. Empty strings and zero
// numbers do not count as an id.
func (r RawRecord) Identity(key string) string {
	if n, ok := r.Num(key); ok && n == 0 {
		return ""
	}
	return r.Str(key)
}

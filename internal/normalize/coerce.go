package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
)

// obj is an untyped JSON or YAML object.
type obj = map[string]any

func newID(prefix string) string {
	return prefix + "-" + strings.ToLower(ulid.Make().String())
}

// str returns m[key] when it is a non-empty string, else def.
func str(m obj, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}

func boolean(m obj, key string, def bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}

// number accepts every numeric representation the JSON and YAML decoders
// produce.
func number(m obj, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func integer(m obj, key string, def int) int {
	if f, ok := number(m, key); ok {
		return int(f)
	}
	return def
}

func object(m obj, key string) (obj, bool) {
	o, ok := m[key].(obj)
	return o, ok
}

// objects returns the object elements of the array at key, skipping others.
func objects(m obj, key string) []obj {
	arr, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]obj, 0, len(arr))
	for _, v := range arr {
		if o, ok := v.(obj); ok {
			out = append(out, o)
		}
	}
	return out
}

// strs returns the string elements of the array at key. Absent or mistyped
// arrays become an empty slice.
func strs(m obj, key string) []string {
	out := []string{}
	arr, ok := m[key].([]any)
	if !ok {
		return out
	}
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// text accepts a string or a number rendered as text.
func text(m obj, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	if f, ok := number(m, key); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Answer wraps an untyped answer value (correct or submitted) and exposes the representations
// the evaluators need.
type Answer struct {
	value interface{}
}

// NewAnswer wraps v.
func NewAnswer(v interface{}) Answer {
	return Answer{value: v}
}

// Value returns the wrapped value.
func (a Answer) Value() interface{} {
	return a.value
}

// IsZero reports whether no answer value is present.
func (a Answer) IsZero() bool {
	if a.value == nil {
		return true
	}
	if s, ok := a.value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Text returns the answer as a scalar string. Lists and maps are not text.
func (a Answer) Text() (string, bool) {
	switch a.value.(type) {
	case nil, []interface{}, []string, []int, map[string]interface{}, map[string]string:
		return "", false
	}
	return stringify(a.value), true
}

// List returns the answer as a list of stringified elements.
func (a Answer) List() ([]string, bool) {
	switch v := a.value.(type) {
	case []string:
		return append([]string(nil), v...), true
	case []int:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = strconv.Itoa(item)
		}
		return out, true
	case []interface{}:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = stringify(item)
		}
		return out, true
	}
	return nil, false
}

// Mapping returns the answer as a string-keyed map of stringified values.
func (a Answer) Mapping() (map[string]string, bool) {
	switch v := a.value.(type) {
	case map[string]string:
		out := make(map[string]string, len(v))
		for key, item := range v {
			out[key] = item
		}
		return out, true
	case map[string]interface{}:
		out := make(map[string]string, len(v))
		for key, item := range v {
			out[key] = stringify(item)
		}
		return out, true
	}
	return nil, false
}

// stringify converts a JSON-decoded value to its display string: numbers drop a trailing ".0",
// lists join with commas, and nil becomes the empty string.
func stringify(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return formatFloat(value)
	case float32:
		return formatFloat(float64(value))
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case uint:
		return strconv.FormatUint(uint64(value), 10)
	case json.Number:
		if f, err := value.Float64(); err == nil {
			return formatFloat(f)
		}
		return value.String()
	case []interface{}:
		parts := make([]string, len(value))
		for i, item := range value {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(value, ",")
	case map[string]interface{}, map[string]string:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(encoded)
	default:
		return fmt.Sprint(value)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func lowerSorted(values []string) []string {
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = strings.ToLower(value)
	}
	sort.Strings(out)
	return out
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round2 is exported for batch summaries computed outside the package.
func Round2(v float64) float64 {
	return round2(v)
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

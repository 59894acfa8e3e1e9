package evaluation

import (
	"encoding/json"
	"math"
	"strings"
)

// Field readers accept a value only when it has the expected JSON shape and
// return the default otherwise. They never coerce between kinds.

func number(obj map[string]any, key string, def float64) float64 {
	var v float64
	switch n := obj[key].(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return def
		}
		v = f
	case float64:
		v = n
	default:
		return def
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

func text(obj map[string]any, key, def string) string {
	v, ok := obj[key].(string)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

// verbatim returns a string field unchanged unless it is blank.
func verbatim(obj map[string]any, key, def string) string {
	v, ok := obj[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// textList keeps the non-blank string elements of an array.
func textList(obj map[string]any, key string) []string {
	items, ok := obj[key].([]any)
	out := make([]string, 0, len(items))
	if !ok {
		return out
	}
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// objectList returns the object elements of an array.
func objectList(obj map[string]any, key string) []map[string]any {
	items, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Status is the assessment of a single criterion.
type Status string

const (
	StatusMet          Status = "Met"
	StatusPartiallyMet Status = "Partially Met"
	StatusNotMet       Status = "Not Met"
	StatusNA           Status = "N/A"
)

// status matches the value case-insensitively against allowed and returns
// the canonical spelling, or def.
func status(obj map[string]any, key string, allowed []Status, def Status) Status {
	v, ok := obj[key].(string)
	if !ok {
		return def
	}
	v = strings.Join(strings.Fields(v), " ")
	for _, s := range allowed {
		if strings.EqualFold(v, string(s)) {
			return s
		}
	}
	return def
}

package services

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Rules is the parsed validation bag of a question. Nil pointers and empty
// strings mean "no constraint".
type Rules struct {
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinDate   string   `json:"minDate,omitempty"`
	MaxDate   string   `json:"maxDate,omitempty"`
	MinTime   string   `json:"minTime,omitempty"`
	MaxTime   string   `json:"maxTime,omitempty"`

	pattern *regexp.Regexp
}

// ParseRules accepts the stored validation value: empty, a JSON object, or a
// JSON string containing an object. Numbers may be given as numeric strings.
func ParseRules(raw []byte) (Rules, error) {
	var r Rules
	bag, err := decodeRuleBag(raw)
	if err != nil || bag == nil {
		return r, err
	}

	if r.MinLength, err = intRule(bag, "minLength"); err != nil {
		return r, err
	}
	if r.MaxLength, err = intRule(bag, "maxLength"); err != nil {
		return r, err
	}
	if r.Min, err = floatRule(bag, "min"); err != nil {
		return r, err
	}
	if r.Max, err = floatRule(bag, "max"); err != nil {
		return r, err
	}
	r.Pattern = stringRule(bag, "pattern")
	r.MinDate = stringRule(bag, "minDate")
	r.MaxDate = stringRule(bag, "maxDate")
	r.MinTime = stringRule(bag, "minTime")
	r.MaxTime = stringRule(bag, "maxTime")

	if r.Pattern != "" {
		if r.pattern, err = regexp.Compile(r.Pattern); err != nil {
			return r, fmt.Errorf("validation.pattern: %w", err)
		}
	}
	for _, d := range []string{r.MinDate, r.MaxDate} {
		if d != "" && !validDate(d) {
			return r, fmt.Errorf("validation: bad date bound %q", d)
		}
	}
	for _, t := range []string{r.MinTime, r.MaxTime} {
		if t != "" && !timePattern.MatchString(t) {
			return r, fmt.Errorf("validation: bad time bound %q", t)
		}
	}
	return r, nil
}

func decodeRuleBag(raw []byte) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, fmt.Errorf("validation: invalid JSON: %w", err)
	}
	switch v := decoded.(type) {
	case nil:
		return nil, nil
	case string:
		return decodeRuleBag([]byte(v))
	case map[string]interface{}:
		return v, nil
	}
	return nil, fmt.Errorf("validation: expected an object, got %T", decoded)
}

func floatRule(bag map[string]interface{}, key string) (*float64, error) {
	v, ok := bag[key]
	if !ok || v == nil {
		return nil, nil
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	f, ok := toNumber(v)
	if !ok {
		return nil, fmt.Errorf("validation.%s: not a number: %v", key, v)
	}
	return &f, nil
}

func intRule(bag map[string]interface{}, key string) (*int, error) {
	f, err := floatRule(bag, key)
	if err != nil || f == nil {
		return nil, err
	}
	if *f < 0 || *f != math.Trunc(*f) {
		return nil, fmt.Errorf("validation.%s: not a non-negative integer: %v", key, *f)
	}
	n := int(*f)
	return &n, nil
}

func stringRule(bag map[string]interface{}, key string) string {
	if s, ok := bag[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// toNumber mirrors numeric coercion of submitted values: JSON numbers pass,
// strings are trimmed and parsed, booleans count as 1/0. NaN and infinities
// are not numbers here.
func toNumber(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if n {
			f = 1
		}
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

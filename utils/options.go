package utils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionOption is one entry of a choice question.
type QuestionOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SanitizeOptions turns whatever was stored for a question's options into a
// clean []QuestionOption. Accepted shapes: a JSON string (or raw JSON bytes)
// holding an array, an array of {value,label} objects, an array of bare
// strings, or an already typed slice. Entries whose value resolves to ""
// are dropped. A nil input yields nil.
//
// The only error is malformed JSON or a non-array top level.
func SanitizeOptions(raw interface{}) ([]QuestionOption, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []QuestionOption:
		return dropEmptyOptions(v), nil
	case json.RawMessage:
		return sanitizeOptionsJSON([]byte(v))
	case []byte:
		return sanitizeOptionsJSON(v)
	case string:
		return sanitizeOptionsJSON([]byte(v))
	case []string:
		out := make([]QuestionOption, 0, len(v))
		for _, s := range v {
			out = append(out, QuestionOption{Value: s, Label: s})
		}
		return dropEmptyOptions(out), nil
	case []interface{}:
		out := make([]QuestionOption, 0, len(v))
		for _, item := range v {
			if opt, ok := optionFromValue(item); ok {
				out = append(out, opt)
			}
		}
		return dropEmptyOptions(out), nil
	default:
		return nil, fmt.Errorf("options: unsupported shape %T", raw)
	}
}

func sanitizeOptionsJSON(data []byte) ([]QuestionOption, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, fmt.Errorf("options: invalid JSON: %w", err)
	}
	// Some editors double-encode: the column holds a JSON string whose
	// content is the array.
	if s, ok := decoded.(string); ok {
		return sanitizeOptionsJSON([]byte(s))
	}
	if decoded == nil {
		return nil, nil
	}
	arr, ok := decoded.([]interface{})
	if !ok {
		return nil, fmt.Errorf("options: expected an array, got %T", decoded)
	}
	return SanitizeOptions(arr)
}

func optionFromValue(item interface{}) (QuestionOption, bool) {
	switch it := item.(type) {
	case string:
		return QuestionOption{Value: it, Label: it}, true
	case float64, bool:
		s := fmt.Sprint(it)
		return QuestionOption{Value: s, Label: s}, true
	case map[string]interface{}:
		value := scalarString(it["value"])
		label := scalarString(it["label"])
		if value == "" {
			// {label:"Yes"} without a value answers with its label
			value = label
		}
		if label == "" {
			label = value
		}
		return QuestionOption{Value: value, Label: label}, true
	}
	return QuestionOption{}, false
}

func scalarString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64, bool:
		return fmt.Sprint(s)
	}
	return ""
}

func dropEmptyOptions(in []QuestionOption) []QuestionOption {
	out := make([]QuestionOption, 0, len(in))
	for _, o := range in {
		if strings.TrimSpace(o.Value) == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

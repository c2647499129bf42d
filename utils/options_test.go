package utils

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSanitizeOptions(t *testing.T) {
	ab := []QuestionOption{{Value: "a", Label: "a"}, {Value: "b", Label: "b"}}
	tests := []struct {
		name    string
		raw     interface{}
		want    []QuestionOption
		wantErr bool
	}{
		{"nil", nil, nil, false},
		{"json string of strings", `["a","b"]`, ab, false},
		{"json bytes of objects", []byte(`[{"value":"a","label":"A"},{"value":"","label":"x"}]`), []QuestionOption{{Value: "a", Label: "A"}, {Value: "x", Label: "x"}}, false},
		{"raw message", json.RawMessage(`["a","b"]`), ab, false},
		{"double encoded", `"[\"a\",\"b\"]"`, ab, false},
		{"label only", `[{"label":"Sí"}]`, []QuestionOption{{Value: "Sí", Label: "Sí"}}, false},
		{"value only", `[{"value":"1"}]`, []QuestionOption{{Value: "1", Label: "1"}}, false},
		{"numbers", `[1, 2.5, true]`, []QuestionOption{{Value: "1", Label: "1"}, {Value: "2.5", Label: "2.5"}, {Value: "true", Label: "true"}}, false},
		{"drops empty values", `["", "  ", {"value":"","label":""}, "a"]`, []QuestionOption{{Value: "a", Label: "a"}}, false},
		{"string slice", []string{"a", "", "b"}, ab, false},
		{"typed slice", []QuestionOption{{Value: ""}, {Value: "a", Label: "a"}}, []QuestionOption{{Value: "a", Label: "a"}}, false},
		{"interface slice", []interface{}{"a", map[string]interface{}{"value": "b", "label": "b"}, nil}, ab, false},
		{"json null", "null", nil, false},
		{"blank string", "  ", nil, false},
		{"invalid json", `[{"value":`, nil, true},
		{"object instead of array", `{"value":"a"}`, nil, true},
		{"unsupported type", 42, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeOptions(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SanitizeOptions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSanitizeOptions_Idempotent(t *testing.T) {
	first, err := SanitizeOptions(`[{"value":"a","label":"A"},"b",""]`)
	if err != nil {
		t.Fatal(err)
	}
	encoded, _ := json.Marshal(first)
	second, err := SanitizeOptions(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass = %+v, want %+v", second, first)
	}
}

package services

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/vnkhanh/survey-collector/utils"
)

func schemaFor(t *testing.T, typ QuestionType, required bool, options []string, rules string) *QuestionSchema {
	t.Helper()
	q := &QuestionSchema{ID: 1, Title: "P", Type: typ, Required: required}
	for _, o := range options {
		q.Options = append(q.Options, utils.QuestionOption{Value: o, Label: o})
	}
	if rules != "" {
		r, err := ParseRules([]byte(rules))
		if err != nil {
			t.Fatalf("ParseRules(%s) error = %v", rules, err)
		}
		q.Rules = r
	}
	return q
}

func TestIsEmptyValue(t *testing.T) {
	tests := []struct {
		name string
		typ  QuestionType
		v    interface{}
		want bool
	}{
		{"nil", TypeShortText, nil, true},
		{"empty string", TypeShortText, "", true},
		{"whitespace", TypeShortText, "  \t", true},
		{"empty array", TypeCheckboxes, []interface{}{}, true},
		{"empty string slice", TypeCheckboxes, []string{}, true},
		{"empty object", TypeMatrix, map[string]interface{}{}, true},
		{"empty object for file upload", TypeFileUpload, map[string]interface{}{}, false},
		{"zero", TypeNumber, float64(0), false},
		{"false", TypeShortText, false, false},
		{"text", TypeShortText, "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEmptyValue(tt.typ, tt.v); got != tt.want {
				t.Errorf("IsEmptyValue(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestNormalizeAnswer_EmptyOptionalIsNull(t *testing.T) {
	empties := []interface{}{nil, "", "   ", []interface{}{}}
	for _, typ := range AllQuestionTypes {
		for _, v := range empties {
			q := schemaFor(t, typ, false, []string{"a"}, "")
			got, err := NormalizeAnswer(q, v)
			if err != nil {
				t.Errorf("%s: NormalizeAnswer(%#v) error = %v", typ, v, err)
			}
			if got != nil {
				t.Errorf("%s: NormalizeAnswer(%#v) = %#v, want nil", typ, v, got)
			}
		}
	}
}

func TestNormalizeAnswer_EmptyRequiredIsRejected(t *testing.T) {
	empties := []interface{}{nil, "", "   ", []interface{}{}}
	for _, typ := range AllQuestionTypes {
		for _, v := range empties {
			q := schemaFor(t, typ, true, []string{"a"}, "")
			q.Title = "Nombre"
			_, err := NormalizeAnswer(q, v)
			if KindOf(err) != KindRequiredFieldMissing {
				t.Fatalf("%s: NormalizeAnswer(%#v) kind = %q, want RequiredFieldMissing", typ, v, KindOf(err))
			}
			want := "La pregunta 'Nombre' es requerida y no fue respondida."
			var se *SubmissionError
			errors.As(err, &se)
			if se.Message != want {
				t.Errorf("message = %q, want %q", se.Message, want)
			}
			if !errors.Is(err, ErrInvalidAnswer) {
				t.Errorf("errors.Is(err, ErrInvalidAnswer) = false")
			}
		}
	}
}

func TestNormalizeAnswer(t *testing.T) {
	file := map[string]interface{}{"fileName": "cv.pdf", "fileUrl": "https://x/cv.pdf", "size": float64(10)}
	tests := []struct {
		name     string
		typ      QuestionType
		options  []string
		rules    string
		raw      interface{}
		want     interface{}
		wantKind ErrorKind
	}{
		{"short text", TypeShortText, nil, "", "hola", "hola", ""},
		{"text kept as-is", TypeLongText, nil, "", "  hola ", "  hola ", ""},
		{"text too short", TypeShortText, nil, `{"minLength":3}`, "ab", nil, KindInvalidAnswerFormat},
		{"text too long", TypeShortText, nil, `{"maxLength":3}`, "abcd", nil, KindInvalidAnswerFormat},
		{"text length counts runes", TypeShortText, nil, `{"maxLength":4}`, "ñañá", "ñañá", ""},
		{"text pattern ok", TypePhone, nil, `{"pattern":"^\\d+$"}`, "5551234", "5551234", ""},
		{"text pattern fails", TypePhone, nil, `{"pattern":"^\\d+$"}`, "555-1234", nil, KindInvalidAnswerFormat},
		{"text rejects object", TypeURL, nil, "", map[string]interface{}{"a": "b"}, nil, KindInvalidAnswerFormat},
		{"email ok", TypeEmail, nil, "", "ana@example.com", "ana@example.com", ""},
		{"email bad", TypeEmail, nil, "", "not-an-email", nil, KindInvalidAnswerFormat},
		{"number from string", TypeNumber, nil, "", "42.5", 42.5, ""},
		{"number from json", TypeNumber, nil, "", float64(3), float64(3), ""},
		{"number NaN", TypeNumber, nil, "", "abc", nil, KindInvalidAnswerFormat},
		{"number below min", TypeNumber, nil, `{"min":1}`, "0", nil, KindInvalidAnswerFormat},
		{"number above max", TypeNumber, nil, `{"min":1,"max":5}`, "7", nil, KindInvalidAnswerFormat},
		{"scale default ok", TypeScale, nil, "", "10", float64(10), ""},
		{"scale default out", TypeScale, nil, "", float64(11), nil, KindInvalidAnswerFormat},
		{"scale custom", TypeScale, nil, `{"min":0,"max":3}`, float64(0), float64(0), ""},
		{"rating default ok", TypeRating, nil, "", float64(5), float64(5), ""},
		{"rating default out", TypeRating, nil, "", float64(6), nil, KindInvalidAnswerFormat},
		{"rating custom max", TypeRating, nil, `{"max":10}`, float64(7), float64(7), ""},
		{"rating custom out", TypeRating, nil, `{"max":10}`, float64(11), nil, KindInvalidAnswerFormat},
		{"date ok", TypeDate, nil, "", "2024-02-29", "2024-02-29", ""},
		{"date impossible", TypeDate, nil, "", "2024-13-40", nil, KindInvalidAnswerFormat},
		{"date not leap", TypeDate, nil, "", "2023-02-29", nil, KindInvalidAnswerFormat},
		{"date format", TypeDate, nil, "", "29/02/2024", nil, KindInvalidAnswerFormat},
		{"date before min", TypeDate, nil, `{"minDate":"2024-01-01"}`, "2023-12-31", nil, KindInvalidAnswerFormat},
		{"time ok", TypeTime, nil, "", "23:59", "23:59", ""},
		{"time bad hour", TypeTime, nil, "", "24:00", nil, KindInvalidAnswerFormat},
		{"time seconds", TypeTime, nil, "", "10:00:00", nil, KindInvalidAnswerFormat},
		{"dropdown ok", TypeDropdown, []string{"a", "b"}, "", "b", "b", ""},
		{"dropdown unknown", TypeDropdown, []string{"a", "b"}, "", "c", nil, KindInvalidAnswerFormat},
		{"multiple choice numeric", TypeMultipleChoice, []string{"1", "2"}, "", float64(2), "2", ""},
		{"checkboxes ok", TypeCheckboxes, []string{"a", "b"}, "", []interface{}{"a", "b"}, []string{"a", "b"}, ""},
		{"checkboxes one invalid", TypeCheckboxes, []string{"a", "b"}, "", []interface{}{"a", "z"}, nil, KindInvalidAnswerFormat},
		{"checkboxes scalar", TypeCheckboxes, []string{"a"}, "", "a", nil, KindInvalidAnswerFormat},
		{"file ok", TypeFileUpload, nil, "", file, file, ""},
		{"file missing url", TypeFileUpload, nil, "", map[string]interface{}{"fileName": "a"}, nil, KindInvalidAnswerFormat},
		{"file empty object", TypeFileUpload, nil, "", map[string]interface{}{}, nil, KindInvalidAnswerFormat},
		{"signature ok", TypeSignature, nil, "", "data:image/png;base64,AAAA", "data:image/png;base64,AAAA", ""},
		{"signature short", TypeSignature, nil, "", "abc", nil, KindInvalidAnswerFormat},
		{"matrix ok", TypeMatrix, nil, "", map[string]interface{}{"r1": "c1"}, map[string]interface{}{"r1": "c1"}, ""},
		{"matrix array", TypeMatrix, nil, "", []interface{}{"x"}, nil, KindInvalidAnswerFormat},
		{"unknown type passes through", QuestionType("HEATMAP"), nil, "", []interface{}{"x"}, []interface{}{"x"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := schemaFor(t, tt.typ, true, tt.options, tt.rules)
			got, err := NormalizeAnswer(q, tt.raw)
			if tt.wantKind != "" {
				if KindOf(err) != tt.wantKind {
					t.Fatalf("NormalizeAnswer(%#v) error = %v, want kind %s", tt.raw, err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeAnswer(%#v) error = %v", tt.raw, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeAnswer(%#v) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeAnswer_Messages(t *testing.T) {
	tests := []struct {
		name  string
		typ   QuestionType
		rules string
		raw   interface{}
		want  string
	}{
		{"number max", TypeNumber, `{"min":1,"max":5}`, "7", "La respuesta para 'Edad' no debe exceder 5."},
		{"number min", TypeNumber, `{"min":1.5}`, "1", "La respuesta para 'Edad' debe ser al menos 1.5."},
		{"email", TypeEmail, "", "not-an-email", "El formato de email para 'Edad' es inválido."},
		{"scale", TypeScale, "", "0", "La respuesta para 'Edad' debe estar entre 1 y 10."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := schemaFor(t, tt.typ, true, nil, tt.rules)
			q.Title = "Edad"
			_, err := NormalizeAnswer(q, tt.raw)
			var se *SubmissionError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *SubmissionError", err)
			}
			if se.Message != tt.want {
				t.Errorf("message = %q, want %q", se.Message, tt.want)
			}
			if se.QuestionID != q.ID {
				t.Errorf("QuestionID = %d, want %d", se.QuestionID, q.ID)
			}
		})
	}
}

func TestParseRules(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(Rules) bool
	}{
		{"empty", "", false, func(r Rules) bool { return r.Min == nil && r.Pattern == "" }},
		{"null", "null", false, func(r Rules) bool { return r.Max == nil }},
		{"object", `{"min":1,"max":"5"}`, false, func(r Rules) bool { return *r.Min == 1 && *r.Max == 5 }},
		{"double encoded", `"{\"maxLength\":10}"`, false, func(r Rules) bool { return *r.MaxLength == 10 }},
		{"blank number ignored", `{"min":""}`, false, func(r Rules) bool { return r.Min == nil }},
		{"bad pattern", `{"pattern":"("}`, true, nil},
		{"bad number", `{"min":"abc"}`, true, nil},
		{"negative length", `{"minLength":-1}`, true, nil},
		{"bad date bound", `{"minDate":"2024-02-30"}`, true, nil},
		{"bad time bound", `{"maxTime":"25:00"}`, true, nil},
		{"not an object", `[1,2]`, true, nil},
		{"invalid json", `{`, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRules([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRules(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(r) {
				t.Errorf("ParseRules(%s) = %+v", tt.raw, r)
			}
		})
	}
}

func TestParseQuestionType(t *testing.T) {
	tests := map[string]QuestionType{
		"short_text":      TypeShortText,
		"multiple-choice": TypeMultipleChoice,
		"checkbox":        TypeCheckboxes,
		" Rating ":        TypeRating,
		"radio":           TypeMultipleChoice,
		"heatmap":         QuestionType("HEATMAP"),
	}
	for in, want := range tests {
		if got := ParseQuestionType(in); got != want {
			t.Errorf("ParseQuestionType(%q) = %q, want %q", in, got, want)
		}
	}
	if QuestionType("HEATMAP").Known() {
		t.Error("HEATMAP should not be a known type")
	}
}

func TestNormalizedOutputSerializesStably(t *testing.T) {
	q := schemaFor(t, TypeCheckboxes, false, []string{"a", "b"}, "")
	got, err := NormalizeAnswer(q, []interface{}{"b", "a"})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(got)
	if string(b) != `["b","a"]` {
		t.Errorf("json = %s, want submission order preserved", b)
	}
}

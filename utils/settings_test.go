package utils

import (
	"encoding/json"
	"testing"
)

func TestParseSettings(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(*SurveySettings) bool
	}{
		{"empty", "", false, func(s *SurveySettings) bool { return !s.MaxResponses.Set }},
		{"explicit null clears", `{"max_responses":null}`, false, func(s *SurveySettings) bool {
			return s.MaxResponses.Set && s.MaxResponses.Value == nil
		}},
		{"clamped to one", `{"max_responses":0}`, false, func(s *SurveySettings) bool { return *s.MaxResponses.Value == 1 }},
		{"display fields", `{"show_progress":true,"language":"es"}`, false, func(s *SurveySettings) bool {
			return *s.ShowProgress && s.Language == "es"
		}},
		{"window", `{"start_at":100,"expire_at":200}`, false, func(s *SurveySettings) bool { return *s.ExpireAt == 200 }},
		{"inverted window", `{"start_at":200,"expire_at":100}`, true, nil},
		{"bad json", `{`, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSettings([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(got) {
				t.Errorf("ParseSettings(%s) = %+v", tt.raw, got)
			}
		})
	}
}

func TestMergeSettings(t *testing.T) {
	base, _ := ParseSettings([]byte(`{"max_responses":10,"is_anonymous":true,"language":"es"}`))
	patch, _ := ParseSettings([]byte(`{"is_anonymous":false}`))
	got := MergeSettings(base, patch)

	if got.MaxResponses.Value == nil || *got.MaxResponses.Value != 10 {
		t.Errorf("max_responses = %v, want kept 10", got.MaxResponses.Value)
	}
	if got.IsAnonymous == nil || *got.IsAnonymous {
		t.Errorf("is_anonymous = %v, want false", got.IsAnonymous)
	}
	if got.Language != "es" {
		t.Errorf("language = %q, want es", got.Language)
	}

	clear, _ := ParseSettings([]byte(`{"max_responses":null}`))
	if got := MergeSettings(base, clear); got.MaxResponses.Value != nil {
		t.Errorf("max_responses = %v, want cleared", *got.MaxResponses.Value)
	}
}

func TestDisplaySettingsRoundTrip(t *testing.T) {
	yes := true
	raw, err := DisplaySettingsJSON(DisplaySettings{CollectEmail: &yes, Language: "es"})
	if err != nil {
		t.Fatal(err)
	}
	d := ParseDisplaySettings(raw)
	if d.CollectEmail == nil || !*d.CollectEmail || d.Language != "es" {
		t.Errorf("ParseDisplaySettings(%s) = %+v", raw, d)
	}
	if d := ParseDisplaySettings("not json"); d.Language != "" {
		t.Errorf("garbage settings should give zero value, got %+v", d)
	}
	var s SurveySettings
	if b, _ := json.Marshal(s); !json.Valid(b) {
		t.Errorf("zero settings marshal to invalid json: %s", b)
	}
}

package utils

import (
	"encoding/json"
	"errors"
)

// NullableInt distinguishes "absent" from an explicit null in a PATCH-like
// payload: {"max_responses": null} clears the limit, omitting it keeps it.
type NullableInt struct {
	Set   bool
	Value *int
}

func (n *NullableInt) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n NullableInt) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

// SurveySettings is the settings document exchanged with the editor.
// Publication fields end up in survey columns, display fields in settings_json.
type SurveySettings struct {
	MaxResponses           NullableInt `json:"max_responses"`
	IsAnonymous            *bool       `json:"is_anonymous,omitempty"`
	AllowMultipleResponses *bool       `json:"allow_multiple_responses,omitempty"`
	StartAt                *int64      `json:"start_at,omitempty"`  // unix seconds
	ExpireAt               *int64      `json:"expire_at,omitempty"` // unix seconds

	DisplaySettings
}

type DisplaySettings struct {
	CollectEmail     *bool  `json:"collect_email,omitempty"`
	ShowProgress     *bool  `json:"show_progress,omitempty"`
	ShuffleQuestions *bool  `json:"shuffle_questions,omitempty"`
	Language         string `json:"language,omitempty"`
}

// ValidateSettings clamps max_responses to at least 1 and checks the window.
func ValidateSettings(s *SurveySettings) error {
	if s == nil {
		return errors.New("empty settings")
	}
	if s.MaxResponses.Set && s.MaxResponses.Value != nil && *s.MaxResponses.Value < 1 {
		v := 1
		s.MaxResponses.Value = &v
	}
	if s.StartAt != nil && s.ExpireAt != nil && *s.ExpireAt <= *s.StartAt {
		return errors.New("expire_at must be after start_at")
	}
	return nil
}

func ParseSettings(raw []byte) (*SurveySettings, error) {
	if len(raw) == 0 {
		return &SurveySettings{}, nil
	}
	var s SurveySettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.New("settings is not valid JSON")
	}
	if err := ValidateSettings(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func ParseDisplaySettings(raw string) DisplaySettings {
	var d DisplaySettings
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &d)
	}
	return d
}

func DisplaySettingsJSON(d DisplaySettings) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MergeSettings overlays the fields present in patch onto base.
func MergeSettings(base *SurveySettings, patch *SurveySettings) *SurveySettings {
	if base == nil {
		base = &SurveySettings{}
	}
	if patch == nil {
		patch = &SurveySettings{}
	}
	out := *base

	if patch.MaxResponses.Set {
		out.MaxResponses = patch.MaxResponses
	}
	if patch.IsAnonymous != nil {
		out.IsAnonymous = patch.IsAnonymous
	}
	if patch.AllowMultipleResponses != nil {
		out.AllowMultipleResponses = patch.AllowMultipleResponses
	}
	if patch.StartAt != nil {
		out.StartAt = patch.StartAt
	}
	if patch.ExpireAt != nil {
		out.ExpireAt = patch.ExpireAt
	}
	if patch.CollectEmail != nil {
		out.CollectEmail = patch.CollectEmail
	}
	if patch.ShowProgress != nil {
		out.ShowProgress = patch.ShowProgress
	}
	if patch.ShuffleQuestions != nil {
		out.ShuffleQuestions = patch.ShuffleQuestions
	}
	if patch.Language != "" {
		out.Language = patch.Language
	}
	return &out
}

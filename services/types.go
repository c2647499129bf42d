package services

import (
	"strings"

	"github.com/vnkhanh/survey-collector/utils"
)

// QuestionType is the closed set of question kinds the normalizer knows.
type QuestionType string

const (
	TypeShortText      QuestionType = "SHORT_TEXT"
	TypeLongText       QuestionType = "LONG_TEXT"
	TypeNumber         QuestionType = "NUMBER"
	TypeEmail          QuestionType = "EMAIL"
	TypePhone          QuestionType = "PHONE"
	TypeURL            QuestionType = "URL"
	TypeDate           QuestionType = "DATE"
	TypeTime           QuestionType = "TIME"
	TypeDropdown       QuestionType = "DROPDOWN"
	TypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TypeCheckboxes     QuestionType = "CHECKBOXES"
	TypeScale          QuestionType = "SCALE"
	TypeRating         QuestionType = "RATING"
	TypeFileUpload     QuestionType = "FILE_UPLOAD"
	TypeSignature      QuestionType = "SIGNATURE"
	TypeMatrix         QuestionType = "MATRIX"
)

var AllQuestionTypes = []QuestionType{
	TypeShortText, TypeLongText, TypeNumber, TypeEmail, TypePhone, TypeURL,
	TypeDate, TypeTime, TypeDropdown, TypeMultipleChoice, TypeCheckboxes,
	TypeScale, TypeRating, TypeFileUpload, TypeSignature, TypeMatrix,
}

// older editor names
var typeAliases = map[string]QuestionType{
	"TEXT":          TypeShortText,
	"TEXTAREA":      TypeLongText,
	"PARAGRAPH":     TypeLongText,
	"SINGLE_CHOICE": TypeMultipleChoice,
	"RADIO":         TypeMultipleChoice,
	"SELECT":        TypeDropdown,
	"CHECKBOX":      TypeCheckboxes,
	"UPLOAD_FILE":   TypeFileUpload,
	"FILE":          TypeFileUpload,
}

// ParseQuestionType upper-cases the tag and resolves aliases. Unknown tags
// are returned as-is; Known reports false for them.
func ParseQuestionType(s string) QuestionType {
	tag := strings.ToUpper(strings.TrimSpace(s))
	tag = strings.NewReplacer("-", "_", " ", "_").Replace(tag)
	if t, ok := typeAliases[tag]; ok {
		return t
	}
	return QuestionType(tag)
}

func (t QuestionType) Known() bool {
	for _, k := range AllQuestionTypes {
		if k == t {
			return true
		}
	}
	return false
}

// HasOptions reports whether answers are checked against an option set.
func (t QuestionType) HasOptions() bool {
	switch t {
	case TypeDropdown, TypeMultipleChoice, TypeCheckboxes:
		return true
	}
	return false
}

// QuestionSchema is a question as the validator sees it: type resolved,
// options sanitized, rules parsed and the pattern compiled.
type QuestionSchema struct {
	ID       uint                   `json:"id"`
	SurveyID uint                   `json:"survey_id"`
	Title    string                 `json:"title"`
	Type     QuestionType           `json:"type"`
	Required bool                   `json:"required"`
	Options  []utils.QuestionOption `json:"options"`
	Rules    Rules                  `json:"validation"`
}

func (q *QuestionSchema) hasOption(value string) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

package services

import (
	"errors"
	"testing"

	"gorm.io/datatypes"

	"github.com/vnkhanh/survey-collector/models"
)

func TestCanonicalizeQuestion(t *testing.T) {
	tests := []struct {
		name        string
		q           models.Question
		wantErr     bool
		wantOptions int
	}{
		{
			name:        "options as objects",
			q:           models.Question{Type: "dropdown", Options: datatypes.JSON(`[{"value":"a","label":"A"},{"value":"","label":""}]`)},
			wantOptions: 1,
		},
		{
			name:        "options double encoded",
			q:           models.Question{Type: "CHECKBOXES", Options: datatypes.JSON(`"[\"x\",\"y\"]"`)},
			wantOptions: 2,
		},
		{
			name:    "malformed options",
			q:       models.Question{Type: "MULTIPLE_CHOICE", Options: datatypes.JSON(`[{"value":`)},
			wantErr: true,
		},
		{
			name:    "choice without options",
			q:       models.Question{Type: "MULTIPLE_CHOICE"},
			wantErr: true,
		},
		{
			name: "text ignores options",
			q:    models.Question{Type: "SHORT_TEXT", Options: datatypes.JSON(`{`)},
		},
		{
			name:    "bad validation",
			q:       models.Question{Type: "SHORT_TEXT", Validation: datatypes.JSON(`{"pattern":"["}`)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.q.ID, tt.q.Title = 7, "Pregunta"
			got, err := CanonicalizeQuestion(tt.q)
			if tt.wantErr {
				if !errors.Is(err, ErrSchemaInconsistency) {
					t.Fatalf("CanonicalizeQuestion() error = %v, want schema inconsistency", err)
				}
				if KindOf(err) != KindSchemaInconsistency {
					t.Errorf("kind = %q", KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("CanonicalizeQuestion() error = %v", err)
			}
			if len(got.Options) != tt.wantOptions {
				t.Errorf("options = %+v, want %d entries", got.Options, tt.wantOptions)
			}
		})
	}
}

package services

import (
	"context"
	"testing"

	"github.com/vnkhanh/survey-collector/testutil"
)

func TestReporter_Summary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := testutil.CreateSurvey(t, db)
	color := testutil.CreateQuestion(t, db, s.ID, testutil.QuestionSpec{Title: "Color", Type: "MULTIPLE_CHOICE", Options: `["rojo","azul","verde"]`})
	extras := testutil.CreateQuestion(t, db, s.ID, testutil.QuestionSpec{Title: "Extras", Type: "CHECKBOXES", Options: `["a","b"]`})
	rating := testutil.CreateQuestion(t, db, s.ID, testutil.QuestionSpec{Title: "Nota", Type: "RATING"})
	comment := testutil.CreateQuestion(t, db, s.ID, testutil.QuestionSpec{Title: "Comentario", Type: "LONG_TEXT"})
	svc := newTestService(t, db, SubmissionOptions{})

	submissions := [][]RawAnswer{
		{{QuestionID: color.ID, Value: "rojo"}, {QuestionID: extras.ID, Value: []interface{}{"a", "b"}}, {QuestionID: rating.ID, Value: 5}, {QuestionID: comment.ID, Value: "bien"}},
		{{QuestionID: color.ID, Value: "rojo"}, {QuestionID: extras.ID, Value: []interface{}{"a"}}, {QuestionID: rating.ID, Value: "3"}, {QuestionID: comment.ID, Value: "bien"}},
		{{QuestionID: color.ID, Value: "azul"}, {QuestionID: rating.ID, Value: 4}, {QuestionID: comment.ID, Value: ""}},
	}
	for i, answers := range submissions {
		if _, err := svc.Submit(context.Background(), SubmitRequest{SurveyID: s.ID, Answers: answers, IsComplete: true}); err != nil {
			t.Fatalf("Submit(%d) error = %v", i, err)
		}
	}

	summary, err := NewReporter(db, svc.Schemas()).Summary(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if len(summary) != 4 {
		t.Fatalf("summary entries = %d, want 4", len(summary))
	}

	colors := summary[0]
	if colors.Answered != 3 || len(colors.Options) != 3 {
		t.Fatalf("color summary = %+v", colors)
	}
	if colors.Options[0].Value != "rojo" || colors.Options[0].Count != 2 || colors.Options[2].Count != 0 {
		t.Errorf("color options = %+v", colors.Options)
	}

	if got := summary[1]; got.Answered != 2 || got.Options[0].Count != 2 || got.Options[1].Count != 1 {
		t.Errorf("extras summary = %+v", got)
	}

	nums := summary[2].Numeric
	if nums == nil || nums.Count != 3 || nums.Avg != 4 || nums.Min != 3 || nums.Max != 5 {
		t.Errorf("rating stats = %+v", nums)
	}

	if got := summary[3]; got.Answered != 2 || len(got.Values) != 1 || got.Values[0].Value != "bien" || got.Values[0].Percent != 100 {
		t.Errorf("comment summary = %+v", got)
	}
}

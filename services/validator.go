package services

import (
	"github.com/sirupsen/logrus"
)

type RawAnswer struct {
	QuestionID uint        `json:"questionId"`
	Value      interface{} `json:"value"`
}

type NormalizedAnswer struct {
	QuestionID uint        `json:"questionId"`
	Value      interface{} `json:"value"`
}

// Validator runs the normalizer over a whole submission. It stops at the
// first invalid question and returns that single error.
type Validator struct {
	log logrus.FieldLogger
}

func NewValidator(log logrus.FieldLogger) *Validator {
	return &Validator{log: log}
}

// Validate returns normalized answers in submission order. Answers to
// questions missing from the schema are skipped; schema questions missing
// from the submission are checked as empty answers but produce no output.
// It has no side effects, so repeated calls give identical results.
func (v *Validator) Validate(questions []QuestionSchema, answers []RawAnswer) ([]NormalizedAnswer, error) {
	byID := make(map[uint]*QuestionSchema, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	seen := make(map[uint]bool, len(answers))
	out := make([]NormalizedAnswer, 0, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			v.log.WithField("question_id", a.QuestionID).Warn("answer for unknown question skipped")
			continue
		}
		if seen[q.ID] {
			v.log.WithField("question_id", q.ID).Warn("duplicate answer skipped")
			continue
		}
		seen[q.ID] = true

		if !q.Type.Known() {
			v.log.WithFields(logrus.Fields{"question_id": q.ID, "type": q.Type}).Warn("unhandled question type, value stored as submitted")
		}
		value, err := NormalizeAnswer(q, a.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, NormalizedAnswer{QuestionID: q.ID, Value: value})
	}

	for i := range questions {
		q := &questions[i]
		if seen[q.ID] {
			continue
		}
		if _, err := NormalizeAnswer(q, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

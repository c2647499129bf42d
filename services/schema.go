package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/models"
	"github.com/vnkhanh/survey-collector/utils"
)

// QuestionStore lists the stored questions of a survey in display order.
type QuestionStore interface {
	ListQuestions(ctx context.Context, surveyID uint) ([]models.Question, error)
}

// Invalidator is implemented by stores that cache question lists.
type Invalidator interface {
	Invalidate(ctx context.Context, surveyID uint) error
}

type GormQuestionStore struct {
	db *gorm.DB
}

func NewGormQuestionStore(db *gorm.DB) *GormQuestionStore {
	return &GormQuestionStore{db: db}
}

func (s *GormQuestionStore) ListQuestions(ctx context.Context, surveyID uint) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("position ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

// SchemaLoader is the one place where stored options and validation bags
// are parsed. Everything downstream gets QuestionSchema values.
type SchemaLoader struct {
	store QuestionStore
}

func NewSchemaLoader(store QuestionStore) *SchemaLoader {
	return &SchemaLoader{store: store}
}

func (l *SchemaLoader) Load(ctx context.Context, surveyID uint) ([]QuestionSchema, error) {
	stored, err := l.store.ListQuestions(ctx, surveyID)
	if err != nil {
		return nil, storageError(ctx, fmt.Errorf("list questions of survey %d: %w", surveyID, err))
	}
	out := make([]QuestionSchema, 0, len(stored))
	for _, q := range stored {
		schema, err := CanonicalizeQuestion(q)
		if err != nil {
			return nil, err
		}
		out = append(out, schema)
	}
	return out, nil
}

// Invalidate drops any cached copy of the survey's questions.
func (l *SchemaLoader) Invalidate(ctx context.Context, surveyID uint) error {
	if inv, ok := l.store.(Invalidator); ok {
		return inv.Invalidate(ctx, surveyID)
	}
	return nil
}

// CanonicalizeQuestion parses a stored question. Malformed options or rules,
// and a choice question without any usable option, are schema errors.
func CanonicalizeQuestion(q models.Question) (QuestionSchema, error) {
	schema := QuestionSchema{
		ID:       q.ID,
		SurveyID: q.SurveyID,
		Title:    q.Title,
		Type:     ParseQuestionType(q.Type),
		Required: q.Required,
	}

	if schema.Type.HasOptions() {
		opts, err := utils.SanitizeOptions([]byte(q.Options))
		if err != nil {
			return schema, schemaInconsistency(q.ID, q.Title, err)
		}
		if len(opts) == 0 {
			return schema, schemaInconsistency(q.ID, q.Title, errors.New("choice question has no options"))
		}
		schema.Options = opts
	}

	rules, err := ParseRules([]byte(q.Validation))
	if err != nil {
		return schema, schemaInconsistency(q.ID, q.Title, err)
	}
	schema.Rules = rules
	return schema, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type ErrorKind string

const (
	KindSurveyNotFound       ErrorKind = "SurveyNotFound"
	KindSurveyNotPublished   ErrorKind = "SurveyNotPublished"
	KindSurveyOutsideWindow  ErrorKind = "SurveyOutsideWindow"
	KindResponseLimitReached ErrorKind = "ResponseLimitReached"
	KindDuplicateSubmission  ErrorKind = "DuplicateSubmission"
	KindRequiredFieldMissing ErrorKind = "RequiredFieldMissing"
	KindInvalidAnswerFormat  ErrorKind = "InvalidAnswerFormat"
	KindSchemaInconsistency  ErrorKind = "SchemaInconsistency"
	KindPersistenceFailure   ErrorKind = "PersistenceFailure"
	KindTimeout              ErrorKind = "Timeout"
)

var (
	ErrSurveyNotFound        = errors.New("survey not found")
	ErrNotAcceptingResponses = errors.New("survey is not accepting responses")
	ErrDuplicateSubmission   = errors.New("duplicate submission")
	ErrInvalidAnswer         = errors.New("invalid answer")
	ErrSchemaInconsistency   = errors.New("survey schema inconsistency")
	ErrPersistence           = errors.New("persistence failure")
	ErrTimeout               = errors.New("submission timed out")
)

// SubmissionError is the single rejection a submission produces. Message is
// safe to show to the respondent; Err keeps the underlying cause for logs.
type SubmissionError struct {
	Kind          ErrorKind
	QuestionID    uint
	QuestionTitle string
	Message       string
	Err           error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *SubmissionError) Is(target error) bool {
	return kindSentinel(e.Kind) == target
}

func kindSentinel(k ErrorKind) error {
	switch k {
	case KindSurveyNotFound:
		return ErrSurveyNotFound
	case KindSurveyNotPublished, KindSurveyOutsideWindow, KindResponseLimitReached:
		return ErrNotAcceptingResponses
	case KindDuplicateSubmission:
		return ErrDuplicateSubmission
	case KindRequiredFieldMissing, KindInvalidAnswerFormat:
		return ErrInvalidAnswer
	case KindSchemaInconsistency:
		return ErrSchemaInconsistency
	case KindTimeout:
		return ErrTimeout
	}
	return ErrPersistence
}

// KindOf reports the kind of a submission error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func requiredMissing(q *QuestionSchema) *SubmissionError {
	return &SubmissionError{
		Kind:          KindRequiredFieldMissing,
		QuestionID:    q.ID,
		QuestionTitle: q.Title,
		Message:       fmt.Sprintf("La pregunta '%s' es requerida y no fue respondida.", q.Title),
	}
}

func invalidAnswer(q *QuestionSchema, format string, args ...interface{}) *SubmissionError {
	return &SubmissionError{
		Kind:          KindInvalidAnswerFormat,
		QuestionID:    q.ID,
		QuestionTitle: q.Title,
		Message:       fmt.Sprintf(format, args...),
	}
}

func schemaInconsistency(questionID uint, title string, cause error) *SubmissionError {
	return &SubmissionError{
		Kind:          KindSchemaInconsistency,
		QuestionID:    questionID,
		QuestionTitle: title,
		Message:       fmt.Sprintf("La pregunta '%s' está mal configurada.", title),
		Err:           cause,
	}
}

func surveyNotFound(id uint) *SubmissionError {
	return &SubmissionError{
		Kind:    KindSurveyNotFound,
		Message: "La encuesta no existe.",
		Err:     fmt.Errorf("survey %d", id),
	}
}

func duplicateSubmission(cause error) *SubmissionError {
	return &SubmissionError{
		Kind:    KindDuplicateSubmission,
		Message: "Ya has respondido esta encuesta.",
		Err:     cause,
	}
}

// storageError classifies a failure coming out of the store.
func storageError(ctx context.Context, err error) error {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return &SubmissionError{
			Kind:    KindTimeout,
			Message: "No se pudo procesar la respuesta a tiempo. Inténtalo de nuevo.",
			Err:     err,
		}
	}
	return &SubmissionError{
		Kind:    KindPersistenceFailure,
		Message: "No se pudo guardar la respuesta.",
		Err:     err,
	}
}

const respondentIndex = "idx_response_respondent"

// isRespondentConflict reports whether err is the (survey_id, respondent_key)
// unique index rejecting an insert. Other unique violations are storage faults.
func isRespondentConflict(err error, keyed bool) bool {
	if err == nil || !keyed {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == respondentIndex
	}
	// sqlite drivers that do not translate errors
	if msg := err.Error(); strings.Contains(msg, "UNIQUE constraint failed") {
		return strings.Contains(msg, "survey_responses.respondent_key")
	}
	// translated errors drop the constraint name; respondent_key carries the
	// only unique index on survey_responses
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

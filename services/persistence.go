package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/models"
)

type Respondent struct {
	Email      *string `json:"email,omitempty"`
	IdentityID *uint   `json:"identityId,omitempty"`
	IPAddress  *string `json:"ipAddress,omitempty"`
	UserAgent  *string `json:"userAgent,omitempty"`
}

type PersistRequest struct {
	SurveyID   uint
	Respondent Respondent
	Answers    []NormalizedAnswer
	IsComplete bool
	StartedAt  *time.Time
}

// Coordinator writes a response, its answers and the daily counter in one
// transaction. It never retries; failures reach the caller unchanged.
type Coordinator struct {
	db       *gorm.DB
	counters CounterRecorder
	loc      *time.Location
	now      func() time.Time
	log      logrus.FieldLogger
}

func NewCoordinator(db *gorm.DB, counters CounterRecorder, loc *time.Location, log logrus.FieldLogger) *Coordinator {
	if loc == nil {
		loc = time.UTC
	}
	return &Coordinator{db: db, counters: counters, loc: loc, now: time.Now, log: log}
}

func (c *Coordinator) Persist(ctx context.Context, req PersistRequest) (*models.SurveyResponse, error) {
	now := c.now()
	answers, err := encodeAnswers(req.Answers)
	if err != nil {
		return nil, storageError(ctx, err)
	}

	var saved models.SurveyResponse
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		survey, err := loadSurvey(ctx, tx, req.SurveyID)
		if err != nil {
			return err
		}
		if err := CheckPublication(survey, now); err != nil {
			return err
		}

		resp := buildResponse(survey, req, now, answers)
		if resp.RespondentKey != nil {
			// best effort; the unique index decides under races
			var count int64
			if err := tx.Model(&models.SurveyResponse{}).
				Where("survey_id = ? AND respondent_key = ?", survey.ID, *resp.RespondentKey).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return duplicateSubmission(nil)
			}
		}
		if survey.MaxResponses != nil {
			var count int64
			if err := tx.Model(&models.SurveyResponse{}).
				Where("survey_id = ?", survey.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(*survey.MaxResponses) {
				return &SubmissionError{
					Kind:    KindResponseLimitReached,
					Message: "La encuesta alcanzó el límite de respuestas.",
				}
			}
		}

		if err := tx.Create(&resp).Error; err != nil {
			if isRespondentConflict(err, resp.RespondentKey != nil) {
				return duplicateSubmission(err)
			}
			return err
		}
		if err := c.counters.Record(tx, survey.ID, DayKey(now, c.loc), req.IsComplete); err != nil {
			return fmt.Errorf("record daily analytics: %w", err)
		}
		if req.IsComplete {
			if err := tx.Model(&models.Survey{}).
				Where("id = ?", survey.ID).
				UpdateColumn("response_count", gorm.Expr("response_count + 1")).Error; err != nil {
				return err
			}
		}
		saved = resp
		return nil
	})
	if err != nil {
		classified := storageError(ctx, err)
		if KindOf(classified) == KindPersistenceFailure {
			c.log.WithFields(logrus.Fields{
				"survey_id":   req.SurveyID,
				"answers":     len(req.Answers),
				"is_complete": req.IsComplete,
			}).WithError(err).Error("response transaction failed")
		}
		return nil, classified
	}
	return &saved, nil
}

func buildResponse(survey *models.Survey, req PersistRequest, now time.Time, answers []models.Answer) models.SurveyResponse {
	resp := models.SurveyResponse{
		SurveyID:   survey.ID,
		IPAddress:  req.Respondent.IPAddress,
		UserAgent:  req.Respondent.UserAgent,
		IsComplete: req.IsComplete,
		StartedAt:  now,
		Answers:    answers,
	}
	if req.StartedAt != nil && !req.StartedAt.After(now) {
		resp.StartedAt = *req.StartedAt
	}
	if req.IsComplete {
		completed := now
		resp.CompletedAt = &completed
	}
	if survey.IsAnonymous {
		return resp
	}

	resp.Email = cleanEmail(req.Respondent.Email)
	resp.RespondentID = req.Respondent.IdentityID
	if !survey.AllowMultipleResponses {
		resp.RespondentKey = respondentKey(resp.RespondentID, resp.Email)
	}
	return resp
}

func cleanEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.TrimSpace(*email)
	if e == "" {
		return nil
	}
	return &e
}

// respondentKey identifies a respondent for the one-response rule: the
// account when signed in, otherwise the lower-cased email.
func respondentKey(identityID *uint, email *string) *string {
	var key string
	switch {
	case identityID != nil:
		key = fmt.Sprintf("user:%d", *identityID)
	case email != nil:
		key = "email:" + strings.ToLower(*email)
	default:
		return nil
	}
	return &key
}

func encodeAnswers(in []NormalizedAnswer) ([]models.Answer, error) {
	out := make([]models.Answer, 0, len(in))
	for i, a := range in {
		row := models.Answer{QuestionID: a.QuestionID, Position: i}
		if a.Value != nil {
			b, err := json.Marshal(a.Value)
			if err != nil {
				return nil, fmt.Errorf("encode answer %d: %w", a.QuestionID, err)
			}
			row.Value = models.AnswerValue(b)
		}
		out = append(out, row)
	}
	return out, nil
}

package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/models"
)

// loadSurvey reads the survey row; deleted surveys count as missing.
func loadSurvey(ctx context.Context, db *gorm.DB, id uint) (*models.Survey, error) {
	var s models.Survey
	err := db.Where("id = ? AND status <> ?", id, models.SurveyStatusDeleted).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, surveyNotFound(id)
	}
	if err != nil {
		return nil, storageError(ctx, err)
	}
	return &s, nil
}

// CheckPublication reports whether the survey accepts a submission at now:
// it must be PUBLISHED and inside its [StartDate, EndDate] window.
func CheckPublication(s *models.Survey, now time.Time) error {
	if s.Status != models.SurveyStatusPublished {
		return &SubmissionError{
			Kind:    KindSurveyNotPublished,
			Message: "La encuesta no está publicada.",
		}
	}
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return &SubmissionError{
			Kind:    KindSurveyOutsideWindow,
			Message: "La encuesta aún no está disponible.",
		}
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return &SubmissionError{
			Kind:    KindSurveyOutsideWindow,
			Message: "La encuesta ya no acepta respuestas.",
		}
	}
	return nil
}

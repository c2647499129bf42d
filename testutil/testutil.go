// Package testutil builds throwaway databases and fixtures for tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/survey-collector/config"
	"github.com/vnkhanh/survey-collector/models"
)

// SetupTestDB opens a migrated sqlite database in a temp dir. A single
// connection is used so concurrent transactions queue instead of failing.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type SurveyOption func(*models.Survey)

func Anonymous() SurveyOption { return func(s *models.Survey) { s.IsAnonymous = true } }

func SingleResponse() SurveyOption {
	return func(s *models.Survey) { s.AllowMultipleResponses = false }
}

func WithStatus(status string) SurveyOption {
	return func(s *models.Survey) { s.Status = status }
}

func WithWindow(start, end *time.Time) SurveyOption {
	return func(s *models.Survey) {
		s.StartDate = start
		s.EndDate = end
	}
}

func WithMaxResponses(n int) SurveyOption {
	return func(s *models.Survey) { s.MaxResponses = &n }
}

func WithOwner(id uint) SurveyOption {
	return func(s *models.Survey) { s.OwnerID = &id }
}

func WithLink(link string) SurveyOption {
	return func(s *models.Survey) { s.CustomLink = &link }
}

// CreateSurvey inserts a published survey that accepts multiple responses.
func CreateSurvey(t *testing.T, db *gorm.DB, opts ...SurveyOption) *models.Survey {
	t.Helper()
	s := &models.Survey{
		Title:                  "Encuesta de prueba",
		Status:                 models.SurveyStatusPublished,
		AllowMultipleResponses: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("create survey: %v", err)
	}
	return s
}

// QuestionSpec describes a question fixture; Options and Validation are raw
// JSON as an editor would store them.
type QuestionSpec struct {
	Title      string
	Type       string
	Required   bool
	Options    string
	Validation string
}

func CreateQuestion(t *testing.T, db *gorm.DB, surveyID uint, spec QuestionSpec) *models.Question {
	t.Helper()
	var count int64
	db.Model(&models.Question{}).Where("survey_id = ?", surveyID).Count(&count)

	q := &models.Question{
		SurveyID: surveyID,
		Title:    spec.Title,
		Type:     spec.Type,
		Required: spec.Required,
		Position: int(count) + 1,
	}
	if q.Title == "" {
		q.Title = fmt.Sprintf("Pregunta %d", count+1)
	}
	if spec.Options != "" {
		q.Options = datatypes.JSON(spec.Options)
	}
	if spec.Validation != "" {
		q.Validation = datatypes.JSON(spec.Validation)
	}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}

func CreateUser(t *testing.T, db *gorm.DB, email string, admin bool) *models.User {
	t.Helper()
	u := &models.User{Name: "Test User", Email: email, IsAdmin: admin}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func CountRows(t *testing.T, db *gorm.DB, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/utils"
)

type SubmitRequest struct {
	SurveyID   uint
	Respondent Respondent
	Answers    []RawAnswer
	IsComplete bool
	StartedAt  *time.Time
}

type SubmitResult struct {
	ResponseID  uint               `json:"responseId"`
	Answers     []NormalizedAnswer `json:"answers"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
}

type SubmissionOptions struct {
	Location *time.Location
	Timeout  time.Duration
	Logger   logrus.FieldLogger
	// Counters replaces the daily counter writer; nil uses AnalyticsAggregator.
	Counters CounterRecorder
	Now      func() time.Time
}

// SubmissionService is the entry point for a single submission:
// publication gate, schema load, validation, then the atomic write.
type SubmissionService struct {
	db          *gorm.DB
	schemas     *SchemaLoader
	validator   *Validator
	coordinator *Coordinator
	timeout     time.Duration
	now         func() time.Time
	log         logrus.FieldLogger
}

func NewSubmissionService(db *gorm.DB, schemas *SchemaLoader, opts SubmissionOptions) *SubmissionService {
	if opts.Logger == nil {
		opts.Logger = utils.Logger
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Counters == nil {
		opts.Counters = NewAnalyticsAggregator(db)
	}
	coord := NewCoordinator(db, opts.Counters, opts.Location, opts.Logger)
	coord.now = opts.Now
	return &SubmissionService{
		db:          db,
		schemas:     schemas,
		validator:   NewValidator(opts.Logger),
		coordinator: coord,
		timeout:     opts.Timeout,
		now:         opts.Now,
		log:         opts.Logger,
	}
}

func (s *SubmissionService) Schemas() *SchemaLoader { return s.schemas }

// Submit validates and stores one submission. Nothing is written unless
// every answer passes.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	normalized, err := s.Validate(ctx, req.SurveyID, req.Answers)
	if err != nil {
		return nil, err
	}

	resp, err := s.coordinator.Persist(ctx, PersistRequest{
		SurveyID:   req.SurveyID,
		Respondent: req.Respondent,
		Answers:    normalized,
		IsComplete: req.IsComplete,
		StartedAt:  req.StartedAt,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"survey_id":   req.SurveyID,
		"response_id": resp.ID,
		"complete":    resp.IsComplete,
	}).Info("response stored")

	return &SubmitResult{
		ResponseID:  resp.ID,
		Answers:     normalized,
		CompletedAt: resp.CompletedAt,
	}, nil
}

// Validate runs the publication gate and the validator without writing.
func (s *SubmissionService) Validate(ctx context.Context, surveyID uint, answers []RawAnswer) ([]NormalizedAnswer, error) {
	survey, err := loadSurvey(ctx, s.db.WithContext(ctx), surveyID)
	if err != nil {
		return nil, err
	}
	if err := CheckPublication(survey, s.now()); err != nil {
		return nil, err
	}
	questions, err := s.schemas.Load(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	return s.validator.Validate(questions, answers)
}

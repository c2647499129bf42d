package services

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/survey-collector/models"
)

const dayLayout = "2006-01-02"

// CounterRecorder bumps the daily counter inside the caller's transaction.
type CounterRecorder interface {
	Record(tx *gorm.DB, surveyID uint, day string, complete bool) error
}

// AnalyticsAggregator owns the daily_analytics table.
type AnalyticsAggregator struct {
	db *gorm.DB
}

func NewAnalyticsAggregator(db *gorm.DB) *AnalyticsAggregator {
	return &AnalyticsAggregator{db: db}
}

// DayKey is the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dayLayout)
}

// Record adds one start (incomplete) or one completion (complete), never
// both. The increment happens in the database as a single upsert so
// concurrent submissions cannot lose updates.
func (a *AnalyticsAggregator) Record(tx *gorm.DB, surveyID uint, day string, complete bool) error {
	starts, completions := int64(1), int64(0)
	if complete {
		starts, completions = 0, 1
	}
	row := models.DailyAnalytics{
		SurveyID:    surveyID,
		Day:         day,
		Starts:      starts,
		Completions: completions,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "survey_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"starts":      gorm.Expr("daily_analytics.starts + ?", starts),
			"completions": gorm.Expr("daily_analytics.completions + ?", completions),
			"updated_at":  time.Now(),
		}),
	}).Create(&row).Error
}

// Daily returns the counters of a survey between from and to (inclusive,
// YYYY-MM-DD, either may be empty).
func (a *AnalyticsAggregator) Daily(ctx context.Context, surveyID uint, from, to string) ([]models.DailyAnalytics, error) {
	q := a.db.WithContext(ctx).Where("survey_id = ?", surveyID)
	if from != "" {
		q = q.Where("day >= ?", from)
	}
	if to != "" {
		q = q.Where("day <= ?", to)
	}
	var rows []models.DailyAnalytics
	err := q.Order("day ASC").Find(&rows).Error
	return rows, err
}

type AnalyticsTotals struct {
	Starts      int64 `json:"starts"`
	Completions int64 `json:"completions"`
}

func (a *AnalyticsAggregator) Totals(rows []models.DailyAnalytics) AnalyticsTotals {
	var t AnalyticsTotals
	for _, r := range rows {
		t.Starts += r.Starts
		t.Completions += r.Completions
	}
	return t
}

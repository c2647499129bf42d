package models

import "time"

// DailyAnalytics is one row per survey per calendar day.
type DailyAnalytics struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	SurveyID    uint      `gorm:"column:survey_id;not null;uniqueIndex:idx_daily_survey_day,priority:1" json:"survey_id"`
	Day         string    `gorm:"column:day;size:10;not null;uniqueIndex:idx_daily_survey_day,priority:2" json:"day"` // YYYY-MM-DD
	Starts      int64     `gorm:"column:starts;not null" json:"starts"`
	Completions int64     `gorm:"column:completions;not null" json:"completions"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (DailyAnalytics) TableName() string {
	return "daily_analytics"
}

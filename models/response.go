package models

import "time"

type SurveyResponse struct {
	ID       uint `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SurveyID uint `gorm:"column:survey_id;not null;index;uniqueIndex:idx_response_respondent,priority:1" json:"survey_id"`

	Email        *string `gorm:"column:email;size:255" json:"email"`
	RespondentID *uint   `gorm:"column:respondent_id;index" json:"respondent_id"`
	// Set only when the survey allows one response per respondent; the
	// unique index on (survey_id, respondent_key) enforces it.
	RespondentKey *string `gorm:"column:respondent_key;size:255;uniqueIndex:idx_response_respondent,priority:2" json:"-"`
	IPAddress     *string `gorm:"column:ip_address;size:64" json:"ip_address"`
	UserAgent     *string `gorm:"column:user_agent;type:text" json:"user_agent"`

	IsComplete  bool       `gorm:"column:is_complete;not null" json:"is_complete"`
	StartedAt   time.Time  `gorm:"column:started_at;not null;index" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`

	Answers []Answer `gorm:"foreignKey:ResponseID;constraint:OnDelete:CASCADE" json:"answers"`
}

func (SurveyResponse) TableName() string {
	return "survey_responses"
}

type Answer struct {
	ID         uint        `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ResponseID uint        `gorm:"column:response_id;not null;index" json:"-"`
	QuestionID uint        `gorm:"column:question_id;not null;index" json:"question_id"`
	Position   int         `gorm:"column:position;not null" json:"-"`
	Value      AnswerValue `gorm:"column:value" json:"value"` // NULL for an explicitly empty answer
}

func (Answer) TableName() string {
	return "answers"
}

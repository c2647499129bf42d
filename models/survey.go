package models

import "time"

const (
	SurveyStatusDraft     = "DRAFT"
	SurveyStatusPublished = "PUBLISHED"
	SurveyStatusClosed    = "CLOSED"
	SurveyStatusArchived  = "ARCHIVED"
	SurveyStatusDeleted   = "DELETED"
)

type Survey struct {
	ID          uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"column:title;size:255;not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`
	Status      string `gorm:"column:status;size:20;not null;index" json:"status"`
	OwnerID     *uint  `gorm:"column:owner_id;index" json:"owner_id"`

	// Public slug under which respondents reach the survey.
	CustomLink *string `gorm:"column:custom_link;size:255;uniqueIndex" json:"custom_link"`

	StartDate              *time.Time `gorm:"column:start_date" json:"start_date"`
	EndDate                *time.Time `gorm:"column:end_date" json:"end_date"`
	IsAnonymous            bool       `gorm:"column:is_anonymous;not null" json:"is_anonymous"`
	AllowMultipleResponses bool       `gorm:"column:allow_multiple_responses;not null" json:"allow_multiple_responses"`
	MaxResponses           *int       `gorm:"column:max_responses" json:"max_responses"`
	ResponseCount          int        `gorm:"column:response_count;not null" json:"response_count"`

	SettingsJSON  string `gorm:"column:settings_json;type:text" json:"-"`
	EditTokenHash string `gorm:"column:edit_token_hash;type:text" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Owner     *User            `gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Questions []Question       `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
	Responses []SurveyResponse `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Survey) TableName() string {
	return "surveys"
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question is the stored definition. Options and Validation are kept as the
// raw JSON the editor sent; services canonicalize them when loading a schema.
type Question struct {
	ID          uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SurveyID    uint           `gorm:"column:survey_id;not null;index" json:"survey_id"`
	Title       string         `gorm:"column:title;type:text;not null" json:"title"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Type        string         `gorm:"column:type;size:50;not null" json:"type"`
	Position    int            `gorm:"column:position;not null" json:"position"`
	Required    bool           `gorm:"column:required;not null" json:"required"`
	Options     datatypes.JSON `gorm:"column:options" json:"options"`
	Validation  datatypes.JSON `gorm:"column:validation" json:"validation"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

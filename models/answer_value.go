package models

import (
	"database/sql/driver"
	"strconv"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// AnswerValue is the stored JSON of one answer. It behaves like
// datatypes.JSON but also reads columns that sqlite coerced to a number
// (a JSON column has NUMERIC affinity there, so `7` comes back as int64).
type AnswerValue datatypes.JSON

func (v AnswerValue) Value() (driver.Value, error) {
	return datatypes.JSON(v).Value()
}

func (v *AnswerValue) Scan(src interface{}) error {
	switch n := src.(type) {
	case nil:
		*v = nil
		return nil
	case int64:
		*v = AnswerValue(strconv.FormatInt(n, 10))
		return nil
	case float64:
		*v = AnswerValue(strconv.FormatFloat(n, 'f', -1, 64))
		return nil
	}
	var j datatypes.JSON
	if err := j.Scan(src); err != nil {
		return err
	}
	*v = AnswerValue(j)
	return nil
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	return datatypes.JSON(v).MarshalJSON()
}

func (v *AnswerValue) UnmarshalJSON(b []byte) error {
	return (*datatypes.JSON)(v).UnmarshalJSON(b)
}

func (AnswerValue) GormDataType() string {
	return datatypes.JSON{}.GormDataType()
}

func (AnswerValue) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return datatypes.JSON{}.GormDBDataType(db, field)
}

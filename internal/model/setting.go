package model

import (
	"time"
)

// Setting is a single key/value configuration entry
type Setting struct {
	ID          uint    `gorm:"primaryKey"`
	Key         string  `gorm:"uniqueIndex;size:100;not null"`
	Value       *string `gorm:"type:text"`
	Description string  `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for Setting
func (Setting) TableName() string {
	return "settings"
}

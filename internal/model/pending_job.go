package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PendingJob is part of the schema shared with the automation service.
// Nothing in this application reads or writes it.
type PendingJob struct {
	ID         string `gorm:"type:varchar(36);primaryKey"`
	VideoID    string `gorm:"size:32;index;not null"`
	Status     string `gorm:"size:20;not null"`
	RetryCount int    `gorm:"default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for PendingJob
func (PendingJob) TableName() string {
	return "pending_job"
}

// BeforeCreate assigns a UUID when none is set
func (j *PendingJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

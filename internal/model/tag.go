package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag is a free-text label attached to videos
type Tag struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for Tag
func (Tag) TableName() string {
	return "tag"
}

// BeforeCreate assigns a UUID when none is set
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// VideoTag joins videos and tags
type VideoTag struct {
	VideoSummaryID string `gorm:"type:varchar(36);primaryKey"`
	TagID          string `gorm:"type:varchar(36);primaryKey"`
}

// TableName returns the table name for VideoTag
func (VideoTag) TableName() string {
	return "video_tag"
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel represents a YouTube channel tracked by the automation service
type Channel struct {
	ID              string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ChannelID       string    `gorm:"uniqueIndex;size:64;not null" json:"channel_id"`
	ChannelName     string    `gorm:"size:255" json:"channel_name"`
	Category        string    `gorm:"size:100" json:"category"`
	RSSURL          string    `gorm:"size:500" json:"rss_url"`
	IsOn            bool      `gorm:"default:true" json:"is_on"`
	Notes           string    `gorm:"type:text" json:"notes"`
	PrimaryLanguage string    `gorm:"size:16" json:"primary_language"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the table name for Channel
func (Channel) TableName() string {
	return "channel"
}

// BeforeCreate assigns a UUID when none is set
func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

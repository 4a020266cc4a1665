package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VideoSummary represents a summarised YouTube video.
// Rows are written by the external automation service through the insert API.
type VideoSummary struct {
	ID                 string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	VideoID            string     `gorm:"uniqueIndex;size:32;not null" json:"video_id"`
	Title              string     `gorm:"size:500" json:"title"`
	Summary            string     `gorm:"type:text" json:"summary"`
	Transcript         string     `gorm:"type:text" json:"transcript"`
	TranscriptLanguage string     `gorm:"size:16" json:"transcript_language"`
	ThumbnailURL       string     `gorm:"size:500" json:"thumbnail_url"`
	DurationSec        *int       `json:"duration_sec"`
	PublishDate        *time.Time `gorm:"index" json:"publish_date"`
	Views              *int64     `json:"views"`
	StarRating         *int       `json:"star_rating"`
	MetaLoaded         bool       `gorm:"default:false" json:"meta_loaded"`
	AIUpdated          bool       `gorm:"default:false" json:"ai_updated"`
	STTProcessed       bool       `gorm:"default:false" json:"stt_processed"`
	ChannelID          *string    `gorm:"type:varchar(36);index" json:"channel_id"`
	Channel            *Channel   `json:"channel"`
	Tags               []Tag      `gorm:"many2many:video_tag" json:"tags"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName returns the table name for VideoSummary
func (VideoSummary) TableName() string {
	return "video_summary"
}

// BeforeCreate assigns a UUID when none is set
func (v *VideoSummary) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// DeriveFlags sets the processing flags from the fields present at write time.
func (v *VideoSummary) DeriveFlags() {
	v.MetaLoaded = true
	v.AIUpdated = v.Summary != ""
	v.STTProcessed = v.Transcript != ""
}

// ChannelName returns the linked channel's display name, if any
func (v *VideoSummary) ChannelName() string {
	if v.Channel == nil {
		return ""
	}
	return v.Channel.ChannelName
}

package store

import (
	"context"
	"time"

	"github.com/user/summary-dashboard/internal/model"
)

// Store defines the interface for data persistence operations
type Store interface {
	// Setting operations
	GetSetting(ctx context.Context, key string) (*model.Setting, error)
	UpsertSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) ([]*model.Setting, error)

	// Video operations
	CreateVideo(ctx context.Context, video *model.VideoSummary, tags []string) error
	UpdateVideo(ctx context.Context, videoID string, update VideoUpdate) (bool, error)
	GetVideoByVideoID(ctx context.Context, videoID string) (*model.VideoSummary, error)
	ListVideos(ctx context.Context, query string) ([]*model.VideoSummary, error)
	CountVideos(ctx context.Context) (int64, error)
	ExistsByVideoID(ctx context.Context, videoID string) (bool, error)

	// Channel operations
	GetChannelByChannelID(ctx context.Context, channelID string) (*model.Channel, error)

	// Health check
	Ping(ctx context.Context) error
	Close() error
}

// VideoUpdate carries the metadata fields of a partial video update.
// Nil fields are left untouched.
type VideoUpdate struct {
	Title       *string
	Summary     *string
	Transcript  *string
	DurationSec *int
	PublishDate *time.Time
	Views       *int64
}

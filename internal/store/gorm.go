package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/user/summary-dashboard/internal/config"
	"github.com/user/summary-dashboard/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrDuplicate is returned when a unique key already exists
var ErrDuplicate = errors.New("record already exists")

// GormStore implements Store on top of gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the configured database and migrates the schema
func NewGormStore(cfg *config.DBConfig) (*GormStore, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	if cfg.Driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
		sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	s := &GormStore{db: db}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func dialectorFor(cfg *config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN()), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		dsn := cfg.DSN()
		if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates all tables
func (s *GormStore) Migrate() error {
	if err := s.db.SetupJoinTable(&model.VideoSummary{}, "Tags", &model.VideoTag{}); err != nil {
		return fmt.Errorf("failed to set up video_tag join table: %w", err)
	}
	if err := s.db.AutoMigrate(
		&model.Channel{},
		&model.Tag{},
		&model.VideoSummary{},
		&model.VideoTag{},
		&model.Setting{},
		&model.PendingJob{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// GetSetting retrieves a setting by key, nil when absent
func (s *GormStore) GetSetting(ctx context.Context, key string) (*model.Setting, error) {
	var setting model.Setting
	result := s.db.WithContext(ctx).Where(&model.Setting{Key: key}).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get setting %s: %w", key, result.Error)
	}
	return &setting, nil
}

// UpsertSetting writes a setting, updating value and updated_at when the key exists
func (s *GormStore) UpsertSetting(ctx context.Context, key, value string) error {
	setting := &model.Setting{Key: key, Value: &value}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(setting)
	if result.Error != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, result.Error)
	}
	return nil
}

// ListSettings returns all settings ordered by key
func (s *GormStore) ListSettings(ctx context.Context) ([]*model.Setting, error) {
	var settings []*model.Setting
	result := s.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&settings)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list settings: %w", result.Error)
	}
	return settings, nil
}

// CreateVideo inserts a video and links the named tags, creating missing ones.
// Returns ErrDuplicate when the video id is already stored.
func (s *GormStore) CreateVideo(ctx context.Context, video *model.VideoSummary, tags []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&model.VideoSummary{}).Where("video_id = ?", video.VideoID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check video existence: %w", err)
		}
		if existing > 0 {
			return ErrDuplicate
		}

		if err := tx.Omit(clause.Associations).Create(video).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to save video: %w", err)
		}

		linked := make([]model.Tag, 0, len(tags))
		seen := make(map[string]bool)
		for _, name := range tags {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true

			var tag model.Tag
			if err := tx.Where(model.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
				return fmt.Errorf("failed to save tag %s: %w", name, err)
			}
			join := &model.VideoTag{VideoSummaryID: video.ID, TagID: tag.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(join).Error; err != nil {
				return fmt.Errorf("failed to link tag %s: %w", name, err)
			}
			linked = append(linked, tag)
		}
		video.Tags = linked
		return nil
	})
}

// UpdateVideo applies a partial metadata update and re-derives the processing flags.
// Returns false when no video has the given id.
func (s *GormStore) UpdateVideo(ctx context.Context, videoID string, update VideoUpdate) (bool, error) {
	values := map[string]interface{}{
		"meta_loaded":   true,
		"ai_updated":    update.Summary != nil && *update.Summary != "",
		"stt_processed": update.Transcript != nil && *update.Transcript != "",
		"updated_at":    time.Now(),
	}
	if update.Title != nil {
		values["title"] = *update.Title
	}
	if update.Summary != nil {
		values["summary"] = *update.Summary
	}
	if update.Transcript != nil {
		values["transcript"] = *update.Transcript
	}
	if update.DurationSec != nil {
		values["duration_sec"] = *update.DurationSec
	}
	if update.PublishDate != nil {
		values["publish_date"] = *update.PublishDate
	}
	if update.Views != nil {
		values["views"] = *update.Views
	}

	result := s.db.WithContext(ctx).
		Model(&model.VideoSummary{}).
		Where("video_id = ?", videoID).
		Updates(values)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update video %s: %w", videoID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetVideoByVideoID retrieves a video with its channel and tags, nil when absent
func (s *GormStore) GetVideoByVideoID(ctx context.Context, videoID string) (*model.VideoSummary, error) {
	var video model.VideoSummary
	result := s.db.WithContext(ctx).
		Preload("Channel").
		Preload("Tags").
		Where("video_id = ?", videoID).
		First(&video)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get video by id: %w", result.Error)
	}
	return &video, nil
}

// ListVideos returns videos newest first by publish date.
// A non-empty query filters on title or summary, case-insensitively.
func (s *GormStore) ListVideos(ctx context.Context, query string) ([]*model.VideoSummary, error) {
	var videos []*model.VideoSummary
	tx := s.db.WithContext(ctx).
		Preload("Channel").
		Preload("Tags")

	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(summary) LIKE ?", pattern, pattern)
	}

	result := tx.
		Order("CASE WHEN publish_date IS NULL THEN 1 ELSE 0 END").
		Order("publish_date DESC").
		Order("created_at DESC").
		Find(&videos)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list videos: %w", result.Error)
	}
	return videos, nil
}

// CountVideos returns the total count of videos
func (s *GormStore) CountVideos(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.VideoSummary{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count videos: %w", result.Error)
	}
	return count, nil
}

// ExistsByVideoID checks if a video with the given YouTube id exists
func (s *GormStore) ExistsByVideoID(ctx context.Context, videoID string) (bool, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.VideoSummary{}).Where("video_id = ?", videoID).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check video existence: %w", result.Error)
	}
	return count > 0, nil
}

// GetChannelByChannelID retrieves a channel by its YouTube id, nil when absent
func (s *GormStore) GetChannelByChannelID(ctx context.Context, channelID string) (*model.Channel, error) {
	var channel model.Channel
	result := s.db.WithContext(ctx).Where("channel_id = ?", channelID).First(&channel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get channel: %w", result.Error)
	}
	return &channel, nil
}

// Ping checks database connectivity
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.Close()
}

// DB returns the underlying gorm.DB instance (for testing purposes)
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

package video

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/summary-dashboard/internal/metrics"
	"github.com/user/summary-dashboard/internal/model"
	"github.com/user/summary-dashboard/internal/store"
	"github.com/user/summary-dashboard/internal/webhook"
	"github.com/user/summary-dashboard/internal/youtube"
)

const defaultTranscriptLanguage = "ko"

var (
	ErrInvalidVideoURL  = errors.New("not a valid YouTube video URL")
	ErrInvalidChannelID = errors.New("not a valid YouTube channel id")
	ErrDuplicateVideo   = errors.New("video already added")
	ErrVideoIDRequired  = errors.New("video_id is required")
	ErrVideoNotFound    = errors.New("video not found")
	ErrInvalidDate      = errors.New("invalid publish_date")
)

// FailureKind classifies why a user action did not succeed
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureValidation FailureKind = "validation"
	FailureDuplicate  FailureKind = "duplicate"
	FailureDispatch   FailureKind = "dispatch"
	FailureBackend    FailureKind = "backend"
)

// Outcome is the result of a user-triggered action
type Outcome struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Error     string      `json:"error,omitempty"`
	Kind      FailureKind `json:"kind,omitempty"`
	VideoID   string      `json:"videoId,omitempty"`
	ChannelID string      `json:"channelId,omitempty"`
}

func succeeded(msg string) Outcome {
	return Outcome{Success: true, Message: msg}
}

func failed(kind FailureKind, msg string) Outcome {
	return Outcome{Kind: kind, Error: msg}
}

// Dispatcher is the subset of webhook dispatch the service needs
type Dispatcher interface {
	TriggerVideoAdded(ctx context.Context, videoID, videoURL string) bool
	TriggerVideoSummarized(ctx context.Context, v webhook.VideoFields) bool
	TriggerChannelMeta(ctx context.Context, channelID string) bool
}

// Store is the subset of persistence the service needs
type Store interface {
	CreateVideo(ctx context.Context, video *model.VideoSummary, tags []string) error
	UpdateVideo(ctx context.Context, videoID string, update store.VideoUpdate) (bool, error)
	GetVideoByVideoID(ctx context.Context, videoID string) (*model.VideoSummary, error)
	ListVideos(ctx context.Context, query string) ([]*model.VideoSummary, error)
	CountVideos(ctx context.Context) (int64, error)
	ExistsByVideoID(ctx context.Context, videoID string) (bool, error)
	GetChannelByChannelID(ctx context.Context, channelID string) (*model.Channel, error)
}

// Service implements the dashboard's video actions
type Service struct {
	store      Store
	dispatcher Dispatcher
}

// NewService creates a new video service
func NewService(store Store, dispatcher Dispatcher) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
	}
}

// AddVideo asks the automation service to summarise the video behind rawURL.
// Success means the webhook accepted the request; the record shows up later.
func (s *Service) AddVideo(ctx context.Context, rawURL string) Outcome {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return failed(FailureValidation, "Please enter a YouTube URL.")
	}
	if !youtube.IsVideoURL(rawURL) {
		return failed(FailureValidation, "Please enter a valid YouTube URL.")
	}
	videoID, ok := youtube.ExtractVideoID(rawURL)
	if !ok {
		return failed(FailureValidation, "Not a valid YouTube URL.")
	}

	exists, err := s.store.ExistsByVideoID(ctx, videoID)
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to check video existence")
		metrics.RecordError("database")
		out := failed(FailureBackend, "Something went wrong while adding the video.")
		out.VideoID = videoID
		return out
	}
	if exists {
		out := failed(FailureDuplicate, "This video has already been added.")
		out.VideoID = videoID
		return out
	}

	if !s.dispatcher.TriggerVideoAdded(ctx, videoID, rawURL) {
		out := failed(FailureDispatch, "The webhook call failed. Check the webhook URL in settings.")
		out.VideoID = videoID
		return out
	}

	log.Info().Str("video_id", videoID).Msg("Summary requested")
	out := succeeded("Summary request sent. The video appears on the dashboard once processing finishes.")
	out.VideoID = videoID
	return out
}

// RequestChannelMeta asks the automation service to load a channel's metadata.
// Nothing is checked or stored locally.
func (s *Service) RequestChannelMeta(ctx context.Context, input string) Outcome {
	if strings.TrimSpace(input) == "" {
		return failed(FailureValidation, "Please enter a channel id.")
	}
	channelID := youtube.ChannelIDFromInput(input)
	if !youtube.IsChannelID(channelID) {
		return failed(FailureValidation, "Please enter a valid YouTube channel id (e.g. UCbo-KbSjJDG6JWQ_MTZ_rNA).")
	}

	if !s.dispatcher.TriggerChannelMeta(ctx, channelID) {
		out := failed(FailureDispatch, "The webhook call failed. Check the webhook URL in settings.")
		out.ChannelID = channelID
		return out
	}

	out := succeeded("Channel metadata request sent.")
	out.ChannelID = channelID
	return out
}

// RequestSummary re-sends video_added for a stored video
func (s *Service) RequestSummary(ctx context.Context, videoID string) Outcome {
	v, out, ok := s.lookup(ctx, videoID)
	if !ok {
		return out
	}
	if !s.dispatcher.TriggerVideoAdded(ctx, v.VideoID, youtube.WatchURL(v.VideoID)) {
		out := failed(FailureDispatch, "The webhook call failed. Check the webhook URL in settings.")
		out.VideoID = v.VideoID
		return out
	}
	out = succeeded("Summary request sent.")
	out.VideoID = v.VideoID
	return out
}

// ShareSummary sends video_summarized with the stored record
func (s *Service) ShareSummary(ctx context.Context, videoID string) Outcome {
	v, out, ok := s.lookup(ctx, videoID)
	if !ok {
		return out
	}
	if v.Summary == "" {
		out := failed(FailureValidation, "This video has no summary yet.")
		out.VideoID = v.VideoID
		return out
	}
	if !s.dispatcher.TriggerVideoSummarized(ctx, FieldsOf(v)) {
		out := failed(FailureDispatch, "The webhook call failed. Check the webhook URL in settings.")
		out.VideoID = v.VideoID
		return out
	}
	out = succeeded("Summary shared.")
	out.VideoID = v.VideoID
	return out
}

func (s *Service) lookup(ctx context.Context, videoID string) (*model.VideoSummary, Outcome, bool) {
	v, err := s.store.GetVideoByVideoID(ctx, videoID)
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to load video")
		metrics.RecordError("database")
		return nil, failed(FailureBackend, "Something went wrong while loading the video."), false
	}
	if v == nil {
		return nil, failed(FailureValidation, "Video not found."), false
	}
	return v, Outcome{}, true
}

// FieldsOf maps a stored record onto webhook payload fields
func FieldsOf(v *model.VideoSummary) webhook.VideoFields {
	return webhook.VideoFields{
		VideoID:      v.VideoID,
		VideoURL:     youtube.WatchURL(v.VideoID),
		Title:        v.Title,
		Summary:      v.Summary,
		ThumbnailURL: v.ThumbnailURL,
		DurationSec:  v.DurationSec,
		PublishDate:  v.PublishDate,
		ChannelName:  v.ChannelName(),
	}
}

// TestWebhook re-triggers video_added for the given pair
func (s *Service) TestWebhook(ctx context.Context, videoID, videoURL string) bool {
	return s.dispatcher.TriggerVideoAdded(ctx, videoID, videoURL)
}

// Exists reports whether a video with the id is stored
func (s *Service) Exists(ctx context.Context, videoID string) (bool, error) {
	return s.store.ExistsByVideoID(ctx, videoID)
}

// Get returns a stored video, nil when absent
func (s *Service) Get(ctx context.Context, videoID string) (*model.VideoSummary, error) {
	return s.store.GetVideoByVideoID(ctx, videoID)
}

// List returns videos matching query, newest first
func (s *Service) List(ctx context.Context, query string) ([]*model.VideoSummary, error) {
	return s.store.ListVideos(ctx, query)
}

// Count returns the number of stored videos
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.CountVideos(ctx)
}

// CreateFromAutomation stores a video posted back by the automation service
func (s *Service) CreateFromAutomation(ctx context.Context, in Input) (*model.VideoSummary, error) {
	videoID := strings.TrimSpace(in.VideoID)
	if videoID == "" {
		return nil, ErrVideoIDRequired
	}

	v := &model.VideoSummary{
		VideoID:            videoID,
		Title:              in.Title,
		Summary:            in.Summary,
		Transcript:         in.Transcript,
		TranscriptLanguage: in.TranscriptLanguage,
		ThumbnailURL:       in.ThumbnailURL,
		DurationSec:        in.DurationSec.IntPtr(),
		Views:              in.Views.Int64Ptr(),
		StarRating:         in.StarRating.IntPtr(),
	}
	if v.ThumbnailURL == "" {
		v.ThumbnailURL = youtube.ThumbnailURL(videoID)
	}
	if v.TranscriptLanguage == "" {
		v.TranscriptLanguage = defaultTranscriptLanguage
	}
	publish, err := ParsePublishDate(in.PublishDate)
	if err != nil {
		return nil, err
	}
	v.PublishDate = publish
	v.DeriveFlags()

	if in.ChannelID != "" {
		ch, err := s.store.GetChannelByChannelID(ctx, in.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up channel: %w", err)
		}
		if ch != nil {
			v.ChannelID = &ch.ID
			v.Channel = ch
		} else {
			log.Warn().Str("channel_id", in.ChannelID).Str("video_id", videoID).Msg("Unknown channel, storing video unlinked")
		}
	}

	if err := s.store.CreateVideo(ctx, v, in.Tags); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateVideo
		}
		metrics.RecordError("database")
		return nil, err
	}

	log.Info().
		Str("video_id", v.VideoID).
		Bool("ai_updated", v.AIUpdated).
		Bool("stt_processed", v.STTProcessed).
		Msg("Video stored")
	return v, nil
}

// UpdateMetadata applies a partial update and re-derives the processing flags
// from the fields present in this write
func (s *Service) UpdateMetadata(ctx context.Context, videoID string, in Metadata) error {
	publish, err := ParsePublishDate(in.PublishDate)
	if err != nil {
		return err
	}
	update := store.VideoUpdate{
		Title:       in.Title,
		Summary:     in.Summary,
		Transcript:  in.Transcript,
		DurationSec: in.DurationSec.IntPtr(),
		PublishDate: publish,
		Views:       in.Views.Int64Ptr(),
	}

	found, err := s.store.UpdateVideo(ctx, videoID, update)
	if err != nil {
		metrics.RecordError("database")
		return err
	}
	if !found {
		return ErrVideoNotFound
	}
	log.Info().Str("video_id", videoID).Msg("Video metadata updated")
	return nil
}

// ParsePublishDate accepts RFC 3339 timestamps or plain dates; "" is absent
func ParsePublishDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrInvalidDate, raw)
}

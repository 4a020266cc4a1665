package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/summary-dashboard/internal/metrics"
	"github.com/user/summary-dashboard/internal/settings"
	"github.com/user/summary-dashboard/internal/youtube"
	"golang.org/x/time/rate"
)

// Event names carried in the payload
const (
	EventVideoAdded           = "video_added"
	EventVideoSummarized      = "video_summarized"
	EventChannelMetaRequested = "channel_meta_requested"
	EventVideoUpdated         = "video_updated"
)

// Payload is the JSON body of every outbound call
type Payload struct {
	Event        string `json:"event"`
	VideoID      string `json:"video_id,omitempty"`
	VideoURL     string `json:"video_url,omitempty"`
	ChannelID    string `json:"channel_id,omitempty"`
	RSSURL       string `json:"rss_url,omitempty"`
	Title        string `json:"title,omitempty"`
	Summary      string `json:"summary,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	DurationSec  *int   `json:"duration_sec,omitempty"`
	PublishDate  string `json:"publish_date,omitempty"`
	ChannelName  string `json:"channel_name,omitempty"`
	Timestamp    string `json:"timestamp"`
	Source       string `json:"source"`
	WebhookType  string `json:"webhook_type"`
}

// VideoFields are the record fields sent with video_summarized and video_updated
type VideoFields struct {
	VideoID      string
	VideoURL     string
	Title        string
	Summary      string
	ThumbnailURL string
	DurationSec  *int
	PublishDate  *time.Time
	ChannelName  string
}

// URLResolver resolves the destination URL of a webhook bucket
type URLResolver interface {
	WebhookURL(ctx context.Context, t settings.WebhookType) string
}

// Doer sends HTTP requests
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher sends one POST per event to the configured automation webhook
type Dispatcher struct {
	resolver URLResolver
	client   Doer
	limiter  *rate.Limiter
	source   string
	now      func() time.Time
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithClient replaces the HTTP client
func WithClient(c Doer) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithClock replaces the timestamp source
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a dispatcher pacing calls to ratePerSec
func NewDispatcher(resolver URLResolver, source string, ratePerSec float64, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver: resolver,
		client:   http.DefaultClient,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), 1),
		source:   source,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger stamps the payload and POSTs it to the URL of the bucket.
// Returns true only when a URL is configured and the response is 2xx.
// Failures are logged, never returned.
func (d *Dispatcher) Trigger(ctx context.Context, p Payload, t settings.WebhookType) bool {
	p.Timestamp = d.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	p.Source = d.source
	p.WebhookType = string(t)

	target := d.resolver.WebhookURL(ctx, t)
	if target == "" {
		log.Warn().
			Str("event", p.Event).
			Str("webhook_type", string(t)).
			Msg("Webhook URL not configured, skipping dispatch")
		metrics.RecordDispatch(p.Event, metrics.ResultUnconfigured)
		return false
	}

	if err := d.post(ctx, target, p); err != nil {
		log.Error().
			Err(err).
			Str("event", p.Event).
			Str("webhook_type", string(t)).
			Msg("Webhook dispatch failed")
		metrics.RecordDispatch(p.Event, metrics.ResultFailed)
		metrics.RecordError("webhook")
		return false
	}

	log.Info().
		Str("event", p.Event).
		Str("video_id", p.VideoID).
		Str("channel_id", p.ChannelID).
		Str("url", target).
		Msg("Webhook dispatched")
	metrics.RecordDispatch(p.Event, metrics.ResultSuccess)
	return true
}

func (d *Dispatcher) post(ctx context.Context, target string, p Payload) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	metrics.RecordDispatchDuration(time.Since(start))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// TriggerVideoAdded asks the automation service to ingest a video
func (d *Dispatcher) TriggerVideoAdded(ctx context.Context, videoID, videoURL string) bool {
	return d.Trigger(ctx, Payload{
		Event:        EventVideoAdded,
		VideoID:      videoID,
		VideoURL:     videoURL,
		ThumbnailURL: youtube.ThumbnailURL(videoID),
	}, settings.TypeVideoSummary)
}

// TriggerVideoSummarized forwards a finished summary
func (d *Dispatcher) TriggerVideoSummarized(ctx context.Context, v VideoFields) bool {
	return d.Trigger(ctx, v.payload(EventVideoSummarized), settings.TypeVideoSummary)
}

// TriggerChannelMeta asks the automation service to load a channel
func (d *Dispatcher) TriggerChannelMeta(ctx context.Context, channelID string) bool {
	return d.Trigger(ctx, Payload{
		Event:     EventChannelMetaRequested,
		ChannelID: channelID,
		RSSURL:    youtube.RSSURL(channelID),
	}, settings.TypeChannelMeta)
}

// TriggerVideoUpdated announces changed video metadata. Nothing calls it yet.
func (d *Dispatcher) TriggerVideoUpdated(ctx context.Context, v VideoFields) bool {
	return d.Trigger(ctx, v.payload(EventVideoUpdated), settings.TypeVideoSummary)
}

func (v VideoFields) payload(event string) Payload {
	p := Payload{
		Event:        event,
		VideoID:      v.VideoID,
		VideoURL:     v.VideoURL,
		Title:        v.Title,
		Summary:      v.Summary,
		ThumbnailURL: v.ThumbnailURL,
		DurationSec:  v.DurationSec,
		ChannelName:  v.ChannelName,
	}
	if p.VideoURL == "" && p.VideoID != "" {
		p.VideoURL = youtube.WatchURL(p.VideoID)
	}
	if v.PublishDate != nil {
		p.PublishDate = v.PublishDate.UTC().Format(time.RFC3339)
	}
	return p
}

package settings

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/user/summary-dashboard/internal/model"
)

// WebhookType selects which configured URL a dispatch resolves to
type WebhookType string

const (
	TypeDefault      WebhookType = "default"
	TypeVideoSummary WebhookType = "video_summary"
	TypeChannelMeta  WebhookType = "channel_meta"
)

// Setting keys of the webhook buckets
const (
	KeyDefault      = "make_webhook_url"
	KeyVideoSummary = "make_webhook_url_video_summary"
	KeyChannelMeta  = "make_webhook_url_channel_meta"
)

var (
	ErrUnknownType = errors.New("unknown webhook type")
	ErrInvalidURL  = errors.New("webhook URL must be an absolute http(s) URL")
	ErrReadOnly    = errors.New("webhook URL is set by the environment and cannot be changed")
)

// Types lists the webhook buckets in display order
var Types = []WebhookType{TypeVideoSummary, TypeChannelMeta, TypeDefault}

var webhookKeys = map[WebhookType]string{
	TypeDefault:      KeyDefault,
	TypeVideoSummary: KeyVideoSummary,
	TypeChannelMeta:  KeyChannelMeta,
}

var webhookLabels = map[WebhookType]string{
	TypeDefault:      "Default",
	TypeVideoSummary: "Video summary",
	TypeChannelMeta:  "Channel metadata",
}

// ParseType converts a string to a known WebhookType
func ParseType(s string) (WebhookType, error) {
	t := WebhookType(s)
	if _, ok := webhookKeys[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// Key returns the settings key of a webhook type
func (t WebhookType) Key() string {
	return webhookKeys[t]
}

// Label returns a human readable name of a webhook type
func (t WebhookType) Label() string {
	if l, ok := webhookLabels[t]; ok {
		return l
	}
	return string(t)
}

// Store is the subset of persistence the settings service needs
type Store interface {
	GetSetting(ctx context.Context, key string) (*model.Setting, error)
	UpsertSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) ([]*model.Setting, error)
}

// WebhookSetting describes one webhook bucket as shown on the settings page
type WebhookSetting struct {
	Type       WebhookType `json:"type"`
	Label      string      `json:"label"`
	Key        string      `json:"key"`
	URL        string      `json:"url"`
	Configured bool        `json:"configured"`
	ReadOnly   bool        `json:"read_only"`
}

// Service reads and writes configuration values.
// Every read goes to the store; nothing is cached.
type Service struct {
	store     Store
	overrides map[WebhookType]string
}

// NewService creates a settings service. Non-empty overrides take precedence
// over stored values and make their bucket read-only.
func NewService(store Store, overrides map[WebhookType]string) *Service {
	o := make(map[WebhookType]string)
	for t, u := range overrides {
		if u = strings.TrimSpace(u); u != "" {
			o[t] = u
		}
	}
	return &Service{store: store, overrides: o}
}

// Get returns the value stored under key; ok is false when the key is
// missing or holds no value
func (s *Service) Get(ctx context.Context, key string) (string, bool, error) {
	setting, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return "", false, err
	}
	if setting == nil || setting.Value == nil || *setting.Value == "" {
		return "", false, nil
	}
	return *setting.Value, true, nil
}

// Set writes value under key, inserting or updating
func (s *Service) Set(ctx context.Context, key, value string) error {
	if err := s.store.UpsertSetting(ctx, key, value); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to save setting")
		return err
	}
	return nil
}

// All returns every stored setting ordered by key
func (s *Service) All(ctx context.Context) ([]*model.Setting, error) {
	return s.store.ListSettings(ctx)
}

// IsReadOnly reports whether the bucket is pinned by an override
func (s *Service) IsReadOnly(t WebhookType) bool {
	_, ok := s.overrides[t]
	return ok
}

// WebhookURL resolves the URL for a bucket: the bucket's own value first,
// then the default bucket, then "" when nothing is configured.
// Store failures are logged and count as unset.
func (s *Service) WebhookURL(ctx context.Context, t WebhookType) string {
	if u := s.lookup(ctx, t); u != "" {
		return u
	}
	if t == TypeDefault {
		return ""
	}
	return s.lookup(ctx, TypeDefault)
}

func (s *Service) lookup(ctx context.Context, t WebhookType) string {
	if u, ok := s.overrides[t]; ok {
		return u
	}
	key, ok := webhookKeys[t]
	if !ok {
		return ""
	}
	value, _, err := s.Get(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to read setting")
		return ""
	}
	return value
}

// SetWebhookURL stores the URL of a bucket
func (s *Service) SetWebhookURL(ctx context.Context, t WebhookType, raw string) error {
	key, ok := webhookKeys[t]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	if s.IsReadOnly(t) {
		return ErrReadOnly
	}
	raw = strings.TrimSpace(raw)
	if !IsWebhookURL(raw) {
		return ErrInvalidURL
	}
	return s.Set(ctx, key, raw)
}

// WebhookSettings returns the effective state of every bucket.
// URL is the bucket's own value, without the default fallback.
func (s *Service) WebhookSettings(ctx context.Context) []WebhookSetting {
	out := make([]WebhookSetting, 0, len(Types))
	for _, t := range Types {
		u := s.lookup(ctx, t)
		out = append(out, WebhookSetting{
			Type:       t,
			Label:      t.Label(),
			Key:        t.Key(),
			URL:        u,
			Configured: u != "",
			ReadOnly:   s.IsReadOnly(t),
		})
	}
	return out
}

// IsWebhookURL reports whether raw is an absolute http or https URL
func IsWebhookURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

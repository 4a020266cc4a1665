package video

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/summary-dashboard/internal/model"
	"github.com/user/summary-dashboard/internal/store"
	"github.com/user/summary-dashboard/internal/webhook"
)

// MockStore is an in-memory video store
type MockStore struct {
	mu        sync.Mutex
	videos    map[string]*model.VideoSummary
	channels  map[string]*model.Channel
	tags      map[string][]string
	updates   []store.VideoUpdate
	failReads error
}

func NewMockStore() *MockStore {
	return &MockStore{
		videos:   make(map[string]*model.VideoSummary),
		channels: make(map[string]*model.Channel),
		tags:     make(map[string][]string),
	}
}

func (m *MockStore) CreateVideo(ctx context.Context, v *model.VideoSummary, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[v.VideoID]; ok {
		return store.ErrDuplicate
	}
	m.videos[v.VideoID] = v
	m.tags[v.VideoID] = tags
	return nil
}

func (m *MockStore) UpdateVideo(ctx context.Context, videoID string, update store.VideoUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[videoID]
	if !ok {
		return false, nil
	}
	m.updates = append(m.updates, update)
	if update.Title != nil {
		v.Title = *update.Title
	}
	v.MetaLoaded = true
	v.AIUpdated = update.Summary != nil && *update.Summary != ""
	v.STTProcessed = update.Transcript != nil && *update.Transcript != ""
	return true, nil
}

func (m *MockStore) GetVideoByVideoID(ctx context.Context, videoID string) (*model.VideoSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads != nil {
		return nil, m.failReads
	}
	return m.videos[videoID], nil
}

func (m *MockStore) ListVideos(ctx context.Context, query string) ([]*model.VideoSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads != nil {
		return nil, m.failReads
	}
	var out []*model.VideoSummary
	for _, v := range m.videos {
		if query == "" || strings.Contains(strings.ToLower(v.Title), strings.ToLower(query)) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *MockStore) CountVideos(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.videos)), nil
}

func (m *MockStore) ExistsByVideoID(ctx context.Context, videoID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads != nil {
		return false, m.failReads
	}
	_, ok := m.videos[videoID]
	return ok, nil
}

func (m *MockStore) GetChannelByChannelID(ctx context.Context, channelID string) (*model.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channels[channelID], nil
}

// MockDispatcher records calls and answers with a fixed result
type MockDispatcher struct {
	mu         sync.Mutex
	result     bool
	added      []string
	summarized []webhook.VideoFields
	channels   []string
}

func (d *MockDispatcher) TriggerVideoAdded(ctx context.Context, videoID, videoURL string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.added = append(d.added, videoID+" "+videoURL)
	return d.result
}

func (d *MockDispatcher) TriggerVideoSummarized(ctx context.Context, v webhook.VideoFields) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.summarized = append(d.summarized, v)
	return d.result
}

func (d *MockDispatcher) TriggerChannelMeta(ctx context.Context, channelID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels = append(d.channels, channelID)
	return d.result
}

func (d *MockDispatcher) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.added) + len(d.summarized) + len(d.channels)
}

func TestAddVideo(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		existing  string
		dispatch  bool
		failReads error
		wantOK    bool
		wantKind  FailureKind
		wantCalls int
	}{
		{
			name:      "new video dispatched",
			url:       "https://youtu.be/dQw4w9WgXcQ",
			dispatch:  true,
			wantOK:    true,
			wantCalls: 1,
		},
		{
			name:      "dispatch failure",
			url:       "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			dispatch:  false,
			wantKind:  FailureDispatch,
			wantCalls: 1,
		},
		{
			name:      "duplicate short-circuits",
			url:       "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42",
			existing:  "dQw4w9WgXcQ",
			dispatch:  true,
			wantKind:  FailureDuplicate,
			wantCalls: 0,
		},
		{
			name:      "not a url",
			url:       "not a url",
			dispatch:  true,
			wantKind:  FailureValidation,
			wantCalls: 0,
		},
		{
			name:      "empty input",
			url:       "   ",
			dispatch:  true,
			wantKind:  FailureValidation,
			wantCalls: 0,
		},
		{
			name:      "embed url rejected by the form shape",
			url:       "https://www.youtube.com/embed/dQw4w9WgXcQ",
			dispatch:  true,
			wantKind:  FailureValidation,
			wantCalls: 0,
		},
		{
			name:      "backend failure",
			url:       "https://youtu.be/dQw4w9WgXcQ",
			dispatch:  true,
			failReads: errors.New("connection reset"),
			wantKind:  FailureBackend,
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewMockStore()
			st.failReads = tt.failReads
			if tt.existing != "" {
				st.videos[tt.existing] = &model.VideoSummary{VideoID: tt.existing}
			}
			d := &MockDispatcher{result: tt.dispatch}
			svc := NewService(st, d)

			out := svc.AddVideo(context.Background(), tt.url)
			if out.Success != tt.wantOK {
				t.Errorf("AddVideo(%q).Success = %v, want %v (%+v)", tt.url, out.Success, tt.wantOK, out)
			}
			if out.Kind != tt.wantKind {
				t.Errorf("AddVideo(%q).Kind = %q, want %q", tt.url, out.Kind, tt.wantKind)
			}
			if tt.wantOK && out.Message == "" {
				t.Error("successful outcome should carry a message")
			}
			if !tt.wantOK && out.Error == "" {
				t.Error("failed outcome should carry an error message")
			}
			if got := d.calls(); got != tt.wantCalls {
				t.Errorf("dispatcher calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestAddVideo_PassesOriginalURL(t *testing.T) {
	d := &MockDispatcher{result: true}
	svc := NewService(NewMockStore(), d)

	svc.AddVideo(context.Background(), "  https://youtu.be/dQw4w9WgXcQ ")
	if len(d.added) != 1 || d.added[0] != "dQw4w9WgXcQ https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("dispatched = %v", d.added)
	}
}

func TestRequestChannelMeta(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		dispatch  bool
		wantOK    bool
		wantID    string
		wantCalls int
	}{
		{"valid id", "UCbo-KbSjJDG6JWQ_MTZ_rNA", true, true, "UCbo-KbSjJDG6JWQ_MTZ_rNA", 1},
		{"channel url", "https://www.youtube.com/channel/UCbo-KbSjJDG6JWQ_MTZ_rNA", true, true, "UCbo-KbSjJDG6JWQ_MTZ_rNA", 1},
		{"dispatch failure", "UCbo-KbSjJDG6JWQ_MTZ_rNA", false, false, "UCbo-KbSjJDG6JWQ_MTZ_rNA", 1},
		{"too short", "UCbo-KbSjJDG6JWQ", true, false, "", 0},
		{"wrong prefix", "UXbo-KbSjJDG6JWQ_MTZ_rNA", true, false, "", 0},
		{"empty", "", true, false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &MockDispatcher{result: tt.dispatch}
			svc := NewService(NewMockStore(), d)

			out := svc.RequestChannelMeta(context.Background(), tt.input)
			if out.Success != tt.wantOK {
				t.Errorf("RequestChannelMeta(%q).Success = %v, want %v", tt.input, out.Success, tt.wantOK)
			}
			if out.ChannelID != tt.wantID {
				t.Errorf("RequestChannelMeta(%q).ChannelID = %q, want %q", tt.input, out.ChannelID, tt.wantID)
			}
			if d.calls() != tt.wantCalls {
				t.Errorf("dispatcher calls = %d, want %d", d.calls(), tt.wantCalls)
			}
		})
	}
}

func TestRequestSummary(t *testing.T) {
	st := NewMockStore()
	st.videos["abc123"] = &model.VideoSummary{VideoID: "abc123"}
	d := &MockDispatcher{result: true}
	svc := NewService(st, d)

	out := svc.RequestSummary(context.Background(), "abc123")
	if !out.Success {
		t.Fatalf("RequestSummary() = %+v", out)
	}
	if d.added[0] != "abc123 https://www.youtube.com/watch?v=abc123" {
		t.Errorf("dispatched = %v", d.added)
	}

	if out := svc.RequestSummary(context.Background(), "missing"); out.Success {
		t.Error("RequestSummary(missing) should fail")
	}
}

func TestShareSummary(t *testing.T) {
	st := NewMockStore()
	duration := 90
	st.videos["withsummary"] = &model.VideoSummary{
		VideoID:     "withsummary",
		Title:       "Title",
		Summary:     "Summary",
		DurationSec: &duration,
		Channel:     &model.Channel{ChannelName: "Channel"},
	}
	st.videos["nosummary"] = &model.VideoSummary{VideoID: "nosummary"}
	d := &MockDispatcher{result: true}
	svc := NewService(st, d)

	if out := svc.ShareSummary(context.Background(), "withsummary"); !out.Success {
		t.Fatalf("ShareSummary() = %+v", out)
	}
	got := d.summarized[0]
	if got.Summary != "Summary" || got.ChannelName != "Channel" || *got.DurationSec != 90 {
		t.Errorf("summarized fields = %+v", got)
	}

	if out := svc.ShareSummary(context.Background(), "nosummary"); out.Success || out.Kind != FailureValidation {
		t.Errorf("ShareSummary(nosummary) = %+v, want validation failure", out)
	}
	if len(d.summarized) != 1 {
		t.Errorf("summarized calls = %d, want 1", len(d.summarized))
	}
}

func TestCreateFromAutomation(t *testing.T) {
	st := NewMockStore()
	st.channels["UCbo-KbSjJDG6JWQ_MTZ_rNA"] = &model.Channel{ID: "chan-uuid", ChannelID: "UCbo-KbSjJDG6JWQ_MTZ_rNA"}
	svc := NewService(st, &MockDispatcher{})
	ctx := context.Background()

	v, err := svc.CreateFromAutomation(ctx, Input{
		VideoID:     "dQw4w9WgXcQ",
		Title:       "Never Gonna Give You Up",
		Summary:     "A summary",
		DurationSec: FlexInt{Value: 212, Set: true},
		PublishDate: "2009-10-25",
		ChannelID:   "UCbo-KbSjJDG6JWQ_MTZ_rNA",
		Tags:        []string{"music"},
	})
	if err != nil {
		t.Fatalf("CreateFromAutomation() error = %v", err)
	}
	if v.ThumbnailURL != "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg" {
		t.Errorf("ThumbnailURL = %q", v.ThumbnailURL)
	}
	if v.TranscriptLanguage != "ko" {
		t.Errorf("TranscriptLanguage = %q, want ko", v.TranscriptLanguage)
	}
	if !v.MetaLoaded || !v.AIUpdated || v.STTProcessed {
		t.Errorf("flags = meta %v ai %v stt %v, want true true false", v.MetaLoaded, v.AIUpdated, v.STTProcessed)
	}
	if v.ChannelID == nil || *v.ChannelID != "chan-uuid" {
		t.Errorf("ChannelID = %v, want chan-uuid", v.ChannelID)
	}
	if v.PublishDate == nil || !v.PublishDate.Equal(time.Date(2009, 10, 25, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("PublishDate = %v", v.PublishDate)
	}
	if len(st.tags["dQw4w9WgXcQ"]) != 1 {
		t.Errorf("tags = %v", st.tags["dQw4w9WgXcQ"])
	}

	if _, err := svc.CreateFromAutomation(ctx, Input{VideoID: "dQw4w9WgXcQ"}); !errors.Is(err, ErrDuplicateVideo) {
		t.Errorf("duplicate insert error = %v, want ErrDuplicateVideo", err)
	}
	if _, err := svc.CreateFromAutomation(ctx, Input{Title: "no id"}); !errors.Is(err, ErrVideoIDRequired) {
		t.Errorf("missing id error = %v, want ErrVideoIDRequired", err)
	}
	if _, err := svc.CreateFromAutomation(ctx, Input{VideoID: "x", PublishDate: "yesterday"}); err == nil {
		t.Error("invalid publish date should fail")
	}
}

func TestCreateFromAutomation_KeepsProvidedValues(t *testing.T) {
	svc := NewService(NewMockStore(), &MockDispatcher{})

	v, err := svc.CreateFromAutomation(context.Background(), Input{
		VideoID:            "abc",
		ThumbnailURL:       "https://cdn.example.com/t.jpg",
		TranscriptLanguage: "en",
		Transcript:         "words",
	})
	if err != nil {
		t.Fatalf("CreateFromAutomation() error = %v", err)
	}
	if v.ThumbnailURL != "https://cdn.example.com/t.jpg" || v.TranscriptLanguage != "en" {
		t.Errorf("got thumbnail %q language %q", v.ThumbnailURL, v.TranscriptLanguage)
	}
	if v.AIUpdated || !v.STTProcessed {
		t.Errorf("flags = ai %v stt %v, want false true", v.AIUpdated, v.STTProcessed)
	}
}

func TestUpdateMetadata(t *testing.T) {
	st := NewMockStore()
	st.videos["abc"] = &model.VideoSummary{VideoID: "abc", AIUpdated: true}
	svc := NewService(st, &MockDispatcher{})
	ctx := context.Background()

	title := "New title"
	if err := svc.UpdateMetadata(ctx, "abc", Metadata{Title: &title, Views: FlexInt{Value: 10, Set: true}}); err != nil {
		t.Fatalf("UpdateMetadata() error = %v", err)
	}
	if st.videos["abc"].Title != "New title" {
		t.Errorf("Title = %q", st.videos["abc"].Title)
	}
	if st.videos["abc"].AIUpdated {
		t.Error("AIUpdated should be re-derived from this write")
	}
	if v := st.updates[0].Views; v == nil || *v != 10 {
		t.Errorf("Views update = %v", v)
	}

	if err := svc.UpdateMetadata(ctx, "missing", Metadata{}); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("UpdateMetadata(missing) error = %v, want ErrVideoNotFound", err)
	}
}

func TestTestWebhook(t *testing.T) {
	d := &MockDispatcher{result: true}
	svc := NewService(NewMockStore(), d)

	if !svc.TestWebhook(context.Background(), "abc", "https://youtu.be/abc") {
		t.Error("TestWebhook() = false, want true")
	}
	if d.added[0] != "abc https://youtu.be/abc" {
		t.Errorf("dispatched = %v", d.added)
	}
}

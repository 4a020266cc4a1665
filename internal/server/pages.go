package server

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/user/summary-dashboard/internal/model"
	"github.com/user/summary-dashboard/internal/settings"
	"github.com/user/summary-dashboard/internal/video"
)

// Notice levels
const (
	levelSuccess = "success"
	levelError   = "error"
)

// page is the data shared by every template
type page struct {
	Title   string
	Active  string
	Notice  string
	Level   string
	Refresh int
	// RefreshURL is the reload target when it differs from the current URL
	RefreshURL string
}

type dashboardPage struct {
	page
	Query  string
	View   string
	Videos []*model.VideoSummary
	Count  int
}

type detailPage struct {
	page
	Video *model.VideoSummary
}

type videoFormPage struct {
	page
	URL string
}

type channelFormPage struct {
	page
	ChannelID string
}

type settingsPage struct {
	page
	Webhooks []settings.WebhookSetting
}

type errorPage struct {
	page
	Status  int
	Message string
	Retry   string
}

func (s *Server) basePage(r *http.Request, active string) page {
	q := r.URL.Query()
	p := page{
		Title:  s.opts.Title,
		Active: active,
		Notice: q.Get("notice"),
		Level:  q.Get("level"),
	}
	if p.Notice != "" && p.Level != levelError {
		p.Level = levelSuccess
	}
	return p
}

// render executes a page template into a buffer so failures can still
// produce a clean 500
func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Error().Str("template", name).Msg("Unknown template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, status, "error", errorPage{
		page:    s.basePage(r, ""),
		Status:  status,
		Message: msg,
		Retry:   r.URL.RequestURI(),
	})
}

// refreshTarget returns the current URL without the one-shot notice,
// or "" when there is none to drop
func refreshTarget(r *http.Request) string {
	q := r.URL.Query()
	if !q.Has("notice") && !q.Has("level") {
		return ""
	}
	q.Del("notice")
	q.Del("level")
	target := r.URL.Path
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	return target
}

// redirectWithNotice sends a 303 to target carrying a notice
func redirectWithNotice(w http.ResponseWriter, r *http.Request, target, notice, level string) {
	q := url.Values{}
	q.Set("notice", notice)
	q.Set("level", level)
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	http.Redirect(w, r, target+sep+q.Encode(), http.StatusSeeOther)
}

// GET /dashboard?query=&view=grid|list
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	viewMode := r.URL.Query().Get("view")
	if viewMode != "list" {
		viewMode = "grid"
	}

	videos, err := s.videos.List(r.Context(), query)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load dashboard")
		s.renderError(w, r, http.StatusInternalServerError, "Could not load videos.")
		return
	}

	p := s.basePage(r, "dashboard")
	p.Refresh = int(s.opts.RefreshInterval.Seconds())
	p.RefreshURL = refreshTarget(r)
	s.render(w, http.StatusOK, "dashboard", dashboardPage{
		page:   p,
		Query:  query,
		View:   viewMode,
		Videos: videos,
		Count:  len(videos),
	})
}

// GET /videos/{videoID}
func (s *Server) handleVideoDetail(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	v, err := s.videos.Get(r.Context(), videoID)
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to load video")
		s.renderError(w, r, http.StatusInternalServerError, "Could not load the video.")
		return
	}
	if v == nil {
		s.renderError(w, r, http.StatusNotFound, "Video not found.")
		return
	}
	s.render(w, http.StatusOK, "detail", detailPage{page: s.basePage(r, "dashboard"), Video: v})
}

// POST /videos/{videoID}/summarize
func (s *Server) handleRequestSummary(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	s.redirectOutcome(w, r, "/videos/"+url.PathEscape(videoID), s.videos.RequestSummary(r.Context(), videoID))
}

// POST /videos/{videoID}/share
func (s *Server) handleShareSummary(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	s.redirectOutcome(w, r, "/videos/"+url.PathEscape(videoID), s.videos.ShareSummary(r.Context(), videoID))
}

func (s *Server) redirectOutcome(w http.ResponseWriter, r *http.Request, target string, out video.Outcome) {
	if out.Success {
		redirectWithNotice(w, r, target, out.Message, levelSuccess)
		return
	}
	redirectWithNotice(w, r, target, out.Error, levelError)
}

// GET /videos/new
func (s *Server) handleNewVideoForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "video_form", videoFormPage{page: s.basePage(r, "add-video")})
}

// POST /videos
func (s *Server) handleAddVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	rawURL := r.PostForm.Get("url")

	out := s.videos.AddVideo(r.Context(), rawURL)
	if out.Success {
		redirectWithNotice(w, r, "/dashboard", out.Message, levelSuccess)
		return
	}

	p := s.basePage(r, "add-video")
	p.Notice, p.Level = out.Error, levelError
	s.render(w, http.StatusUnprocessableEntity, "video_form", videoFormPage{page: p, URL: rawURL})
}

// GET /channels/new
func (s *Server) handleNewChannelForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "channel_form", channelFormPage{page: s.basePage(r, "add-channel")})
}

// POST /channels/meta
func (s *Server) handleRequestChannelMeta(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	channelID := r.PostForm.Get("channel_id")

	out := s.videos.RequestChannelMeta(r.Context(), channelID)
	if out.Success {
		redirectWithNotice(w, r, "/dashboard", out.Message, levelSuccess)
		return
	}

	p := s.basePage(r, "add-channel")
	p.Notice, p.Level = out.Error, levelError
	s.render(w, http.StatusUnprocessableEntity, "channel_form", channelFormPage{page: p, ChannelID: channelID})
}

// GET /settings
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "settings", settingsPage{
		page:     s.basePage(r, "settings"),
		Webhooks: s.settings.WebhookSettings(r.Context()),
	})
}

// POST /settings/webhooks/{type}
func (s *Server) handleSaveWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	t, err := settings.ParseType(chi.URLParam(r, "type"))
	if err == nil {
		err = s.settings.SetWebhookURL(r.Context(), t, r.PostForm.Get("url"))
	}
	if err == nil {
		redirectWithNotice(w, r, "/settings", t.Label()+" webhook URL saved.", levelSuccess)
		return
	}

	status := webhookErrorStatus(err)
	if status == http.StatusBadRequest {
		status = http.StatusUnprocessableEntity
	}
	msg := "Saving the webhook URL failed."
	if status != http.StatusInternalServerError {
		msg = err.Error()
	}
	p := s.basePage(r, "settings")
	p.Notice, p.Level = msg, levelError
	s.render(w, status, "settings", settingsPage{page: p, Webhooks: s.settings.WebhookSettings(r.Context())})
}

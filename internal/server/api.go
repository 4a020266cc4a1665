package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/user/summary-dashboard/internal/model"
	"github.com/user/summary-dashboard/internal/settings"
	"github.com/user/summary-dashboard/internal/video"
)

// maxBodyBytes bounds JSON request bodies; transcripts can be long
const maxBodyBytes = 8 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// outcomeStatus maps a failed outcome to an HTTP status
func outcomeStatus(out video.Outcome) int {
	if out.Success {
		return http.StatusOK
	}
	switch out.Kind {
	case video.FailureValidation:
		return http.StatusUnprocessableEntity
	case video.FailureDuplicate:
		return http.StatusConflict
	case video.FailureDispatch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// POST /api/videos, called by the automation service
func (s *Server) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var in video.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v, err := s.videos.CreateFromAutomation(r.Context(), in)
	switch {
	case errors.Is(err, video.ErrVideoIDRequired):
		writeError(w, http.StatusBadRequest, "video_id is required")
		return
	case errors.Is(err, video.ErrDuplicateVideo):
		writeError(w, http.StatusConflict, "video already exists")
		return
	case errors.Is(err, video.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Str("video_id", in.VideoID).Msg("Failed to create video")
		writeError(w, http.StatusInternalServerError, "Failed to create video")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"video":   v,
	})
}

// GET /api/videos?query=
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.videos.List(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list videos")
		writeError(w, http.StatusInternalServerError, "Failed to list videos")
		return
	}
	if videos == nil {
		videos = []*model.VideoSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"videos": videos,
		"count":  len(videos),
	})
}

// GET /api/videos/{videoID}
func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	v, err := s.videos.Get(r.Context(), videoID)
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to get video")
		writeError(w, http.StatusInternalServerError, "Failed to get video")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// PATCH /api/videos/{videoID}
func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")

	var in video.Metadata
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.videos.UpdateMetadata(r.Context(), videoID, in)
	switch {
	case errors.Is(err, video.ErrVideoNotFound):
		writeError(w, http.StatusNotFound, "video not found")
		return
	case errors.Is(err, video.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Str("video_id", videoID).Msg("Failed to update video")
		writeError(w, http.StatusInternalServerError, "Failed to update video")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// POST /api/videos/add {url}
func (s *Server) handleAPIAddVideo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out := s.videos.AddVideo(r.Context(), body.URL)
	writeJSON(w, outcomeStatus(out), out)
}

// POST /api/channels/meta {channelId}
func (s *Server) handleAPIChannelMeta(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChannelID string `json:"channelId"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out := s.videos.RequestChannelMeta(r.Context(), body.ChannelID)
	writeJSON(w, outcomeStatus(out), out)
}

// POST /api/test-webhook {videoId, videoUrl}
func (s *Server) handleTestWebhook(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VideoID  string `json:"videoId"`
		VideoURL string `json:"videoUrl"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.VideoID == "" || body.VideoURL == "" {
		writeError(w, http.StatusBadRequest, "videoId and videoUrl are required")
		return
	}

	ok := s.videos.TestWebhook(r.Context(), body.VideoID, body.VideoURL)
	msg := "Webhook triggered successfully"
	if !ok {
		msg = "Webhook trigger failed"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  ok,
		"message":  msg,
		"videoId":  body.VideoID,
		"videoUrl": body.VideoURL,
	})
}

// GET /api/settings/webhooks
func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"webhooks": s.settings.WebhookSettings(r.Context()),
	})
}

// PUT /api/settings/webhooks/{type} {url}
func (s *Server) handlePutWebhook(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := settings.ParseType(chi.URLParam(r, "type"))
	if err == nil {
		err = s.settings.SetWebhookURL(r.Context(), t, body.URL)
	}
	if err != nil {
		writeError(w, webhookErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func webhookErrorStatus(err error) int {
	switch {
	case errors.Is(err, settings.ErrUnknownType):
		return http.StatusNotFound
	case errors.Is(err, settings.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, settings.ErrReadOnly):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

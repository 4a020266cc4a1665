package video

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Input is the body the automation service posts to create a video
type Input struct {
	VideoID            string   `json:"video_id"`
	Title              string   `json:"title"`
	Summary            string   `json:"summary"`
	Transcript         string   `json:"transcript"`
	TranscriptLanguage string   `json:"transcript_language"`
	ThumbnailURL       string   `json:"thumbnail_url"`
	DurationSec        FlexInt  `json:"duration_sec"`
	PublishDate        string   `json:"publish_date"`
	Views              FlexInt  `json:"views"`
	StarRating         FlexInt  `json:"star_rating"`
	ChannelID          string   `json:"channel_id"`
	ChannelName        string   `json:"channel_name"`
	Tags               []string `json:"tags"`
}

// Metadata is a partial update of a stored video
type Metadata struct {
	Title       *string `json:"title"`
	Summary     *string `json:"summary"`
	Transcript  *string `json:"transcript"`
	DurationSec FlexInt `json:"duration_sec"`
	PublishDate string  `json:"publish_date"`
	Views       FlexInt `json:"views"`
}

// FlexInt decodes a JSON number or numeric string. Null, "" and 0 are absent.
type FlexInt struct {
	Value int64
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = FlexInt{}
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*f = FlexInt{}
			return nil
		}
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fl, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || math.IsNaN(fl) || math.IsInf(fl, 0) || fl >= math.MaxInt64 || fl < math.MinInt64 {
			return fmt.Errorf("invalid integer %q", raw)
		}
		n = int64(fl)
	}
	*f = FlexInt{Value: n, Set: n != 0}
	return nil
}

// IntPtr returns the value as *int, nil when absent
func (f FlexInt) IntPtr() *int {
	if !f.Set {
		return nil
	}
	v := int(f.Value)
	return &v
}

// Int64Ptr returns the value as *int64, nil when absent
func (f FlexInt) Int64Ptr() *int64 {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

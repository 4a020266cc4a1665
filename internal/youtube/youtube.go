package youtube

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	rssURLTemplate       = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"
	thumbnailURLTemplate = "https://img.youtube.com/vi/%s/maxresdefault.jpg"
	watchURLTemplate     = "https://www.youtube.com/watch?v=%s"
)

var (
	// videoIDPatterns are tried in order, the first match wins
	videoIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`),
		regexp.MustCompile(`youtube\.com/embed/([^&\n?#]+)`),
		regexp.MustCompile(`youtube\.com/v/([^&\n?#]+)`),
	}
	// videoURLPattern is the shape accepted by the add-video form
	videoURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/)[\w-]+`)
	// channelIDPattern matches UC followed by 22 word or hyphen characters
	channelIDPattern = regexp.MustCompile(`^UC[\w-]{22}$`)
	// channelURLPattern extracts a channel id from a /channel/ URL
	channelURLPattern = regexp.MustCompile(`channel/(UC[\w-]{22})`)
)

// ExtractVideoID returns the video id captured by the first matching URL pattern
func ExtractVideoID(s string) (string, bool) {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// IsVideoURL reports whether s looks like a watch or youtu.be URL
func IsVideoURL(s string) bool {
	return videoURLPattern.MatchString(s)
}

// IsChannelID reports whether s is a well-formed channel id
func IsChannelID(s string) bool {
	return channelIDPattern.MatchString(s)
}

// ChannelIDFromInput returns the channel id embedded in a channel URL,
// or the trimmed input when it holds none
func ChannelIDFromInput(s string) string {
	if m := channelURLPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return strings.TrimSpace(s)
}

// RSSURL returns the channel's video feed URL
func RSSURL(channelID string) string {
	return fmt.Sprintf(rssURLTemplate, channelID)
}

// ThumbnailURL returns the max resolution thumbnail URL of a video
func ThumbnailURL(videoID string) string {
	return fmt.Sprintf(thumbnailURLTemplate, videoID)
}

// WatchURL returns the canonical watch page URL of a video
func WatchURL(videoID string) string {
	return fmt.Sprintf(watchURLTemplate, videoID)
}

package resolver

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`[a-zA-Z0-9_-]{11}`)

// IsURL reports whether str looks like a link rather than search text.
func IsURL(str string) bool {
	return strings.HasPrefix(str, "http://") || strings.HasPrefix(str, "https://") ||
		strings.HasPrefix(str, "www.") || IsYouTubeURL(str)
}

// IsYouTubeURL reports whether a URL points at YouTube.
func IsYouTubeURL(urlStr string) bool {
	return strings.Contains(urlStr, "youtube.com") || strings.Contains(urlStr, "youtu.be")
}

// IsPlaylistURL reports whether a YouTube URL carries a playlist reference.
func IsPlaylistURL(urlStr string) bool {
	if !IsYouTubeURL(urlStr) {
		return false
	}
	return strings.Contains(urlStr, "list=") || strings.Contains(urlStr, "/playlist")
}

// ExtractVideoID pulls the video id out of a YouTube URL.
func ExtractVideoID(youtubeURL string) string {
	if strings.Contains(youtubeURL, "youtube.com") {
		parsedURL, err := url.Parse(youtubeURL)
		if err != nil {
			return ""
		}
		if videoID := parsedURL.Query().Get("v"); videoID != "" {
			return videoID
		}
		if strings.Contains(parsedURL.Path, "/embed/") {
			parts := strings.Split(parsedURL.Path, "/embed/")
			if len(parts) > 1 {
				return strings.Split(parts[1], "?")[0]
			}
		}
	}

	if strings.Contains(youtubeURL, "youtu.be") {
		parsedURL, err := url.Parse(youtubeURL)
		if err != nil {
			return ""
		}
		videoID := strings.TrimPrefix(parsedURL.Path, "/")
		return strings.Split(videoID, "?")[0]
	}

	if matches := videoIDPattern.FindAllString(youtubeURL, -1); len(matches) > 0 {
		return matches[0]
	}
	return ""
}

// ThumbnailURL returns the thumbnail image for a video id.
func ThumbnailURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID)
}

// WatchURL builds a canonical watch URL from a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

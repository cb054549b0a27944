package study

import (
	"fmt"
	"net/url"
	"strings"
)

// Target is what a video URL points at: a video, or a search to resolve to one.
type Target struct {
	VideoID string
	Query   string
}

// ParseVideoURL accepts https://www.youtube.com/watch?v=ID, https://youtu.be/ID and
// https://www.youtube.com/results?search_query=Q.
func ParseVideoURL(raw string) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return Target{}, fmt.Errorf("invalid YouTube URL: %q", raw)
	}

	if q, ok := u.Query()["search_query"]; ok {
		query := strings.TrimSpace(strings.Join(q, " "))
		if query == "" {
			return Target{}, fmt.Errorf("invalid search query: %q", raw)
		}
		return Target{Query: query}, nil
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "youtu.be" {
		if id := strings.Trim(u.Path, "/"); id != "" && !strings.Contains(id, "/") {
			return Target{VideoID: id}, nil
		}
		return Target{}, fmt.Errorf("invalid YouTube URL: %q", raw)
	}

	if id := u.Query().Get("v"); id != "" {
		return Target{VideoID: id}, nil
	}

	return Target{}, fmt.Errorf("invalid YouTube URL: %q", raw)
}

func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

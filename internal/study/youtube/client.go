// Package youtube finds videos with the YouTube Data API and fetches their captions.
package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIURL       = "https://www.googleapis.com/youtube/v3"
	defaultTimedTextURL = "https://www.youtube.com/api/timedtext"
	defaultLanguage     = "en"
	defaultTimeout      = 10 * time.Second
)

var (
	// ErrNoVideo is returned when a search has no video result.
	ErrNoVideo = errors.New("youtube: no video found")
	// ErrNoTranscript is returned when the video has no captions in the requested language.
	ErrNoTranscript = errors.New("youtube: transcript unavailable")
)

type Config struct {
	APIKey       string
	APIURL       string
	TimedTextURL string
	Language     string
	HTTPClient   *http.Client
}

type Client struct {
	apiKey       string
	apiURL       string
	timedTextURL string
	language     string
	client       *http.Client
}

func NewClient(c Config) *Client {
	cl := &Client{
		apiKey:       c.APIKey,
		apiURL:       strings.TrimRight(c.APIURL, "/"),
		timedTextURL: c.TimedTextURL,
		language:     c.Language,
		client:       c.HTTPClient,
	}

	if cl.apiURL == "" {
		cl.apiURL = defaultAPIURL
	}
	if cl.timedTextURL == "" {
		cl.timedTextURL = defaultTimedTextURL
	}
	if cl.language == "" {
		cl.language = defaultLanguage
	}
	if cl.client == nil {
		cl.client = &http.Client{Timeout: defaultTimeout}
	}

	return cl
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// SearchVideo returns the id of the most relevant video for the query.
func (c *Client) SearchVideo(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("maxResults", "1")
	q.Set("q", query)
	q.Set("key", c.apiKey)

	body, err := c.get(ctx, c.apiURL+"/search?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("youtube: search: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("youtube: decode search response: %w", err)
	}

	for _, it := range resp.Items {
		if it.ID.VideoID != "" {
			return it.ID.VideoID, nil
		}
	}

	return "", ErrNoVideo
}

type timedText struct {
	Texts []string `xml:"text"`
}

// Transcript returns the captions of the video joined by spaces.
func (c *Client) Transcript(ctx context.Context, videoID string) (string, error) {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("lang", c.language)

	body, err := c.get(ctx, c.timedTextURL+"?"+q.Encode())
	if errors.Is(err, statusError(http.StatusNotFound)) {
		return "", ErrNoTranscript
	}
	if err != nil {
		return "", fmt.Errorf("youtube: transcript: %w", err)
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return "", ErrNoTranscript
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("youtube: decode transcript: %w", err)
	}

	parts := make([]string, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		if t = strings.TrimSpace(html.UnescapeString(t)); t != "" {
			parts = append(parts, t)
		}
	}

	if len(parts) == 0 {
		return "", ErrNoTranscript
	}

	return strings.Join(parts, " "), nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

type statusError int

func (e statusError) Error() string {
	return fmt.Sprintf("HTTP %d", int(e))
}

// Package upstream talks to the video platform's private web API on
// behalf of a stored browser session.
//
// Every fetch stages the caller's Netscape cookie blob into an
// in-memory jar, performs the exchange, and returns the re-serialized
// jar alongside the result so callers can detect session rotation by
// comparing blobs.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"feed-gateway/internal/circuitbreaker"
	"feed-gateway/internal/common/errors"
	"feed-gateway/internal/common/logging"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// maxFeedPages bounds continuation paging for a single feed fetch.
const maxFeedPages = 10

// Video is one feed or watch-page entry, shaped for API responses.
type Video struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Channel     string `json:"channel,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Views       string `json:"views,omitempty"`
	Published   string `json:"published,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
}

// Feed is a contiguous slice of the personalized feed.
type Feed struct {
	Videos        []Video `json:"videos"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// Profile identifies the signed-in account behind a cookie blob.
type Profile struct {
	Name string `json:"name"`
}

// Range is a 1-based inclusive item range within the feed.
type Range struct {
	Start int
	End   int
}

// Client fetches personalized data using a stored cookie blob. Each
// method returns the re-serialized blob as seen after the exchange;
// callers compare it to the stored one to detect rotation.
type Client interface {
	FetchFeed(ctx context.Context, credential string, r Range) (*Feed, string, error)
	FetchItem(ctx context.Context, credential string, videoID string) (*Video, string, error)
	FetchProfile(ctx context.Context, credential string) (*Profile, string, error)
}

// Config holds upstream client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// InnertubeClient implements Client against the platform's private
// browse API. It is safe for concurrent use; per-request cookie state
// lives in a Jar staged for each call.
type InnertubeClient struct {
	httpClient *http.Client
	baseURL    string
	breaker    *circuitbreaker.GoBreakerAdapter
	logger     logging.Logger
}

// NewInnertubeClient creates a client for the given base URL.
func NewInnertubeClient(config Config, logger logging.Logger) *InnertubeClient {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &InnertubeClient{
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    config.BaseURL,
		breaker:    circuitbreaker.NewGoBreaker("upstream-http", circuitbreaker.HTTPConfig, logger),
		logger:     logger,
	}
}

// FetchFeed retrieves feed items covering the requested range. Paging
// follows continuation tokens until the range is covered or the feed
// runs out.
func (c *InnertubeClient) FetchFeed(ctx context.Context, credential string, r Range) (*Feed, string, error) {
	if r.Start < 1 || r.End < r.Start {
		return nil, "", errors.ValidationError("invalid item range")
	}

	jar, err := ParseNetscape(credential)
	if err != nil {
		return nil, "", errors.SetupError("failed to parse stored cookies", err)
	}

	config := c.fetchConfig(ctx, jar)

	var videos []Video
	var token string

	for page := 0; page < maxFeedPages; page++ {
		payload := map[string]interface{}{
			"context": c.requestContext(config.ClientVersion),
		}
		if page == 0 {
			payload["browseId"] = feedBrowseID
		} else {
			payload["continuation"] = token
		}

		data, err := c.exchangeJSON(ctx, jar, c.apiURL("browse", config.APIKey), payload, config.ClientVersion)
		if err != nil {
			return nil, "", err
		}

		pageVideos, nextToken := parseBrowseResponse(data)
		videos = append(videos, pageVideos...)
		token = nextToken

		if len(videos) >= r.End || token == "" {
			break
		}
	}

	if r.Start > len(videos) {
		return nil, "", errors.NoDataError("recommendations")
	}

	end := r.End
	if end > len(videos) {
		end = len(videos)
	}

	feed := &Feed{
		Videos:        videos[r.Start-1 : end],
		NextPageToken: token,
	}
	return feed, jar.Serialize(), nil
}

// FetchItem retrieves metadata for a single video.
func (c *InnertubeClient) FetchItem(ctx context.Context, credential string, videoID string) (*Video, string, error) {
	jar, err := ParseNetscape(credential)
	if err != nil {
		return nil, "", errors.SetupError("failed to parse stored cookies", err)
	}

	config := c.fetchConfig(ctx, jar)

	payload := map[string]interface{}{
		"context": c.requestContext(config.ClientVersion),
		"videoId": videoID,
	}

	data, err := c.exchangeJSON(ctx, jar, c.apiURL("player", config.APIKey), payload, config.ClientVersion)
	if err != nil {
		return nil, "", err
	}

	if video, ok := parsePlayerResponse(data); ok {
		return video, jar.Serialize(), nil
	}

	// Some videos only render through the watch page endpoint.
	data, err = c.exchangeJSON(ctx, jar, c.apiURL("next", config.APIKey), payload, config.ClientVersion)
	if err != nil {
		return nil, "", err
	}

	if video, ok := parseWatchNextResponse(data, videoID); ok {
		return video, jar.Serialize(), nil
	}

	return nil, "", errors.NoDataError("video")
}

// FetchProfile retrieves the signed-in account's display name.
func (c *InnertubeClient) FetchProfile(ctx context.Context, credential string) (*Profile, string, error) {
	jar, err := ParseNetscape(credential)
	if err != nil {
		return nil, "", errors.SetupError("failed to parse stored cookies", err)
	}

	config := c.fetchConfig(ctx, jar)

	payload := map[string]interface{}{
		"context": c.requestContext(config.ClientVersion),
	}

	data, err := c.exchangeJSON(ctx, jar, c.apiURL("account/account_menu", config.APIKey), payload, config.ClientVersion)
	if err != nil {
		return nil, "", err
	}

	name := parseAccountName(data)
	if name == "" {
		name = "Unknown User"
	}

	return &Profile{Name: name}, jar.Serialize(), nil
}

// fetchConfig scrapes the homepage for the current API key and client
// version. Scrape failures fall back to defaults rather than failing
// the request.
func (c *InnertubeClient) fetchConfig(ctx context.Context, jar *Jar) innertubeConfig {
	page, err := c.exchange(ctx, jar, http.MethodGet, c.baseURL, nil, "")
	if err != nil {
		c.logger.Warn("Falling back to default upstream config", logging.Err(err))
		return innertubeConfig{APIKey: defaultAPIKey, ClientVersion: defaultClientVersion}
	}
	return parseInnertubeConfig(string(page))
}

func (c *InnertubeClient) apiURL(endpoint, apiKey string) string {
	return c.baseURL + "/youtubei/v1/" + endpoint + "?key=" + url.QueryEscape(apiKey)
}

func (c *InnertubeClient) requestContext(clientVersion string) map[string]interface{} {
	return map[string]interface{}{
		"client": map[string]interface{}{
			"clientName":    "WEB",
			"clientVersion": clientVersion,
			"hl":            "en",
			"gl":            "US",
			"originalUrl":   c.baseURL,
			"platform":      "DESKTOP",
		},
		"user": map[string]interface{}{
			"lockedSafetyMode": false,
		},
		"request": map[string]interface{}{
			"useSsl":                  true,
			"internalExperimentFlags": []interface{}{},
			"consistencyTokenJars":    []interface{}{},
		},
	}
}

// exchangeJSON posts payload and decodes the JSON response.
func (c *InnertubeClient) exchangeJSON(ctx context.Context, jar *Jar, rawURL string, payload interface{}, clientVersion string) (map[string]interface{}, error) {
	body, err := c.exchange(ctx, jar, http.MethodPost, rawURL, payload, clientVersion)
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.UpstreamError("failed to decode upstream response", err)
	}
	return data, nil
}

// exchange performs one HTTP exchange through the circuit breaker,
// applying the jar's cookies to the request and absorbing any
// Set-Cookie headers from the response.
func (c *InnertubeClient) exchange(ctx context.Context, jar *Jar, method, rawURL string, payload interface{}, clientVersion string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.SetupError("failed to encode upstream request", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, errors.SetupError("failed to build upstream request", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-YouTube-Client-Name", "1")
	if clientVersion != "" {
		req.Header.Set("X-YouTube-Client-Version", clientVersion)
	}
	for _, cookie := range jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}

	var body []byte
	err = c.breaker.Execute(ctx, func() error {
		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return errors.ConnectionError("upstream request failed", doErr)
		}
		defer resp.Body.Close()

		jar.SetCookies(req.URL, resp.Cookies())

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return errors.UpstreamError("failed to read upstream response", readErr)
		}

		if resp.StatusCode != http.StatusOK {
			return errors.UpstreamError(fmt.Sprintf("upstream returned status %d", resp.StatusCode), nil)
		}

		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

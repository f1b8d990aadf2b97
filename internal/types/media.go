package types

// MediaItem is one recommended learning video.
type MediaItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Channel     string `json:"channel"`
	Duration    string `json:"duration"`
	Views       string `json:"views"`
	Description string `json:"description"`
}

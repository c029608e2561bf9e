// Package track holds the wire types shared across discovery and streaming,
// plus the text heuristics for track identifiers and titles.
package track

// Probe is the technical metadata snapshot the extraction engine reports for
// one candidate. It is immutable once produced and cached as-is.
type Probe struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	ChannelID       string   `json:"channelId"`
	ChannelName     string   `json:"channelName"`
	DurationSeconds int      `json:"durationSeconds"`
	Categories      []string `json:"categories"`
	IsLive          bool     `json:"isLive"`
	WasLive         bool     `json:"wasLive"`
	IsUpcoming      bool     `json:"isUpcoming"`
	IsShortsFormat  bool     `json:"isShortsFormat"`
	Embeddable      bool     `json:"embeddable"`
	VerifiedBadge   bool     `json:"verifiedBadge"`
	Thumbnail       string   `json:"thumbnail"`
}

// Track is one scored, display-ready result.
type Track struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Thumbnail       string `json:"thumbnail"`
	Duration        string `json:"duration"`
	DurationSeconds int    `json:"durationSeconds"`
	YoutubeID       string `json:"youtubeId"`
	ChannelTitle    string `json:"channelTitle"`
	Verified        bool   `json:"verified"`
	MusicScore      int    `json:"musicScore"`
	Embeddable      bool   `json:"embeddable"`
	StreamURL       string `json:"streamUrl"`
}

// SearchResponse is the envelope returned for one discovery request and the
// unit stored in the response cache.
type SearchResponse struct {
	Query         string  `json:"query"`
	Results       []Track `json:"results"`
	Count         int     `json:"count"`
	VerifiedCount int     `json:"verifiedCount"`
	FilteredCount int     `json:"filteredCount"`
}

// RelatedResponse is the envelope for related-track lookups.
type RelatedResponse struct {
	RelatedVideos []Track `json:"relatedVideos"`
	Count         int     `json:"count"`
}

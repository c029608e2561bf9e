package track

import (
	"fmt"
	"regexp"
	"strings"
)

// Suffix noise commonly appended to upload titles.
var titleSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*\(Official[^)]*\)`),
	regexp.MustCompile(`(?i)\s*\[Official[^\]]*\]`),
	regexp.MustCompile(`(?i)\s*- Official.*$`),
	regexp.MustCompile(`(?i)\s*\| Official.*$`),
	regexp.MustCompile(`(?i)\s*HD$`),
	regexp.MustCompile(`(?i)\s*4K$`),
}

// Separator shapes that tend to divide artist from song.
var titleSplits = []*regexp.Regexp{
	regexp.MustCompile(`^(.+?)\s*-\s*(.+)$`),
	regexp.MustCompile(`(?i)^(.+?)\s+by\s+(.+)$`),
	regexp.MustCompile(`^(.+?)\s*\|\s*(.+)$`),
	regexp.MustCompile(`^(.+?)\s*:\s*(.+)$`),
}

// SplitTitle splits an upload title into artist and song name. This is a
// best-effort heuristic: the shorter side of the separator is assumed to be
// the artist unless it carries a featuring credit. When no separator is
// found, the whole cleaned title is returned as the song name.
func SplitTitle(full string) (artist, title string) {
	clean := full
	for _, p := range titleSuffixes {
		clean = p.ReplaceAllString(clean, "")
	}
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "", full
	}

	for _, p := range titleSplits {
		m := p.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		left := strings.TrimSpace(m[1])
		right := strings.TrimSpace(m[2])
		lower := strings.ToLower(left)
		if len(left) < len(right) && !strings.Contains(lower, "feat") && !strings.Contains(lower, "ft.") {
			return left, right
		}
		return right, left
	}

	return "", clean
}

// FormatDuration renders seconds as M:SS, or H:MM:SS past the hour mark.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 3600 {
		return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// ThumbnailURL is the stock thumbnail used when a probe carries none.
func ThumbnailURL(id string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", id)
}

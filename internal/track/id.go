package track

import "regexp"

// bareID matches the fixed 11-character identifier shape.
var bareID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// extractPatterns are tried in order against anything that is not a bare id.
// The trailing-path fallback comes last so canonical URL shapes win.
var extractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/shorts/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/([A-Za-z0-9_-]{11})(?:$|[?&])`),
}

// NormalizeID reduces a raw identifier or playback URL to the bare track id.
// It reports false when nothing recognizable is found. Normalization is
// idempotent: a bare id normalizes to itself.
func NormalizeID(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	if bareID.MatchString(raw) {
		return raw, true
	}
	for _, p := range extractPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}

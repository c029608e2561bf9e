// Package filter decides which probed candidates are playable music and how
// strongly each one resembles a song. Rejection and ranking are deliberately
// separate: HardFilter never ranks, Score never rejects.
package filter

import (
	"strings"

	"github.com/spicezify/tunegate/internal/track"
)

// Hard duration bounds and the narrower window a typical song falls in.
const (
	minDurationSeconds = 60
	maxDurationSeconds = 3600
	songWindowMin      = 90
	songWindowMax      = 480
)

// Score weights, strictly additive.
const (
	scoreVerified      = 15
	scoreSongLength    = 8
	scoreMusicTitle    = 3
	scoreMusicCategory = 4
)

// Reason names why a candidate was rejected.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonTooShort         Reason = "too-short"
	ReasonTooLong          Reason = "too-long"
	ReasonLive             Reason = "live"
	ReasonShorts           Reason = "shorts"
	ReasonNotMusicCategory Reason = "not-music-category"
	ReasonNotEmbeddable    Reason = "not-embeddable"
	ReasonBadTitle         Reason = "bad-title"
	ReasonNotVerified      Reason = "not-verified"
)

// Title fragments that mark non-music uploads. "mix" is handled separately
// so mixtapes survive.
var denyTokens = []string{
	"reaction", "review", "tutorial", "gameplay", "vlog", "unboxing",
	"cooking", "podcast", "compilation", "playlist", "sped up",
	"nightcore", "slowed", "shorts",
}

// Title fragments that positively signal music content.
var musicTokens = []string{"official", "audio", "music", "video"}

// Engine applies the hard-reject rules and the music score. The verified
// channel allow-list is injected configuration; membership is approximate
// and expected to grow over time.
type Engine struct {
	verifiedChannels map[string]struct{}
}

// NewEngine builds an Engine with the given verified channel ids.
func NewEngine(verifiedChannelIDs []string) *Engine {
	verified := make(map[string]struct{}, len(verifiedChannelIDs))
	for _, id := range verifiedChannelIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			verified[id] = struct{}{}
		}
	}
	return &Engine{verifiedChannels: verified}
}

// Verified reports whether the probe's channel is in the allow-list or
// carries a verified/official-artist badge.
func (e *Engine) Verified(p *track.Probe) bool {
	if p.VerifiedBadge {
		return true
	}
	_, ok := e.verifiedChannels[p.ChannelID]
	return ok
}

// HardFilter applies the reject rules in fixed precedence order and stops at
// the first match. A kept probe returns (true, ReasonNone).
func (e *Engine) HardFilter(p *track.Probe, verifiedOnly bool) (bool, Reason) {
	if p.DurationSeconds < minDurationSeconds {
		return false, ReasonTooShort
	}
	if p.DurationSeconds > maxDurationSeconds {
		return false, ReasonTooLong
	}
	if p.IsLive || p.WasLive || p.IsUpcoming {
		return false, ReasonLive
	}
	if p.IsShortsFormat {
		return false, ReasonShorts
	}
	// Absent category data is not disqualifying.
	if len(p.Categories) > 0 && !hasMusicCategory(p.Categories) {
		return false, ReasonNotMusicCategory
	}
	if !p.Embeddable {
		return false, ReasonNotEmbeddable
	}
	if badTitle(p.Title) {
		return false, ReasonBadTitle
	}
	if verifiedOnly && !e.Verified(p) {
		return false, ReasonNotVerified
	}
	return true, ReasonNone
}

// Score ranks a kept probe. The signals are independent, so the result does
// not depend on evaluation order.
func (e *Engine) Score(p *track.Probe) int {
	score := 0
	if e.Verified(p) {
		score += scoreVerified
	}
	if p.DurationSeconds >= songWindowMin && p.DurationSeconds <= songWindowMax {
		score += scoreSongLength
	}
	title := strings.ToLower(p.Title)
	for _, token := range musicTokens {
		if strings.Contains(title, token) {
			score += scoreMusicTitle
			break
		}
	}
	if hasMusicCategory(p.Categories) {
		score += scoreMusicCategory
	}
	return score
}

func hasMusicCategory(categories []string) bool {
	for _, c := range categories {
		if strings.EqualFold(strings.TrimSpace(c), "music") {
			return true
		}
	}
	return false
}

// badTitle reports whether the title matches the non-music deny-list. Any
// "mix" occurrence counts unless it reads "mixtape".
func badTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, token := range denyTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	for i := 0; ; i += 3 {
		j := strings.Index(lower[i:], "mix")
		if j < 0 {
			return false
		}
		i += j
		if !strings.HasPrefix(lower[i+3:], "tape") {
			return true
		}
	}
}

package filter

import (
	"testing"

	"github.com/spicezify/tunegate/internal/track"
)

// keepable returns a probe that survives every hard-filter rule.
func keepable() *track.Probe {
	return &track.Probe{
		ID:              "dQw4w9WgXcQ",
		Title:           "Artist - Song (Official Audio)",
		ChannelID:       "UCchannel001",
		ChannelName:     "Artist",
		DurationSeconds: 200,
		Categories:      []string{"music"},
		Embeddable:      true,
	}
}

func TestHardFilterKeepsGoodProbe(t *testing.T) {
	e := NewEngine(nil)
	keep, reason := e.HardFilter(keepable(), false)
	if !keep || reason != ReasonNone {
		t.Fatalf("keep=%v reason=%q; want keep with no reason", keep, reason)
	}
}

func TestHardFilterRejections(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*track.Probe)
		verifiedOnly bool
		want         Reason
	}{
		{"too short", func(p *track.Probe) { p.DurationSeconds = 10 }, false, ReasonTooShort},
		{"too long", func(p *track.Probe) { p.DurationSeconds = 3700 }, false, ReasonTooLong},
		{"live", func(p *track.Probe) { p.IsLive = true }, false, ReasonLive},
		{"was live", func(p *track.Probe) { p.WasLive = true }, false, ReasonLive},
		{"upcoming", func(p *track.Probe) { p.IsUpcoming = true }, false, ReasonLive},
		{"shorts format", func(p *track.Probe) { p.IsShortsFormat = true }, false, ReasonShorts},
		{"wrong category", func(p *track.Probe) { p.Categories = []string{"gaming"} }, false, ReasonNotMusicCategory},
		{"not embeddable", func(p *track.Probe) { p.Embeddable = false }, false, ReasonNotEmbeddable},
		{"reaction title", func(p *track.Probe) { p.Title = "Artist - Song REACTION" }, false, ReasonBadTitle},
		{"mix title", func(p *track.Probe) { p.Title = "Summer Mix 2024" }, false, ReasonBadTitle},
		{"nightcore title", func(p *track.Probe) { p.Title = "Song (Nightcore)" }, false, ReasonBadTitle},
		{"unverified in verified-only mode", func(p *track.Probe) {}, true, ReasonNotVerified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(nil)
			p := keepable()
			tt.mutate(p)
			keep, reason := e.HardFilter(p, tt.verifiedOnly)
			if keep || reason != tt.want {
				t.Fatalf("keep=%v reason=%q; want rejected with %q", keep, reason, tt.want)
			}
		})
	}
}

func TestHardFilterPrecedence(t *testing.T) {
	// A probe violating several rules reports only the highest-precedence one.
	e := NewEngine(nil)
	p := keepable()
	p.DurationSeconds = 10
	p.IsLive = true
	p.Embeddable = false

	if _, reason := e.HardFilter(p, false); reason != ReasonTooShort {
		t.Fatalf("reason = %q, want %q", reason, ReasonTooShort)
	}
}

func TestHardFilterMissingCategoriesAllowed(t *testing.T) {
	e := NewEngine(nil)
	p := keepable()
	p.Categories = nil
	if keep, reason := e.HardFilter(p, false); !keep {
		t.Fatalf("rejected with %q; absent category data must not disqualify", reason)
	}
}

func TestHardFilterMixtapeSurvives(t *testing.T) {
	e := NewEngine(nil)
	p := keepable()
	p.Title = "Artist - Summer Mixtape"
	if keep, reason := e.HardFilter(p, false); !keep {
		t.Fatalf("mixtape rejected with %q", reason)
	}
}

func TestHardFilterVerifiedOnlyAcceptsAllowList(t *testing.T) {
	e := NewEngine([]string{"UCchannel001"})
	if keep, reason := e.HardFilter(keepable(), true); !keep {
		t.Fatalf("allow-listed channel rejected with %q", reason)
	}
}

func TestScoreIdealCandidate(t *testing.T) {
	e := NewEngine(nil)
	p := keepable()
	p.VerifiedBadge = true
	if got := e.Score(p); got != 30 {
		t.Fatalf("score = %d, want 30", got)
	}
}

func TestScoreNeutralCandidate(t *testing.T) {
	e := NewEngine(nil)
	p := &track.Probe{
		Title:           "random upload",
		DurationSeconds: 30,
	}
	if got := e.Score(p); got != 0 {
		t.Fatalf("score = %d, want 0", got)
	}
}

func TestScoreComponents(t *testing.T) {
	tests := []struct {
		name  string
		probe *track.Probe
		want  int
	}{
		{
			"song length only",
			&track.Probe{Title: "something", DurationSeconds: 200},
			8,
		},
		{
			"music title only",
			&track.Probe{Title: "Song (Official)", DurationSeconds: 30},
			3,
		},
		{
			"music category only",
			&track.Probe{Title: "something", DurationSeconds: 30, Categories: []string{"Music"}},
			4,
		},
		{
			"verified badge only",
			&track.Probe{Title: "something", DurationSeconds: 30, VerifiedBadge: true},
			15,
		},
		{
			"allow-listed channel only",
			&track.Probe{Title: "something", DurationSeconds: 30, ChannelID: "UCallowed"},
			15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine([]string{"UCallowed"})
			if got := e.Score(tt.probe); got != tt.want {
				t.Fatalf("score = %d, want %d", got, tt.want)
			}
		})
	}
}

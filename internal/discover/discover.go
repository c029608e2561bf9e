// Package discover drives the candidate search pipeline: catalog queries,
// id normalization and dedup, cached probing, hard filtering, scoring, and
// response assembly.
package discover

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/spicezify/tunegate/internal/cache"
	"github.com/spicezify/tunegate/internal/filter"
	"github.com/spicezify/tunegate/internal/track"
	"github.com/spicezify/tunegate/internal/upstream"
)

// ErrEmptyQuery marks a discovery request with no search text.
var ErrEmptyQuery = errors.New("empty query")

const (
	defaultProbeConcurrency = 4
	defaultOverscanFactor   = 2
	defaultLimit            = 20
	defaultMaxLimit         = 50
	bloomExpectedItems      = 100_000
	bloomFalsePositiveRate  = 0.01
)

// Params wires an Orchestrator. Primary is required; Secondary may be nil
// when no fallback catalog is configured.
type Params struct {
	Primary   upstream.Searcher
	Secondary upstream.Searcher
	Extractor upstream.Extractor
	Engine    *filter.Engine
	Probes    *cache.Store[*track.Probe]
	Responses *cache.Store[*track.SearchResponse]

	ProbeConcurrency int
	OverscanFactor   int
	DefaultLimit     int
	MaxLimit         int

	Logger *zap.Logger
}

// Orchestrator owns one discovery pipeline. Safe for concurrent use; the
// caches and the probed-id filter are the only shared mutable state.
type Orchestrator struct {
	primary   upstream.Searcher
	secondary upstream.Searcher
	extractor upstream.Extractor
	engine    *filter.Engine
	probes    *cache.Store[*track.Probe]
	responses *cache.Store[*track.SearchResponse]

	sf singleflight.Group

	// probed remembers ids whose probe has been cached at least once. A
	// negative test skips the cache lookup and goes straight to the
	// extractor; a false positive only costs one extra map lookup.
	probedMu sync.Mutex
	probed   *bloom.BloomFilter

	probeConcurrency int
	overscanFactor   int
	defaultLimit     int
	maxLimit         int

	tracer trace.Tracer
	logger *zap.Logger
}

// New builds an Orchestrator, filling zero Params fields with defaults.
func New(p Params) *Orchestrator {
	if p.ProbeConcurrency <= 0 {
		p.ProbeConcurrency = defaultProbeConcurrency
	}
	if p.OverscanFactor <= 1 {
		p.OverscanFactor = defaultOverscanFactor
	}
	if p.DefaultLimit <= 0 {
		p.DefaultLimit = defaultLimit
	}
	if p.MaxLimit <= 0 {
		p.MaxLimit = defaultMaxLimit
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}

	return &Orchestrator{
		primary:          p.Primary,
		secondary:        p.Secondary,
		extractor:        p.Extractor,
		engine:           p.Engine,
		probes:           p.Probes,
		responses:        p.Responses,
		probed:           bloom.NewWithEstimates(bloomExpectedItems, bloomFalsePositiveRate),
		probeConcurrency: p.ProbeConcurrency,
		overscanFactor:   p.OverscanFactor,
		defaultLimit:     p.DefaultLimit,
		maxLimit:         p.MaxLimit,
		tracer:           otel.Tracer("discover"),
		logger:           p.Logger,
	}
}

// Discover runs one search request end to end and returns a ranked, capped
// result envelope. Per-candidate failures are absorbed; only a total
// catalog outage is an error.
func (o *Orchestrator) Discover(ctx context.Context, query string, limit int, verifiedOnly bool) (*track.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = o.defaultLimit
	}
	if limit > o.maxLimit {
		limit = o.maxLimit
	}

	ctx, span := o.tracer.Start(ctx, "Discover",
		trace.WithAttributes(attribute.String("query", query), attribute.Int("limit", limit)))
	defer span.End()

	key := responseKey(query, limit, verifiedOnly)
	if resp, ok := o.responses.Get(key); ok {
		o.logger.Debug("search response cache hit", zap.String("query", query))
		return resp, nil
	}

	candidates, err := o.gatherCandidates(ctx, withMusicHint(query), limit)
	if err != nil {
		return nil, err
	}

	outcomes := o.probeAll(ctx, candidates)

	results := make([]track.Track, 0, limit)
	filtered := 0
	for _, oc := range outcomes {
		if len(results) >= limit {
			break
		}
		if oc.err != nil {
			filtered++
			o.logger.Warn("probe failed",
				zap.String("trackId", oc.id),
				zap.Error(oc.err))
			continue
		}
		keep, reason := o.engine.HardFilter(oc.probe, verifiedOnly)
		if !keep {
			filtered++
			o.logger.Debug("candidate rejected",
				zap.String("trackId", oc.id),
				zap.String("reason", string(reason)))
			continue
		}
		results = append(results, o.buildTrack(oc.probe))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MusicScore > results[j].MusicScore
	})

	verifiedCount := 0
	for _, t := range results {
		if t.Verified {
			verifiedCount++
		}
	}

	resp := &track.SearchResponse{
		Query:         query,
		Results:       results,
		Count:         len(results),
		VerifiedCount: verifiedCount,
		FilteredCount: filtered,
	}
	o.responses.Set(key, resp)

	o.logger.Info("discovery completed",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)),
		zap.Int("kept", len(results)),
		zap.Int("filtered", filtered))
	return resp, nil
}

// Lookup returns display metadata for one track.
func (o *Orchestrator) Lookup(ctx context.Context, rawID string) (*track.Track, error) {
	id, ok := track.NormalizeID(rawID)
	if !ok {
		return nil, track.ErrInvalidID
	}
	p, err := o.fetchProbe(ctx, id)
	if err != nil {
		return nil, err
	}
	t := o.buildTrack(p)
	return &t, nil
}

// Related discovers tracks similar to the given one by reusing the pipeline
// with a query seeded from the source track's artist and title. The seed
// track itself is dropped from the results.
func (o *Orchestrator) Related(ctx context.Context, rawID string, limit int) (*track.RelatedResponse, error) {
	id, ok := track.NormalizeID(rawID)
	if !ok {
		return nil, track.ErrInvalidID
	}
	if limit <= 0 {
		limit = o.defaultLimit
	}
	if limit > o.maxLimit {
		limit = o.maxLimit
	}

	seed, err := o.fetchProbe(ctx, id)
	if err != nil {
		return nil, err
	}

	artist, title := track.SplitTitle(seed.Title)
	query := strings.TrimSpace(artist + " " + title)
	if query == "" {
		query = seed.Title
	}

	resp, err := o.Discover(ctx, query, limit+1, false)
	if err != nil {
		return nil, err
	}

	related := make([]track.Track, 0, limit)
	for _, t := range resp.Results {
		if t.ID == id {
			continue
		}
		related = append(related, t)
		if len(related) == limit {
			break
		}
	}
	return &track.RelatedResponse{RelatedVideos: related, Count: len(related)}, nil
}

// gatherCandidates merges normalized, deduplicated ids from the catalog
// sources up to an overscan multiple of limit. First source wins on
// duplicates.
func (o *Orchestrator) gatherCandidates(ctx context.Context, query string, limit int) ([]string, error) {
	target := limit * o.overscanFactor
	seen := make(map[string]struct{}, target)
	candidates := make([]string, 0, target)

	add := func(raw []string) {
		for _, r := range raw {
			if len(candidates) >= target {
				return
			}
			id, ok := track.NormalizeID(r)
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			candidates = append(candidates, id)
		}
	}

	songs, songsErr := o.primary.Search(ctx, query, upstream.KindSongs, limit)
	add(songs)

	var videosErr error
	if len(candidates) < limit {
		var videos []string
		videos, videosErr = o.primary.Search(ctx, query, upstream.KindVideos, limit)
		add(videos)
	}

	var secondaryErr error
	if o.secondary != nil && len(candidates) < limit {
		var extra []string
		extra, secondaryErr = o.secondary.Search(ctx, query, upstream.KindVideos, target-len(candidates))
		add(extra)
	}

	if len(candidates) == 0 && (songsErr != nil || videosErr != nil || secondaryErr != nil) {
		return nil, fmt.Errorf("%w: all catalog sources failed", upstream.ErrUnavailable)
	}
	return candidates, nil
}

type outcome struct {
	id    string
	probe *track.Probe
	err   error
}

// probeAll probes candidates on a bounded worker pool, preserving candidate
// order in the returned slice. Worker failures are carried per-outcome.
func (o *Orchestrator) probeAll(ctx context.Context, ids []string) []outcome {
	outcomes := make([]outcome, len(ids))
	g := new(errgroup.Group)
	g.SetLimit(o.probeConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			p, err := o.fetchProbe(ctx, id)
			outcomes[i] = outcome{id: id, probe: p, err: err}
			return nil
		})
	}
	_ = g.Wait() // failures live in outcomes, never in the group
	return outcomes
}

// fetchProbe returns the cached probe for id or fetches one from the
// extractor, collapsing concurrent fetches of the same id.
func (o *Orchestrator) fetchProbe(ctx context.Context, id string) (*track.Probe, error) {
	if o.testProbed(id) {
		if p, ok := o.probes.Get(id); ok {
			return p, nil
		}
	}

	v, err, _ := o.sf.Do(id, func() (any, error) {
		p, err := o.extractor.Probe(ctx, id)
		if err != nil {
			return nil, err
		}
		o.probes.Set(id, p)
		o.markProbed(id)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*track.Probe), nil
}

func (o *Orchestrator) buildTrack(p *track.Probe) track.Track {
	artist, title := track.SplitTitle(p.Title)
	if artist == "" {
		artist = p.ChannelName
	}
	if artist == "" {
		artist = "Unknown Artist"
	}
	thumb := p.Thumbnail
	if thumb == "" {
		thumb = track.ThumbnailURL(p.ID)
	}

	return track.Track{
		ID:              p.ID,
		Title:           title,
		Artist:          artist,
		Thumbnail:       thumb,
		Duration:        track.FormatDuration(p.DurationSeconds),
		DurationSeconds: p.DurationSeconds,
		YoutubeID:       p.ID,
		ChannelTitle:    p.ChannelName,
		Verified:        o.engine.Verified(p),
		MusicScore:      o.engine.Score(p),
		Embeddable:      p.Embeddable,
		StreamURL:       "/api/youtube/audio/" + p.ID,
	}
}

func (o *Orchestrator) testProbed(id string) bool {
	o.probedMu.Lock()
	defer o.probedMu.Unlock()
	return o.probed.TestString(id)
}

func (o *Orchestrator) markProbed(id string) {
	o.probedMu.Lock()
	defer o.probedMu.Unlock()
	o.probed.AddString(id)
}

// withMusicHint biases generic queries towards music results.
func withMusicHint(query string) string {
	if strings.Contains(strings.ToLower(query), "music") {
		return query
	}
	return query + " music"
}

// responseKey hashes the normalized query into a fixed-width cache key.
func responseKey(query string, limit int, verifiedOnly bool) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(query)))
	return fmt.Sprintf("%x:%d:%t", h.Sum64(), limit, verifiedOnly)
}

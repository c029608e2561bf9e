// Package resolve turns track ids into validated, playable media URLs.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"

	"github.com/spicezify/tunegate/internal/upstream"
)

// ErrResolutionFailed marks a track with no usable media URL.
var ErrResolutionFailed = errors.New("no playable url resolved")

const urlCacheSize = 2048

// Asset shapes the extractor sometimes hands back that are not audio.
var nonPlayableMarkers = []string{"storyboard", "/preview/", ".jpg", ".png", ".webp"}

// Resolver caches and validates resolved audio URLs. Resolved URLs go stale
// upstream within minutes and are cheap to re-derive, so the cache here is
// lossy by design: a dropped admission just means one extra resolve call.
type Resolver struct {
	extractor upstream.Extractor
	urls      *ristretto.Cache
	ttl       time.Duration
	logger    *zap.Logger
}

// New builds a Resolver caching URLs for ttl.
func New(extractor upstream.Extractor, ttl time.Duration, logger *zap.Logger) (*Resolver, error) {
	urls, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: urlCacheSize * 10,
		MaxCost:     urlCacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create url cache: %w", err)
	}

	return &Resolver{
		extractor: extractor,
		urls:      urls,
		ttl:       ttl,
		logger:    logger,
	}, nil
}

// Resolve returns a validated direct media URL for the given normalized id.
func (r *Resolver) Resolve(ctx context.Context, id string) (string, error) {
	if cached, found := r.urls.Get(id); found {
		if u, ok := cached.(string); ok {
			return u, nil
		}
	}

	resolved, err := r.extractor.ResolveAudioURL(ctx, id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	if err := Validate(resolved); err != nil {
		r.logger.Warn("extractor returned unusable url",
			zap.String("trackId", id),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	r.urls.SetWithTTL(id, resolved, 1, r.ttl)
	return resolved, nil
}

// Invalidate drops a cached URL, used after an upstream fetch rejects it.
func (r *Resolver) Invalidate(id string) {
	r.urls.Del(id)
}

// Validate rejects empty, malformed, non-HTTP, or recognizably non-playable
// asset URLs.
func Validate(raw string) error {
	if raw == "" {
		return errors.New("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url has no host")
	}
	lower := strings.ToLower(raw)
	for _, marker := range nonPlayableMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("non-playable asset url (%s)", marker)
		}
	}
	return nil
}

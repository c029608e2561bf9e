// Package upstream talks to the external catalog and extraction sidecars.
// The rest of the service depends only on the interfaces here; the HTTP
// clients wrap every call in a circuit breaker and retry policy so one
// flapping collaborator cannot stall request handlers.
package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/spicezify/tunegate/internal/track"
)

// ErrUnavailable marks a collaborator that could not be reached at all:
// transport failure, non-success status, or an open circuit breaker.
var ErrUnavailable = errors.New("upstream unavailable")

// Kind selects which result class a catalog query prioritizes.
type Kind string

const (
	KindSongs  Kind = "songs"
	KindVideos Kind = "videos"
)

// Searcher returns ranked candidate identifiers for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, kind Kind, limit int) ([]string, error)
}

// Extractor reports technical metadata and playable URLs for one track.
type Extractor interface {
	Probe(ctx context.Context, id string) (*track.Probe, error)
	ResolveAudioURL(ctx context.Context, id string) (string, error)
}

// breakerSettings is shared by both clients.
func breakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}
}

// breakerErr maps circuit breaker states onto ErrUnavailable.
func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	return err
}

package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/spicezify/tunegate/internal/retrier"
	"github.com/spicezify/tunegate/internal/track"
)

// ExtractorClient talks to the metadata/extraction sidecar over HTTP.
type ExtractorClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	retry   *retrier.Retrier
	logger  *zap.Logger
}

// NewExtractorClient builds a client for the sidecar at baseURL.
func NewExtractorClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*ExtractorClient, error) {
	retry, err := retrier.New(2, 100*time.Millisecond, 2*time.Second, 2.0, 0.2, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrier: %w", err)
	}

	return &ExtractorClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(breakerSettings("extractor:" + baseURL)),
		retry:   retry,
		logger:  logger,
	}, nil
}

// Probe fetches the technical metadata snapshot for one track id.
func (c *ExtractorClient) Probe(ctx context.Context, id string) (*track.Probe, error) {
	var probe track.Probe
	if err := c.getJSON(ctx, c.baseURL+"/probe/"+id, &probe); err != nil {
		return nil, fmt.Errorf("probe %s: %w", id, err)
	}
	if probe.ID == "" {
		probe.ID = id
	}
	return &probe, nil
}

type resolveResult struct {
	URL string `json:"url"`
}

// ResolveAudioURL fetches a direct playable media URL for one track id. An
// empty URL is returned as-is; the resolver layer decides what that means.
func (c *ExtractorClient) ResolveAudioURL(ctx context.Context, id string) (string, error) {
	var result resolveResult
	if err := c.getJSON(ctx, c.baseURL+"/resolve/"+id, &result); err != nil {
		return "", fmt.Errorf("resolve %s: %w", id, err)
	}
	return result.URL, nil
}

func (c *ExtractorClient) getJSON(ctx context.Context, endpoint string, target any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		err := c.retry.Run(ctx, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return err
			}
			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					c.logger.Warn("failed to close extractor response body", zap.Error(err))
				}
			}()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("extractor returned status %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(target)
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, breakerErr(err))
	}
	return nil
}

package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/spicezify/tunegate/internal/retrier"
)

// CatalogClient queries a catalog search sidecar over HTTP.
type CatalogClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	retry   *retrier.Retrier
	logger  *zap.Logger
}

// NewCatalogClient builds a client for the sidecar at baseURL.
func NewCatalogClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*CatalogClient, error) {
	retry, err := retrier.New(3, 100*time.Millisecond, 2*time.Second, 2.0, 0.2, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrier: %w", err)
	}

	return &CatalogClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(breakerSettings("catalog:" + baseURL)),
		retry:   retry,
		logger:  logger,
	}, nil
}

type searchResult struct {
	IDs []string `json:"ids"`
}

// Search returns raw candidate identifiers for the query, most relevant
// first. Identifiers may be bare ids or playback URLs; callers normalize.
func (c *CatalogClient) Search(ctx context.Context, query string, kind Kind, limit int) ([]string, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&kind=%s&limit=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(string(kind)), strconv.Itoa(limit))

	out, err := c.breaker.Execute(func() (any, error) {
		var result searchResult
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
					c.logger.Warn("failed to close catalog response body", zap.Error(err))
				}
			}()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("catalog search returned status %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&result)
		})
		if err != nil {
			return nil, err
		}
		return result.IDs, nil
	})
	if err != nil {
		c.logger.Warn("catalog search failed",
			zap.String("query", query),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, breakerErr(err))
	}

	return out.([]string), nil
}

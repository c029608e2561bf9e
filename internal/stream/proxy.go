// Package stream relays remote audio bytes to the client with correct
// partial-content semantics and without buffering the body.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spicezify/tunegate/internal/resolve"
	"github.com/spicezify/tunegate/internal/track"
)

// ErrUpstreamFetch marks a media fetch that failed after a URL resolved.
var ErrUpstreamFetch = errors.New("upstream media fetch failed")

const (
	relayChunkSize = 8 * 1024

	// Headers the original media host sets that the client needs verbatim.
	defaultContentType = "audio/mpeg"
	cacheControl       = "public, max-age=3600"

	upstreamUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	upstreamAccept    = "audio/webm,audio/ogg,audio/wav,audio/*;q=0.9,application/ogg;q=0.7,video/*;q=0.6,*/*;q=0.5"
)

var passthroughHeaders = []string{"Content-Length", "Content-Range", "Last-Modified", "ETag"}

// Proxy streams resolved audio URLs to HTTP clients.
type Proxy struct {
	resolver *resolve.Resolver
	client   *http.Client
	tracer   trace.Tracer
	logger   *zap.Logger
}

// New builds a Proxy. headerTimeout bounds the wait for upstream response
// headers; the body itself may stream for as long as the track plays.
func New(resolver *resolve.Resolver, headerTimeout time.Duration, logger *zap.Logger) *Proxy {
	return &Proxy{
		resolver: resolver,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: headerTimeout,
			},
		},
		tracer: otel.Tracer("stream"),
		logger: logger,
	}
}

// Relay resolves rawID and streams the media body to w, forwarding the
// client's Range header verbatim. Errors are only returned before any body
// byte is written; a mid-stream failure terminates the relay and the client
// must reissue a ranged request.
func (p *Proxy) Relay(w http.ResponseWriter, r *http.Request, rawID string) error {
	id, ok := track.NormalizeID(rawID)
	if !ok {
		return fmt.Errorf("%w: %q", track.ErrInvalidID, rawID)
	}

	ctx, span := p.tracer.Start(r.Context(), "Relay",
		trace.WithAttributes(attribute.String("trackId", id)))
	defer span.End()

	mediaURL, err := p.resolver.Resolve(ctx, id)
	if err != nil {
		return err
	}

	upstream, err := p.fetch(ctx, mediaURL, r.Header.Get("Range"))
	if err != nil {
		// A stale cached URL may be the culprit; drop it so the retry
		// the client issues resolves fresh.
		p.resolver.Invalidate(id)
		return err
	}
	defer func() {
		if err := upstream.Body.Close(); err != nil {
			p.logger.Debug("failed to close upstream body", zap.Error(err))
		}
	}()

	writeHeaders(w, upstream)
	w.WriteHeader(upstream.StatusCode)

	written, err := p.relayBody(ctx, w, upstream.Body)
	if err != nil {
		p.logger.Warn("stream relay ended early",
			zap.String("trackId", id),
			zap.Int64("bytesWritten", written),
			zap.Error(err))
	} else {
		p.logger.Info("stream relay completed",
			zap.String("trackId", id),
			zap.Int64("bytesWritten", written))
	}
	return nil
}

// fetch opens the upstream media request. Only 200 and 206 count as success.
func (p *Proxy) fetch(ctx context.Context, mediaURL, rangeHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	req.Header.Set("User-Agent", upstreamUserAgent)
	req.Header.Set("Accept", upstreamAccept)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		if err := resp.Body.Close(); err != nil {
			p.logger.Debug("failed to close upstream body", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: upstream status %d", ErrUpstreamFetch, resp.StatusCode)
	}
	return resp, nil
}

func writeHeaders(w http.ResponseWriter, upstream *http.Response) {
	contentType := upstream.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Accept-Ranges", "bytes")
	h.Set("Cache-Control", cacheControl)
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Range, Content-Type")
	h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	for _, name := range passthroughHeaders {
		if v := upstream.Header.Get(name); v != "" {
			h.Set(name, v)
		}
	}
}

// relayBody pumps upstream bytes to the client in fixed-size chunks,
// flushing each one so playback starts before the transfer finishes. The
// context ends when the client disconnects, which also cancels the upstream
// request.
func (p *Proxy) relayBody(ctx context.Context, w http.ResponseWriter, body io.Reader) (int64, error) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, relayChunkSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := body.Read(buf)
		if n > 0 {
			wn, writeErr := w.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, readErr
		}
	}
}

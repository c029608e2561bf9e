package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spicezify/tunegate/internal/cache"
	"github.com/spicezify/tunegate/internal/discover"
	"github.com/spicezify/tunegate/internal/resolve"
	"github.com/spicezify/tunegate/internal/stream"
	"github.com/spicezify/tunegate/internal/track"
	"github.com/spicezify/tunegate/internal/upstream"
)

type errorBody struct {
	Error string `json:"error"`
}

type healthBody struct {
	Status        string                 `json:"status"`
	Service       string                 `json:"service"`
	UptimeSeconds int64                  `json:"uptimeSeconds"`
	Caches        map[string]cache.Stats `json:"caches,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "missing query")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("maxResults"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid maxResults")
			return
		}
		limit = n
	}
	verifiedOnly, _ := strconv.ParseBool(r.URL.Query().Get("verifiedOnly"))

	resp, err := s.orchestrator.Discover(r.Context(), query, limit, verifiedOnly)
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	if err := s.proxy.Relay(w, r, r.PathValue("id")); err != nil {
		s.writeErrorFor(w, err)
	}
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	t, err := s.orchestrator.Lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("maxResults"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	resp, err := s.orchestrator.Related(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.writeErrorFor(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := healthBody{
		Status:        "ok",
		Service:       serviceName,
		UptimeSeconds: int64(time.Since(s.started) / time.Second),
	}
	if len(s.cacheStats) > 0 {
		body.Caches = make(map[string]cache.Stats, len(s.cacheStats))
		for name, src := range s.cacheStats {
			body.Caches[name] = src.Stats()
		}
	}
	s.writeJSON(w, http.StatusOK, body)
}

// writeErrorFor maps the service error taxonomy onto HTTP statuses.
func (s *Server) writeErrorFor(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, track.ErrInvalidID), errors.Is(err, discover.ErrEmptyQuery):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, stream.ErrUpstreamFetch):
		s.writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, resolve.ErrResolutionFailed), errors.Is(err, upstream.ErrUnavailable):
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error("unhandled request error", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorBody{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to encode response body", zap.Error(err))
	}
}

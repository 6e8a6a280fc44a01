package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/models"
)

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var query models.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.serveQuery(w, r, &query)
}

// handleAskGet is the query-string form of ask, for curl-friendly use.
func (s *Server) handleAskGet(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	mode, err := models.ParseMode(params.Get("mode"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := &models.Query{
		ID:        params.Get("query_id"),
		RawText:   params.Get("query"),
		Mode:      mode,
		Site:      params.Get("site"),
		Prev:      params["prev"],
		Streaming: params.Get("streaming") == "true",
	}
	if raw := params.Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid max_results")
			return
		}
		query.MaxResults = n
	}
	s.serveQuery(w, r, query)
}

// serveQuery routes a query to the streaming or synchronous pipeline. SSE
// is used when the query asks for streaming or the client accepts
// text/event-stream; streaming must also be allowed by configuration.
func (s *Server) serveQuery(w http.ResponseWriter, r *http.Request, query *models.Query) {
	wantsSSE := query.Streaming ||
		strings.Contains(r.Header.Get("Accept"), "text/event-stream")
	if wantsSSE && s.config.Query.StreamingOrDefault() {
		query.Streaming = true
		s.serveSSE(w, r, query)
		return
	}
	query.Streaming = false

	s.logger.Debug("ask request",
		zap.String("query", query.RawText),
		zap.String("mode", string(query.Mode)))
	resp := s.orch.ProcessRequest(r.Context(), query)
	s.respondJSON(w, http.StatusOK, resp)
}

// serveSSE streams response fragments as server-sent events, one data line
// per fragment, ending after the final fragment.
func (s *Server) serveSSE(w http.ResponseWriter, r *http.Request, query *models.Query) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	fragments, err := s.orch.ProcessRequestStream(r.Context(), query)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for frag := range fragments {
		data, err := json.Marshal(frag)
		if err != nil {
			s.logger.Error("fragment encode failed", zap.Error(err))
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
		if frag.IsFinal {
			return
		}
	}
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.manager.AvailableSites(r.Context())
	if err != nil {
		s.logger.Error("site listing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sites == nil {
		sites = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"sites": sites})
}

func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"backends": s.manager.BackendInfo(),
	})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		s.respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	item, err := s.manager.GetItemByURL(r.Context(), url)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "item not found")
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handlePutItems(w http.ResponseWriter, r *http.Request) {
	var items []models.Result
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, item := range items {
		if item.Name == "" || item.URL == "" {
			s.respondError(w, http.StatusBadRequest, "every item needs a name and a url")
			return
		}
	}
	write := s.manager.WriteBackend()
	s.logger.Debug("put items request",
		zap.Int("count", len(items)),
		zap.String("backend", write.ID()))
	if err := write.Put(r.Context(), items); err != nil {
		s.logger.Error("put items failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "stored",
		"count":   len(items),
		"backend": write.ID(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sites, err := s.manager.AvailableSites(r.Context())
	if err != nil {
		s.logger.Error("status: site listing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"backends":       len(s.manager.Backends()),
		"sites":          len(sites),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("response encode failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"chatqa/internal/metrics"
	"chatqa/internal/source"
)

const (
	msgMissingQuestion = "Please provide a question in the 'q' query parameter."
	msgFetchFailed     = "Failed to fetch messages from data source: "
	msgUnexpectedShape = "Unexpected response structure from messages API."
	msgInternalError   = "Internal error while answering question."
	msgNoSource        = "no message source configured"
)

type answerResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleAsk(rw http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request_id", RequestIDFrom(r.Context()))

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(rw, http.StatusBadRequest, answerResponse{Answer: msgMissingQuestion})
		return
	}

	if s.source == nil {
		s.metrics.FetchFailed(metrics.ReasonFetch)
		writeJSON(rw, http.StatusBadGateway, answerResponse{Answer: msgFetchFailed + msgNoSource})
		return
	}

	logger.Info("fetching messages", "source", s.source.Name())
	records, err := s.source.Fetch(r.Context())
	if err != nil {
		if errors.Is(err, source.ErrUnexpectedShape) {
			logger.Error("unexpected messages payload", "error", err)
			s.metrics.FetchFailed(metrics.ReasonShape)
			writeJSON(rw, http.StatusBadGateway, answerResponse{Answer: msgUnexpectedShape})
			return
		}
		logger.Error("failed to fetch messages", "error", err)
		s.metrics.FetchFailed(metrics.ReasonFetch)
		writeJSON(rw, http.StatusBadGateway, answerResponse{Answer: msgFetchFailed + err.Error()})
		return
	}
	s.metrics.Fetched(len(records))
	logger.Info("fetched messages", "count", len(records))

	start := time.Now()
	ans, err := s.engine.Ask(q, records)
	if err != nil {
		logger.Error("qa engine error", "error", err)
		writeJSON(rw, http.StatusInternalServerError, answerResponse{Answer: msgInternalError})
		return
	}
	s.metrics.ObserveAnswer(ans.Intent, time.Since(start))

	writeJSON(rw, http.StatusOK, answerResponse{Answer: ans.Text})
}

func (s *Server) handleHealth(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	enc := json.NewEncoder(rw)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdiddy/pubmed-search/internal/history"
	"github.com/pdiddy/pubmed-search/internal/logging"
	"github.com/pdiddy/pubmed-search/pkg/types"
)

const internalErrorMessage = "An internal error occurred while processing your request."

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	db := "disabled"
	if s.history != nil {
		db = "connected"
		if _, err := s.history.List(r.Context(), history.ListOptions{Limit: 1}); err != nil {
			s.log.WarnContext(r.Context(), "history unavailable", slog.Any("err", err))
			db = "disconnected"
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Version: s.version, Database: db})
}

// searchBody accepts searchnumber as a JSON number or a numeric string.
type searchBody struct {
	Term         string        `json:"searchterm"`
	Mode         types.Mode    `json:"mode"`
	Email        string        `json:"email"`
	SearchNumber json.Number   `json:"searchnumber"`
	Sort         types.SortKey `json:"sortby"`
}

func (b searchBody) request() (types.SearchRequest, error) {
	req := types.SearchRequest{
		Term:  strings.TrimSpace(b.Term),
		Mode:  b.Mode,
		Email: b.Email,
		Sort:  b.Sort,
	}
	if b.SearchNumber != "" {
		n, err := strconv.Atoi(b.SearchNumber.String())
		if err != nil {
			return req, fmt.Errorf("%w: searchnumber must be an integer", types.ErrInvalidRequest)
		}
		req.MaxResults = n
	}
	return req.WithDefaults(), nil
}

type searchResponse struct {
	Result   string          `json:"result"`
	Search   history.Entry   `json:"search"`
	Articles []types.Article `json:"articles"`
	Emails   []string        `json:"emails"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	req, err := body.request()
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if s.cfg.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SearchTimeout)
		defer cancel()
	}

	resp, err := s.searcher.Search(ctx, req)
	if err != nil {
		if errors.Is(err, types.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.ErrorContext(ctx, "search failed", slog.String("term", req.Term), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	entry := history.Entry{
		Query:      req.Term,
		Mode:       req.Mode,
		Sort:       req.Sort,
		MaxResults: req.MaxResults,
		Matched:    resp.Matched,
		Articles:   len(resp.Articles),
		Emails:     len(resp.Emails),
	}
	entry.RequestID, _ = logging.RequestIDFromContext(r.Context())
	if s.history != nil {
		recorded, err := s.history.Record(r.Context(), entry)
		if err != nil {
			s.log.WarnContext(r.Context(), "recording search", slog.Any("err", err))
		} else {
			entry = recorded
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Result:   resp.Output,
		Search:   entry,
		Articles: resp.Articles,
		Emails:   resp.Emails,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "search history is disabled")
		return
	}

	opts := history.ListOptions{Contains: strings.TrimSpace(r.URL.Query().Get("q"))}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = n
	}

	entries, err := s.history.List(r.Context(), opts)
	if err != nil {
		s.log.ErrorContext(r.Context(), "listing history", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"searches": entries, "count": len(entries)})
}

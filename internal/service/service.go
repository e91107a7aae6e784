// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package service runs one search request end to end: it declares the
// search and fetch tasks, executes them, and renders the extracted
// articles for the requested mode.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/pdiddy/pubmed-search/internal/extract"
	"github.com/pdiddy/pubmed-search/internal/format"
	"github.com/pdiddy/pubmed-search/internal/pipeline"
	"github.com/pdiddy/pubmed-search/internal/result"
	"github.com/pdiddy/pubmed-search/pkg/types"
)

// Messages returned in place of output when a search yields no articles.
const (
	NoArticlesMessage = "No articles found for your search."
	NoEmailsMessage   = "No articles found — no emails to display."
)

// ExecutorFactory returns a fresh executor for one run. contact is the
// caller's email, sent to the remote service; "" keeps the configured one.
type ExecutorFactory func(contact string) pipeline.Executor

// Service turns SearchRequests into rendered output.
type Service struct {
	newExecutor   ExecutorFactory
	recordBaseURL string
	log           *slog.Logger
}

// New returns a Service that runs pipelines on executors from newExecutor
// and links records under recordBaseURL.
func New(newExecutor ExecutorFactory, recordBaseURL string, lg *slog.Logger) *Service {
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{newExecutor: newExecutor, recordBaseURL: recordBaseURL, log: lg}
}

// Response is the outcome of one search.
type Response struct {
	Request types.SearchRequest `json:"request"`

	// Output is the rendered text for the request's mode.
	Output string `json:"result"`

	// Matched is the total number of records matching the query remotely.
	Matched int `json:"matched"`

	Articles []types.Article `json:"articles"`
	Emails   []string        `json:"emails"`

	// Result is the raw aggregate, nil when nothing was fetched.
	Result *result.Result `json:"-"`
}

// Found reports whether any article was extracted.
func (r Response) Found() bool { return len(r.Articles) > 0 }

// Search validates req, runs its pipeline and renders the output for its
// mode. Validation failures wrap types.ErrInvalidRequest.
func (s *Service) Search(ctx context.Context, req types.SearchRequest) (Response, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return Response{}, err
	}

	out, err := s.run(ctx, req)
	if err != nil {
		return Response{}, err
	}

	resp := Response{
		Request:  req,
		Matched:  out.Count,
		Result:   out.Articles,
		Articles: []types.Article{},
		Emails:   []string{},
	}
	if out.Articles != nil {
		resp.Articles = out.Articles.Articles()
		resp.Emails = out.Articles.Emails().Sorted()
	}

	switch req.Mode {
	case types.ModeEmails:
		resp.Output = NoEmailsMessage
		if resp.Found() {
			resp.Output = format.Emails(resp.Emails)
		}
	default:
		resp.Output = NoArticlesMessage
		if resp.Found() {
			resp.Output = format.Overview(resp.Articles, s.recordBaseURL)
		}
	}

	s.log.InfoContext(ctx, "search completed",
		slog.String("term", req.Term),
		slog.String("mode", string(req.Mode)),
		slog.Int("matched", resp.Matched),
		slog.Int("articles", len(resp.Articles)),
		slog.Int("emails", len(resp.Emails)))
	return resp, nil
}

// Summary returns the markdown overview of the articles matching req.
func (s *Service) Summary(ctx context.Context, req types.SearchRequest) (string, error) {
	req.Mode = types.ModeOverview
	resp, err := s.Search(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Output, nil
}

// Emails returns the de-duplicated contact addresses of the articles
// matching req as one comma-separated line.
func (s *Service) Emails(ctx context.Context, req types.SearchRequest) (string, error) {
	req.Mode = types.ModeEmails
	resp, err := s.Search(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Output, nil
}

func (s *Service) run(ctx context.Context, req types.SearchRequest) (pipeline.Output, error) {
	p := pipeline.New(s.newExecutor(req.Email))
	if _, err := p.AddSearch(req.Term, req.Sort, req.MaxResults); err != nil {
		return pipeline.Output{}, fmt.Errorf("declaring search: %w", err)
	}

	analyzer := extract.NewAnalyzer(s.log.With(slog.String("prefix", "extract")))
	if _, err := p.AddFetch(analyzer); err != nil {
		return pipeline.Output{}, fmt.Errorf("declaring fetch: %w", err)
	}

	out, err := p.GetResults(ctx)
	if err != nil {
		return pipeline.Output{}, err
	}
	return out, nil
}

// Modes returns the accepted mode names, for help text.
func Modes() []string {
	return lo.Map(types.Modes, func(m types.Mode, _ int) string { return string(m) })
}

// SortKeys returns the accepted sort key names, for help text.
func SortKeys() []string {
	return lo.Map(types.SortKeys, func(k types.SortKey, _ int) string { return string(k) })
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns raw fetch responses into Article records.
//
// A response is split into per-record fragments that are parsed one at a
// time, so a malformed record is skipped without affecting its siblings.
// Only a payload with no parsable root element at all is reported as
// ErrMalformedResponse.
package extract

import (
	"log/slog"

	"github.com/pdiddy/pubmed-search/internal/pipeline"
	"github.com/pdiddy/pubmed-search/internal/result"
	"github.com/pdiddy/pubmed-search/pkg/types"
)

// Stats counts what one Analyze call did.
type Stats struct {
	Parsed  int
	Skipped int
}

// ExtractArticle builds an Article from one parsed record element.
func ExtractArticle(article *Element) types.Article {
	pmid, title, language := ExtractBasics(article)
	date := ExtractPublishDate(article)
	emails, people := ExtractAuthorsAndEmails(article)
	return types.NewArticle(pmid, title, language, date, emails, people)
}

// Analyze appends an Article to res for every parsable record in data.
// Records that fail to parse are counted in Stats.Skipped. It returns
// ErrMalformedResponse, leaving res untouched, when data is not XML at all.
func Analyze(data []byte, res *result.Result) (Stats, error) {
	var stats Stats
	if _, err := checkDocument(data); err != nil {
		return stats, err
	}

	for _, fragment := range SplitRecords(data, tagArticle) {
		el, err := TryParseElement(fragment)
		if err != nil {
			stats.Skipped++
			continue
		}
		res.Add(ExtractArticle(el))
		stats.Parsed++
	}
	return stats, nil
}

// Analyzer is the fetch response handler of a pipeline run. Its Result is
// created on the first response and then only appended to, so an executor
// may deliver several chunks for one fetch. Problems with a response are
// logged and never abort the run.
type Analyzer struct {
	log *slog.Logger

	// result stays nil until ensureInitialized; it is never replaced.
	result *result.Result
}

var _ pipeline.ResponseHandler = (*Analyzer)(nil)

// NewAnalyzer returns an Analyzer that reports diagnostics to lg.
func NewAnalyzer(lg *slog.Logger) *Analyzer {
	if lg == nil {
		lg = slog.Default()
	}
	return &Analyzer{log: lg}
}

// Result returns the accumulated Result, or nil before the first response.
func (a *Analyzer) Result() *result.Result { return a.result }

func (a *Analyzer) ensureInitialized(task pipeline.Task) {
	if a.result != nil {
		return
	}
	a.result = result.New(result.Descriptor{
		Database:  task.Database(),
		Operation: task.Kind,
		QueryID:   task.Handle,
	})
}

// AnalyzeResult extracts the records of one response chunk.
func (a *Analyzer) AnalyzeResult(data []byte, task pipeline.Task) {
	a.ensureInitialized(task)

	stats, err := Analyze(data, a.result)
	if err != nil {
		a.AnalyzeError(data, task, err)
		return
	}
	if stats.Skipped > 0 {
		a.log.Warn("skipped malformed records",
			slog.String("handle", string(task.Handle)),
			slog.Int("parsed", stats.Parsed),
			slog.Int("skipped", stats.Skipped))
	}
	a.log.Debug("analyzed response",
		slog.String("handle", string(task.Handle)),
		slog.Int("parsed", stats.Parsed),
		slog.Int("total", a.result.Size()))
}

// AnalyzeError reports a response that could not be used, echoing the
// task's parameters and the raw payload.
func (a *Analyzer) AnalyzeError(data []byte, task pipeline.Task, err error) {
	a.log.Error("response could not be analyzed",
		slog.Any("err", err),
		slog.Any("task", task.Params()),
		slog.String("response", string(data)))
}

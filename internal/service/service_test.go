// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-search/internal/pipeline"
	"github.com/pdiddy/pubmed-search/pkg/types"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubExecutor answers the search with ids and feeds records to the fetch
// handler as a single response chunk.
type stubExecutor struct {
	ids     []string
	records string
	err     error

	contact string
	spec    pipeline.Spec
	outputs map[types.Handle]pipeline.Output
}

func (s *stubExecutor) Execute(_ context.Context, spec pipeline.Spec) error {
	s.spec = spec
	if s.err != nil {
		return s.err
	}
	s.outputs = map[types.Handle]pipeline.Output{}
	tasks, err := spec.Order()
	if err != nil {
		return err
	}
	for _, task := range tasks {
		switch task.Kind {
		case types.TaskSearch:
			s.outputs[task.Handle] = pipeline.Output{Handle: task.Handle, Kind: task.Kind, IDs: s.ids, Count: len(s.ids)}
		case types.TaskFetch:
			if len(s.ids) > 0 {
				task.Handler.AnalyzeResult([]byte(s.records), task)
			}
			s.outputs[task.Handle] = pipeline.Output{Handle: task.Handle, Kind: task.Kind, IDs: s.ids, Count: len(s.ids), Articles: task.Handler.Result()}
		}
	}
	return nil
}

func (s *stubExecutor) Result(h types.Handle) (pipeline.Output, error) {
	out, ok := s.outputs[h]
	if !ok {
		return pipeline.Output{}, fmt.Errorf("no output for %s", h)
	}
	return out, nil
}

func (s *stubExecutor) factory() ExecutorFactory {
	return func(contact string) pipeline.Executor {
		s.contact = contact
		return s
	}
}

func record(pmid, title, affiliation string) string {
	return fmt.Sprintf(`<PubmedArticle><PMID>%s</PMID><ArticleTitle>%s</ArticleTitle><Language>eng</Language>`+
		`<PubDate><Year>2024</Year></PubDate>`+
		`<Author><LastName>Doe</LastName><ForeName>Jane</ForeName><AffiliationInfo><Affiliation>%s</Affiliation></AffiliationInfo></Author>`+
		`</PubmedArticle>`, pmid, title, affiliation)
}

func records(rs ...string) string {
	return "<PubmedArticleSet>" + strings.Join(rs, "") + "</PubmedArticleSet>"
}

func TestSummary(t *testing.T) {
	stub := &stubExecutor{
		ids:     []string{"1", "2"},
		records: records(record("1", "First", "Lab A, a@x.org"), record("2", "Second", "Lab B")),
	}
	svc := New(stub.factory(), "https://pubmed.ncbi.nlm.nih.gov", quiet)

	got, err := svc.Summary(context.Background(), types.SearchRequest{Term: "cancer", Email: "me@x.org", MaxResults: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(got, "##  Article Overview"))
	assert.Contains(t, got, "**URL:** https://pubmed.ncbi.nlm.nih.gov/1\n")
	assert.Contains(t, got, "| Jane Doe | Lab A, a@x.org |")
	assert.Contains(t, got, "**Emails:** a@x.org")
	assert.Equal(t, "me@x.org", stub.contact)

	require.Len(t, stub.spec.Tasks, 2)
	search := stub.spec.Tasks[0].Search
	require.NotNil(t, search)
	assert.Equal(t, "cancer", search.Term)
	assert.Equal(t, types.SortRelevance, search.Sort)
	assert.Equal(t, 2, search.MaxResults)
}

func TestEmailsDeduplicatesAcrossArticles(t *testing.T) {
	stub := &stubExecutor{
		ids: []string{"1", "2", "3"},
		records: records(
			record("1", "A", "x, b@x.org"),
			record("2", "B", "y, a@x.org"),
			record("3", "C", "z, b@x.org"),
		),
	}
	svc := New(stub.factory(), "", quiet)

	got, err := svc.Emails(context.Background(), types.SearchRequest{Term: "x", Sort: types.SortAuthor})
	require.NoError(t, err)
	assert.Equal(t, "a@x.org, b@x.org", got)
}

func TestNoArticlesMessages(t *testing.T) {
	stub := &stubExecutor{}
	svc := New(stub.factory(), "", quiet)

	got, err := svc.Summary(context.Background(), types.SearchRequest{Term: "nothing"})
	require.NoError(t, err)
	assert.Equal(t, NoArticlesMessage, got)

	got, err = svc.Emails(context.Background(), types.SearchRequest{Term: "nothing"})
	require.NoError(t, err)
	assert.Equal(t, NoEmailsMessage, got)
}

func TestEmailsModeWithoutAddresses(t *testing.T) {
	stub := &stubExecutor{ids: []string{"1"}, records: records(record("1", "A", "No address"))}
	svc := New(stub.factory(), "", quiet)

	resp, err := svc.Search(context.Background(), types.SearchRequest{Term: "x", Mode: types.ModeEmails})
	require.NoError(t, err)
	assert.True(t, resp.Found())
	assert.Equal(t, "", resp.Output)
	assert.Empty(t, resp.Emails)
}

func TestSearchResponse(t *testing.T) {
	stub := &stubExecutor{ids: []string{"1"}, records: records(record("1", "A", "Lab, a@x.org"))}
	svc := New(stub.factory(), "", quiet)

	resp, err := svc.Search(context.Background(), types.SearchRequest{Term: "x"})
	require.NoError(t, err)
	assert.Equal(t, types.ModeOverview, resp.Request.Mode)
	assert.Equal(t, types.DefaultResults, resp.Request.MaxResults)
	assert.Equal(t, 1, resp.Matched)
	require.Len(t, resp.Articles, 1)
	assert.Equal(t, "2024", resp.Articles[0].Date)
	assert.Equal(t, []string{"a@x.org"}, resp.Emails)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 1, resp.Result.Size())
}

func TestSearchRejectsInvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  types.SearchRequest
	}{
		{"empty term", types.SearchRequest{}},
		{"bad mode", types.SearchRequest{Term: "x", Mode: "everything"}},
		{"bad sort", types.SearchRequest{Term: "x", Sort: "date"}},
		{"too many", types.SearchRequest{Term: "x", MaxResults: 101}},
		{"negative", types.SearchRequest{Term: "x", MaxResults: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubExecutor{}
			svc := New(stub.factory(), "", quiet)

			_, err := svc.Search(context.Background(), tt.req)
			require.ErrorIs(t, err, types.ErrInvalidRequest)
			assert.Empty(t, stub.spec.Tasks, "nothing is submitted")
		})
	}
}

func TestSearchPropagatesExecutorFailure(t *testing.T) {
	remote := errors.New("connection reset")
	stub := &stubExecutor{err: remote}
	svc := New(stub.factory(), "", quiet)

	_, err := svc.Summary(context.Background(), types.SearchRequest{Term: "x"})
	require.ErrorIs(t, err, remote)
}

func TestHelpLists(t *testing.T) {
	assert.Equal(t, []string{"overview", "emails"}, Modes())
	assert.Equal(t, []string{"relevance", "pub_date", "Author", "JournalName"}, SortKeys())
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline declares the two dependent remote operations of a run
// (search for IDs, then fetch the full records) and hands them to an
// Executor as one Spec.
//
// A Pipeline moves through three states. It is Built until both a search
// and a fetch are declared, Submitted once the fetch references the search
// handle, and Resolved after GetResults has executed the graph. A Pipeline
// serves exactly one run.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pdiddy/pubmed-search/internal/result"
	"github.com/pdiddy/pubmed-search/pkg/types"
)

var (
	// ErrNoSearch is returned when a fetch or a run is requested before a
	// search has been declared.
	ErrNoSearch = errors.New("no search task declared")

	// ErrTaskExists is returned when a search or fetch is declared twice.
	ErrTaskExists = errors.New("task already declared")

	// ErrResolved is returned when a Pipeline is modified or run after its
	// single run has happened.
	ErrResolved = errors.New("pipeline already resolved")

	// ErrNoHandler is returned by AddFetch when the response handler is nil.
	ErrNoHandler = errors.New("fetch task requires a response handler")
)

// Executor runs a Spec against the remote database. Execute blocks until
// every task has completed and every handler callback has returned.
type Executor interface {
	Execute(ctx context.Context, spec Spec) error
	Result(h types.Handle) (Output, error)
}

// Output is what a task produced. Search tasks carry IDs; fetch tasks
// carry the handler's Articles (nil if no response arrived).
type Output struct {
	Handle types.Handle
	Kind   types.TaskKind

	IDs   []string
	Count int

	Articles *result.Result
}

// State is the lifecycle stage of a Pipeline.
type State int

const (
	StateBuilt State = iota
	StateSubmitted
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSubmitted:
		return "submitted"
	case StateResolved:
		return "resolved"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Pipeline builds and runs one search→fetch graph.
type Pipeline struct {
	exec      Executor
	state     State
	search    *Task
	fetch     *Task
	newHandle func() types.Handle
}

// New returns a Pipeline that will run on exec.
func New(exec Executor) *Pipeline {
	return &Pipeline{
		exec:      exec,
		newHandle: func() types.Handle { return types.Handle(uuid.NewString()) },
	}
}

// State returns the current lifecycle stage.
func (p *Pipeline) State() State { return p.state }

// SearchOption adjusts a search task.
type SearchOption func(*types.SearchTask)

// WithSearchDatabase sets the database searched (default "pubmed").
func WithSearchDatabase(db string) SearchOption {
	return func(t *types.SearchTask) { t.Database = db }
}

// WithResultType sets the ID-list shape (default "uilist").
func WithResultType(rettype string) SearchOption {
	return func(t *types.SearchTask) { t.ResultType = rettype }
}

// AddSearch declares the search task and returns its handle. Nothing is
// executed.
func (p *Pipeline) AddSearch(term string, sort types.SortKey, maxResults int, opts ...SearchOption) (types.Handle, error) {
	if p.state == StateResolved {
		return "", ErrResolved
	}
	if p.search != nil {
		return "", fmt.Errorf("search: %w", ErrTaskExists)
	}

	st := &types.SearchTask{
		Database:   types.DefaultDatabase,
		Term:       term,
		MaxResults: maxResults,
		Sort:       sort,
		ResultType: types.DefaultResultType,
	}
	for _, opt := range opts {
		opt(st)
	}

	p.search = &Task{Handle: p.newHandle(), Kind: types.TaskSearch, Search: st}
	return p.search.Handle, nil
}

// FetchOption adjusts a fetch task.
type FetchOption func(*types.FetchTask)

// WithFetchDatabase sets the database fetched from (default "pubmed").
func WithFetchDatabase(db string) FetchOption {
	return func(t *types.FetchTask) { t.Database = db }
}

// WithResultMode sets the response format (default "xml").
func WithResultMode(retmode string) FetchOption {
	return func(t *types.FetchTask) { t.ResultMode = retmode }
}

// AddFetch declares the fetch task bound to the search handle and to h.
// It fails with ErrNoSearch when no search has been declared.
func (p *Pipeline) AddFetch(h ResponseHandler, opts ...FetchOption) (types.Handle, error) {
	if p.state == StateResolved {
		return "", ErrResolved
	}
	if p.search == nil {
		return "", fmt.Errorf("fetch: %w", ErrNoSearch)
	}
	if p.fetch != nil {
		return "", fmt.Errorf("fetch: %w", ErrTaskExists)
	}
	if h == nil {
		return "", ErrNoHandler
	}

	ft := &types.FetchTask{
		Database:   types.DefaultDatabase,
		ResultMode: types.DefaultResultMode,
		Dependency: p.search.Handle,
	}
	for _, opt := range opts {
		opt(ft)
	}

	p.fetch = &Task{Handle: p.newHandle(), Kind: types.TaskFetch, Fetch: ft, Handler: h}
	p.state = StateSubmitted
	return p.fetch.Handle, nil
}

// Spec returns the declared tasks.
func (p *Pipeline) Spec() Spec {
	var s Spec
	if p.search != nil {
		s.Tasks = append(s.Tasks, *p.search)
	}
	if p.fetch != nil {
		s.Tasks = append(s.Tasks, *p.fetch)
	}
	return s
}

// GetResults executes the declared graph and returns the fetch output, or
// the search output when no fetch was declared. No extraction happens
// before this call. Transport failures are returned, never retried here.
func (p *Pipeline) GetResults(ctx context.Context) (Output, error) {
	if p.state == StateResolved {
		return Output{}, ErrResolved
	}
	if p.search == nil {
		return Output{}, ErrNoSearch
	}
	p.state = StateResolved

	if err := p.exec.Execute(ctx, p.Spec()); err != nil {
		return Output{}, fmt.Errorf("executing pipeline: %w", err)
	}

	key := p.search.Handle
	if p.fetch != nil {
		key = p.fetch.Handle
	}
	out, err := p.exec.Result(key)
	if err != nil {
		return Output{}, fmt.Errorf("reading result %s: %w", key, err)
	}
	return out, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"

	"github.com/pdiddy/pubmed-search/internal/result"
	"github.com/pdiddy/pubmed-search/pkg/types"
)

// ResponseHandler consumes the raw responses of a fetch task. An Executor
// calls AnalyzeResult once per response chunk, possibly several times for
// one task, and AnalyzeError when a response could not be obtained.
type ResponseHandler interface {
	AnalyzeResult(data []byte, task Task)
	AnalyzeError(data []byte, task Task, err error)

	// Result returns what the handler accumulated, or nil if no response
	// has been analyzed yet.
	Result() *result.Result
}

// Task is one node of a Spec. Exactly one of Search and Fetch is set,
// matching Kind.
type Task struct {
	Handle types.Handle
	Kind   types.TaskKind
	Search *types.SearchTask
	Fetch  *types.FetchTask

	// Handler receives the fetch responses. Nil for search tasks.
	Handler ResponseHandler
}

// Database returns the remote database the task runs against.
func (t Task) Database() string {
	switch {
	case t.Search != nil:
		return t.Search.Database
	case t.Fetch != nil:
		return t.Fetch.Database
	}
	return ""
}

// DependsOn returns the handles that must complete before t runs.
func (t Task) DependsOn() []types.Handle {
	if t.Fetch != nil && t.Fetch.Dependency != "" {
		return []types.Handle{t.Fetch.Dependency}
	}
	return nil
}

// Params returns the task's identifying parameters for diagnostics.
func (t Task) Params() map[string]any {
	p := map[string]any{
		"handle": string(t.Handle),
		"eutil":  string(t.Kind),
		"db":     t.Database(),
	}
	if t.Search != nil {
		p["term"] = t.Search.Term
		p["retmax"] = t.Search.MaxResults
		p["sort"] = string(t.Search.Sort)
		p["rettype"] = t.Search.ResultType
	}
	if t.Fetch != nil {
		p["retmode"] = t.Fetch.ResultMode
		p["dependency"] = string(t.Fetch.Dependency)
	}
	return p
}

// Spec is the declared task graph handed to an Executor in one piece.
// Tasks are kept in declaration order.
type Spec struct {
	Tasks []Task
}

// Task returns the task with handle h.
func (s Spec) Task(h types.Handle) (Task, bool) {
	for _, t := range s.Tasks {
		if t.Handle == h {
			return t, true
		}
	}
	return Task{}, false
}

// Order returns the tasks so that every task follows its dependencies.
// Independent tasks keep declaration order. Unknown dependencies, duplicate
// handles and cycles are errors.
func (s Spec) Order() ([]Task, error) {
	g := graph.New(func(t Task) types.Handle { return t.Handle }, graph.Directed(), graph.PreventCycles())

	position := make(map[types.Handle]int, len(s.Tasks))
	for i, t := range s.Tasks {
		if err := g.AddVertex(t); err != nil {
			if errors.Is(err, graph.ErrVertexAlreadyExists) {
				return nil, fmt.Errorf("duplicate task handle %q", t.Handle)
			}
			return nil, fmt.Errorf("adding task %q: %w", t.Handle, err)
		}
		position[t.Handle] = i
	}

	for _, t := range s.Tasks {
		for _, dep := range t.DependsOn() {
			if _, ok := position[dep]; !ok {
				return nil, fmt.Errorf("task %q depends on unknown task %q", t.Handle, dep)
			}
			if err := g.AddEdge(dep, t.Handle); err != nil {
				if errors.Is(err, graph.ErrEdgeCreatesCycle) {
					return nil, fmt.Errorf("task %q: dependency on %q creates a cycle", t.Handle, dep)
				}
				return nil, fmt.Errorf("linking %q to %q: %w", dep, t.Handle, err)
			}
		}
	}

	handles, err := graph.StableTopologicalSort(g, func(a, b types.Handle) bool {
		return position[a] < position[b]
	})
	if err != nil {
		return nil, fmt.Errorf("ordering tasks: %w", err)
	}

	ordered := make([]Task, len(handles))
	for i, h := range handles {
		ordered[i] = s.Tasks[position[h]]
	}
	return ordered, nil
}

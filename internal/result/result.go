// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package result accumulates the Articles extracted during one fetch run.
package result

import (
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubmed-search/pkg/types"
)

// Descriptor identifies the operation a Result was produced for.
type Descriptor struct {
	Database  string         `json:"db" yaml:"db"`
	Operation types.TaskKind `json:"eutil" yaml:"eutil"`
	QueryID   types.Handle   `json:"query_id" yaml:"query_id"`
}

// Result is the ordered collection of Articles for one pipeline run.
// Articles keep arrival order; nothing is ever removed.
type Result struct {
	desc     Descriptor
	articles []types.Article
}

// New returns an empty Result for the given operation.
func New(desc Descriptor) *Result {
	return &Result{desc: desc}
}

// Descriptor returns the originating operation.
func (r *Result) Descriptor() Descriptor { return r.desc }

// Add appends a. No deduplication is performed.
func (r *Result) Add(a types.Article) {
	r.articles = append(r.articles, a)
}

// Size returns the number of Articles.
func (r *Result) Size() int { return len(r.articles) }

// IsEmpty reports whether no Article has been added.
func (r *Result) IsEmpty() bool { return len(r.articles) == 0 }

// Articles returns the Articles in arrival order. The slice is a copy.
func (r *Result) Articles() []types.Article {
	out := make([]types.Article, len(r.articles))
	copy(out, r.articles)
	return out
}

// Emails returns the union of every Article's email set.
func (r *Result) Emails() types.EmailSet {
	all := types.EmailSet{}
	for _, a := range r.articles {
		all.Merge(a.Emails)
	}
	return all
}

// Dump is the diagnostic view of a Result. Its layout is for humans and
// logs; it is not a stable serialization format.
type Dump struct {
	Descriptor `yaml:",inline"`
	Articles   []types.Article `json:"article_records" yaml:"article_records"`
}

// Describe returns the descriptor together with every Article.
func (r *Result) Describe() Dump {
	return Dump{Descriptor: r.desc, Articles: r.Articles()}
}

// WriteYAML writes Describe to w as YAML.
func (r *Result) WriteYAML(w io.Writer) error {
	data, err := yaml.Marshal(r.Describe())
	if err != nil {
		return fmt.Errorf("marshaling result dump: %w", err)
	}
	_, err = w.Write(data)
	return err
}

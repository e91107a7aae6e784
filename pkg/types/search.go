// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest is wrapped by every SearchRequest validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// SortKey orders the search result list on the remote side.
type SortKey string

const (
	SortRelevance   SortKey = "relevance"
	SortPubDate     SortKey = "pub_date"
	SortAuthor      SortKey = "Author"
	SortJournalName SortKey = "JournalName"
)

// SortKeys lists the accepted sort keys in display order.
var SortKeys = []SortKey{SortRelevance, SortPubDate, SortAuthor, SortJournalName}

// Valid reports whether k is one of SortKeys.
func (k SortKey) Valid() bool {
	for _, v := range SortKeys {
		if k == v {
			return true
		}
	}
	return false
}

// Mode selects what the caller gets back from a search.
type Mode string

const (
	ModeOverview Mode = "overview"
	ModeEmails   Mode = "emails"
)

// Modes lists the accepted output modes.
var Modes = []Mode{ModeOverview, ModeEmails}

// Valid reports whether m is one of Modes.
func (m Mode) Valid() bool {
	return m == ModeOverview || m == ModeEmails
}

const (
	// MinResults and MaxResults bound SearchRequest.MaxResults.
	MinResults = 1
	MaxResults = 100

	DefaultResults = 10
)

// SearchRequest is a search as received at the CLI or HTTP boundary.
type SearchRequest struct {
	Term       string  `json:"searchterm"`
	Mode       Mode    `json:"mode"`
	Email      string  `json:"email"`
	MaxResults int     `json:"searchnumber"`
	Sort       SortKey `json:"sortby"`
}

// WithDefaults fills unset fields: overview mode, relevance sort, 10 results.
func (r SearchRequest) WithDefaults() SearchRequest {
	if r.Mode == "" {
		r.Mode = ModeOverview
	}
	if r.Sort == "" {
		r.Sort = SortRelevance
	}
	if r.MaxResults == 0 {
		r.MaxResults = DefaultResults
	}
	return r
}

// Validate rejects requests that must never reach the pipeline.
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Term) == "" {
		return fmt.Errorf("%w: search term is required", ErrInvalidRequest)
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("%w: mode %q must be one of %v", ErrInvalidRequest, r.Mode, Modes)
	}
	if !r.Sort.Valid() {
		return fmt.Errorf("%w: sort %q must be one of %v", ErrInvalidRequest, r.Sort, SortKeys)
	}
	if r.MaxResults < MinResults || r.MaxResults > MaxResults {
		return fmt.Errorf("%w: result count must be between %d and %d, got %d",
			ErrInvalidRequest, MinResults, MaxResults, r.MaxResults)
	}
	return nil
}

// Handle identifies a submitted task so later tasks can depend on it.
type Handle string

// TaskKind names the remote operation a task performs.
type TaskKind string

const (
	TaskSearch TaskKind = "esearch"
	TaskFetch  TaskKind = "efetch"
)

const (
	DefaultDatabase   = "pubmed"
	DefaultResultType = "uilist"
	DefaultResultMode = "xml"
)

// SearchTask describes a query-to-ID-list operation.
type SearchTask struct {
	Database   string  `json:"db" yaml:"db"`
	Term       string  `json:"term" yaml:"term"`
	MaxResults int     `json:"retmax" yaml:"retmax"`
	Sort       SortKey `json:"sort" yaml:"sort"`

	// ResultType is the shape of the returned ID list ("uilist").
	ResultType string `json:"rettype" yaml:"rettype"`
}

// FetchTask describes an ID-list-to-full-record operation. Dependency is
// the handle of the search whose IDs it fetches.
type FetchTask struct {
	Database   string `json:"db" yaml:"db"`
	ResultMode string `json:"retmode" yaml:"retmode"`
	Dependency Handle `json:"dependency" yaml:"dependency"`
}

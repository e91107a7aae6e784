// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the search pipeline:
// the extracted record model (Person, Article, EmailSet), the task
// descriptors handed to an executor, request validation, and configuration.
package types

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Person is an author as listed on an article. Every field defaults to the
// empty string; a Person with all fields empty is valid and is produced when
// the source record omits the author's details.
type Person struct {
	LastName    string `json:"last_name" yaml:"last_name"`
	FirstName   string `json:"first_name" yaml:"first_name"`
	Initials    string `json:"initials" yaml:"initials"`
	Affiliation string `json:"affiliation" yaml:"affiliation"`

	// Email is the address found in Affiliation, if any.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// FullName returns "FirstName LastName" exactly as the overview table shows it.
func (p Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

// EmailSet holds unique contact addresses. Order is not meaningful; use
// Sorted for deterministic output.
type EmailSet map[string]struct{}

// NewEmailSet returns a set holding the given addresses.
func NewEmailSet(emails ...string) EmailSet {
	s := make(EmailSet, len(emails))
	for _, e := range emails {
		s.Add(e)
	}
	return s
}

// Add inserts email. Empty strings are ignored.
func (s EmailSet) Add(email string) {
	if email == "" {
		return
	}
	s[email] = struct{}{}
}

// Has reports whether email is in the set.
func (s EmailSet) Has(email string) bool {
	_, ok := s[email]
	return ok
}

// Len returns the number of addresses.
func (s EmailSet) Len() int { return len(s) }

// Merge adds every address of other to s.
func (s EmailSet) Merge(other EmailSet) {
	for e := range other {
		s[e] = struct{}{}
	}
}

// Sorted returns the addresses in lexical order.
func (s EmailSet) Sorted() []string {
	out := lo.Keys(s)
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s EmailSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// MarshalYAML encodes the set as a sorted sequence.
func (s EmailSet) MarshalYAML() (any, error) {
	return s.Sorted(), nil
}

// Article is one bibliographic record extracted from a fetch response.
// Build it with NewArticle; it is not modified afterwards.
type Article struct {
	// PMID is the source record identifier.
	PMID string `json:"pmid" yaml:"pmid"`

	Title    string `json:"title" yaml:"title"`
	Language string `json:"language" yaml:"language"`

	// Date is "YYYY", "YYYY-MM" or "YYYY-MM-DD" composed from whichever
	// parts the record carries. It is not validated or zero-padded.
	Date string `json:"date" yaml:"date"`

	// Emails holds every address found in the People's affiliations.
	Emails EmailSet `json:"emails" yaml:"emails"`

	// People lists the authors in source order. Duplicates are kept.
	People []Person `json:"people" yaml:"people"`
}

// NewArticle assembles an Article. A nil email set is replaced by an empty one.
func NewArticle(pmid, title, language, date string, emails EmailSet, people []Person) Article {
	if emails == nil {
		emails = EmailSet{}
	}
	return Article{
		PMID:     pmid,
		Title:    title,
		Language: language,
		Date:     date,
		Emails:   emails,
		People:   people,
	}
}

// URL returns the canonical reference URL of the record under base.
func (a Article) URL(base string) string {
	return strings.TrimRight(base, "/") + "/" + a.PMID
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format renders extracted articles for people and programs.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/pubmed-search/pkg/types"
)

// Overview renders articles as a markdown report, one section per article
// with an author table. The emails line appears only for articles that
// have addresses. Record links are built from baseURL.
func Overview(articles []types.Article, baseURL string) string {
	var b strings.Builder
	for _, a := range articles {
		fmt.Fprintf(&b, "##  Article Overview\n\n")
		fmt.Fprintf(&b, "**Title:** %s\n", a.Title)
		fmt.Fprintf(&b, "**URL:** %s\n", a.URL(baseURL))
		fmt.Fprintf(&b, "**Language:** %s\n", a.Language)
		fmt.Fprintf(&b, "**Publication Date:** %s\n", a.Date)
		fmt.Fprintf(&b, "**PMID:** %s\n\n", a.PMID)
		b.WriteString("---\n\n")
		b.WriteString("###  Authors & Affiliations\n\n")
		b.WriteString("| Author | Affiliation |\n")
		b.WriteString("|--------|-------------|\n")
		for _, p := range a.People {
			fmt.Fprintf(&b, "| %s | %s |\n", tableCell(p.FullName()), tableCell(p.Affiliation))
		}
		if a.Emails.Len() > 0 {
			fmt.Fprintf(&b, "\n**Emails:** %s\n", Emails(a.Emails.Sorted()))
		}
	}
	return b.String()
}

// tableCell keeps a value on one markdown table row.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// Emails joins addresses with ", ".
func Emails(emails []string) string {
	return strings.Join(emails, ", ")
}

// JSON writes articles as indented JSON to w.
func JSON(w io.Writer, articles []types.Article) error {
	if articles == nil {
		articles = []types.Article{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(articles)
}

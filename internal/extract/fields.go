// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"

	"github.com/pdiddy/pubmed-search/pkg/types"
)

// Record element names.
const (
	tagArticle     = "PubmedArticle"
	tagPMID        = "PMID"
	tagTitle       = "ArticleTitle"
	tagLanguage    = "Language"
	tagPubDate     = "PubDate"
	tagAuthor      = "Author"
	tagLastName    = "LastName"
	tagForeName    = "ForeName"
	tagInitials    = "Initials"
	tagAffiliation = "Affiliation"
)

var datePartTags = []string{"Year", "Month", "Day"}

// ExtractBasics returns the record ID, title and language of an article.
// A missing tag yields "".
func ExtractBasics(article *Element) (pmid, title, language string) {
	return article.FindText(tagPMID), article.FindText(tagTitle), article.FindText(tagLanguage)
}

// ExtractPublishDate joins the Year, Month and Day of the first PubDate
// with "-", leaving out absent parts. Values are used as found: "1" stays
// "1" and "13" is not rejected. Without a PubDate the result is "".
func ExtractPublishDate(article *Element) string {
	pub := article.Find(tagPubDate)
	if pub == nil {
		return ""
	}
	parts := make([]string, 0, len(datePartTags))
	for _, tag := range datePartTags {
		if v := pub.ChildText(tag); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "-")
}

// ExtractAuthorsAndEmails returns every author in document order together
// with the set of addresses found in their affiliations. An author without
// an address is still listed.
func ExtractAuthorsAndEmails(article *Element) (types.EmailSet, []types.Person) {
	emails := types.EmailSet{}
	people := []types.Person{}

	for _, author := range article.FindAll(tagAuthor) {
		affiliation := author.FindText(tagAffiliation)
		email, _ := ExtractEmail(affiliation)
		emails.Add(email)

		people = append(people, types.Person{
			LastName:    author.ChildText(tagLastName),
			FirstName:   author.ChildText(tagForeName),
			Initials:    author.ChildText(tagInitials),
			Affiliation: affiliation,
			Email:       email,
		})
	}
	return emails, people
}

// emailPattern matches local@domain.tld where local and domain are runs of
// word characters, dots and hyphens and tld is a run of word characters.
var emailPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_.-]+@[\p{L}\p{M}\p{N}_.-]+\.[\p{L}\p{M}\p{N}_]+`)

// addressChars are characters valid in an address local part but outside
// emailPattern. A candidate directly preceded by one is a fragment of an
// address the pattern cannot represent and is skipped.
const addressChars = "+!#$%&*=?^`|~"

// ExtractEmail returns the first email-shaped substring of text, scanning
// left to right. Matching is deliberately loose: no validation beyond the
// pattern, and addresses using characters outside it (such as "+") are not
// matched at all.
func ExtractEmail(text string) (string, bool) {
	for _, loc := range emailPattern.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && strings.IndexByte(addressChars, text[loc[0]-1]) >= 0 {
			continue
		}
		return text[loc[0]:loc[1]], true
	}
	return "", false
}

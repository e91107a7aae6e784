// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package result

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-search/pkg/types"
)

func testDescriptor() Descriptor {
	return Descriptor{Database: "pubmed", Operation: types.TaskFetch, QueryID: "fetch-1"}
}

func TestNewIsEmpty(t *testing.T) {
	r := New(testDescriptor())
	assert.True(t, r.IsEmpty())
	assert.Equal(t, 0, r.Size())
	assert.Empty(t, r.Articles())
}

func TestAddIncrementsSize(t *testing.T) {
	r := New(testDescriptor())
	for i := 1; i <= 3; i++ {
		before := r.Size()
		// Duplicates are appended, not merged.
		r.Add(types.NewArticle("1", "Same", "eng", "2023", nil, nil))
		assert.Equal(t, before+1, r.Size())
		assert.Equal(t, r.Size() == 0, r.IsEmpty())
	}
	assert.False(t, r.IsEmpty())
}

func TestArticlesKeepArrivalOrder(t *testing.T) {
	r := New(testDescriptor())
	r.Add(types.NewArticle("3", "C", "", "", nil, nil))
	r.Add(types.NewArticle("1", "A", "", "", nil, nil))
	r.Add(types.NewArticle("2", "B", "", "", nil, nil))

	got := r.Articles()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"3", "1", "2"}, []string{got[0].PMID, got[1].PMID, got[2].PMID})

	// Mutating the returned slice must not affect the Result.
	got[0].PMID = "changed"
	assert.Equal(t, "3", r.Articles()[0].PMID)
}

func TestEmailsUnion(t *testing.T) {
	r := New(testDescriptor())
	r.Add(types.NewArticle("1", "", "", "", types.NewEmailSet("same@example.com", "a@example.com"), nil))
	r.Add(types.NewArticle("2", "", "", "", types.NewEmailSet("same@example.com", "b@example.com"), nil))
	r.Add(types.NewArticle("3", "", "", "", nil, nil))

	assert.Equal(t,
		[]string{"a@example.com", "b@example.com", "same@example.com"},
		r.Emails().Sorted())
}

func TestDescribe(t *testing.T) {
	r := New(testDescriptor())
	r.Add(types.NewArticle("123", "Sample Title", "eng", "2023-01-02", nil, nil))

	d := r.Describe()
	assert.Equal(t, "pubmed", d.Database)
	assert.Equal(t, types.TaskFetch, d.Operation)
	assert.Equal(t, types.Handle("fetch-1"), d.QueryID)
	require.Len(t, d.Articles, 1)
	assert.Equal(t, "Sample Title", d.Articles[0].Title)
}

func TestWriteYAML(t *testing.T) {
	r := New(testDescriptor())
	r.Add(types.NewArticle("123", "Sample Title", "eng", "2023-01-02",
		types.NewEmailSet("test@example.com"),
		[]types.Person{{LastName: "Doe", FirstName: "John", Email: "test@example.com"}}))

	var buf bytes.Buffer
	require.NoError(t, r.WriteYAML(&buf))

	out := buf.String()
	assert.Contains(t, out, "db: pubmed")
	assert.Contains(t, out, "eutil: efetch")
	assert.Contains(t, out, "query_id: fetch-1")
	assert.Contains(t, out, "title: Sample Title")
	assert.Contains(t, out, "- test@example.com")
}

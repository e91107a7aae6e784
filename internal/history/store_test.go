// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-search/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.HistoryConfig{
		Path:       filepath.Join(t.TempDir(), "nested", "history.db"),
		MaxResults: 3,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, q := range []string{"cancer", "CRISPR screening", "heart failure"} {
		e, err := s.Record(ctx, Entry{
			Query:      q,
			Mode:       types.ModeOverview,
			Sort:       types.SortRelevance,
			MaxResults: 10,
			Matched:    100 + i,
			Articles:   10,
			Emails:     i,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		assert.NotZero(t, e.ID)
	}

	got, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "heart failure", got[0].Query, "most recent first")
	assert.Equal(t, "cancer", got[2].Query)
	assert.Equal(t, 102, got[0].Matched)
	assert.Equal(t, types.ModeOverview, got[0].Mode)
	assert.Equal(t, types.SortRelevance, got[0].Sort)
	assert.True(t, base.Add(2*time.Second).Equal(got[0].CreatedAt))
}

func TestListLimitAndFilter(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, q := range []string{"a", "b", "c", "d", "50%_off", "Cancer cells"} {
		_, err := s.Record(ctx, Entry{Query: q, Mode: types.ModeEmails, Sort: types.SortAuthor, MaxResults: 5})
		require.NoError(t, err)
	}

	got, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 3, "configured default limit")

	got, err = s.List(ctx, ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, got, 6)

	got, err = s.List(ctx, ListOptions{Contains: "cancer"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Cancer cells", got[0].Query)

	got, err = s.List(ctx, ListOptions{Contains: "%_"})
	require.NoError(t, err)
	require.Len(t, got, 1, "wildcards are literal")
	assert.Equal(t, "50%_off", got[0].Query)
}

func TestRecordDefaultsTimestamp(t *testing.T) {
	s := testStore(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	s.now = func() time.Time { return fixed }

	e, err := s.Record(context.Background(), Entry{Query: "x", Mode: types.ModeOverview, Sort: types.SortPubDate, MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, fixed, e.CreatedAt)
}

func TestRecordRejectsEmptyQuery(t *testing.T) {
	s := testStore(t)
	_, err := s.Record(context.Background(), Entry{Query: "  "})
	assert.Error(t, err)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	cfg := types.HistoryConfig{Path: path}

	s, err := NewStore(cfg)
	require.NoError(t, err)
	_, err = s.Record(context.Background(), Entry{Query: "persisted", Mode: types.ModeOverview, Sort: types.SortRelevance, MaxResults: 1, RequestID: "req-1"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(cfg)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persisted", got[0].Query)
	assert.Equal(t, "req-1", got[0].RequestID)
}

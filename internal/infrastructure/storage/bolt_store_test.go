package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogCrawler/internal/domain"
)

func openTestBolt(t *testing.T) *BoltStore {
	t.Helper()
	store, err := OpenBolt(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func record(id, blog string, skills ...string) domain.ArticleRecord {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.ArticleRecord{
		ID:          id,
		Title:       "title " + id,
		LinkURL:     "https://example.com/" + id,
		PublishDate: now,
		BlogID:      blog,
		BlogName:    blog,
		IsValid:     len(skills) > 0,
		SkillIDs:    skills,
		JobGroupIDs: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestBoltCommitAndRead(t *testing.T) {
	t.Parallel()

	store := openTestBolt(t)
	ctx := context.Background()

	rec := record("a1", "daangn", "go", "kafka")
	rec.JobGroupIDs = []string{"server-developer"}
	ops := domain.ArticleOps(rec, domain.ContentBody{ArticleID: "a1", Text: "plain body"})
	require.NoError(t, store.Commit(ctx, ops))

	exists, err := store.Exists(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, exists)

	got, found, err := store.Article("a1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, []string{"go", "kafka"}, got.SkillIDs)
	assert.Nil(t, got.ThumbnailURL)

	body, found, err := store.Content("a1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "plain body", body.Text)

	count, err := store.SkillCount("go")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, err = store.JobGroupCount("server-developer")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestBoltArticlesAreAppendOnly(t *testing.T) {
	t.Parallel()

	store := openTestBolt(t)
	ctx := context.Background()

	first := record("a1", "daangn")
	require.NoError(t, store.Commit(ctx, domain.ArticleOps(first, domain.ContentBody{ArticleID: "a1", Text: "v1"})))

	second := first
	second.Title = "rewritten"
	require.NoError(t, store.Commit(ctx, domain.ArticleOps(second, domain.ContentBody{ArticleID: "a1", Text: "v2"})))

	got, _, err := store.Article("a1")
	require.NoError(t, err)
	assert.Equal(t, first.Title, got.Title)

	body, _, err := store.Content("a1")
	require.NoError(t, err)
	assert.Equal(t, "v1", body.Text)
}

func TestBoltCommitIsAtomic(t *testing.T) {
	t.Parallel()

	store := openTestBolt(t)
	ctx := context.Background()

	ops := domain.ArticleOps(record("a1", "daangn", "go"), domain.ContentBody{ArticleID: "a1", Text: "body"})
	ops = append(ops, domain.WriteOp{Kind: "bogus"})

	require.Error(t, store.Commit(ctx, ops))

	exists, err := store.Exists(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := store.SkillCount("go")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBoltDeleteSourceInBatches(t *testing.T) {
	t.Parallel()

	store := openTestBolt(t)
	ctx := context.Background()

	var ops []domain.WriteOp
	for i := 0; i < 7; i++ {
		id := fmt.Sprintf("d%d", i)
		ops = append(ops, domain.ArticleOps(record(id, "daangn", "go"), domain.ContentBody{ArticleID: id, Text: "x"})...)
	}
	ops = append(ops, domain.ArticleOps(record("k1", "kakao"), domain.ContentBody{ArticleID: "k1", Text: "y"})...)
	require.NoError(t, store.Commit(ctx, ops))

	deleted, err := store.DeleteSource(ctx, "daangn", 3)
	require.NoError(t, err)
	assert.Equal(t, 7, deleted)

	exists, err := store.Exists(ctx, "d3")
	require.NoError(t, err)
	assert.False(t, exists)
	_, found, err := store.Content("d3")
	require.NoError(t, err)
	assert.False(t, found)

	exists, err = store.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := store.SkillCount("go")
	require.NoError(t, err)
	assert.EqualValues(t, 7, count, "deletion leaves counters alone")
}

func TestBoltCommitAssignsTimestamps(t *testing.T) {
	t.Parallel()

	store := openTestBolt(t)
	committedAt := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	store.now = func() time.Time { return committedAt }

	rec := record("t1", "kakao")
	rec.CreatedAt, rec.UpdatedAt = time.Time{}, time.Time{}
	require.NoError(t, store.Commit(context.Background(), domain.ArticleOps(rec, domain.ContentBody{ArticleID: "t1", Text: "x"})))

	got, found, err := store.Article("t1")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.CreatedAt.Equal(committedAt))
	assert.True(t, got.UpdatedAt.Equal(committedAt))
	assert.True(t, rec.CreatedAt.IsZero(), "the caller's record must not be mutated")
}

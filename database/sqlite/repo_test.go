package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/mediagate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(key string, size int64) mediagate.ObjectEntry {
	return mediagate.ObjectEntry{Key: key, Size: size, ETag: fmt.Sprintf("etag-%s", key), ContentType: "image/png"}
}

func TestRepo_UpsertAndGet(t *testing.T) {
	repo := setupTestDB(t).GetRepo()
	ctx := context.Background()

	created, inserted, err := repo.Upsert(ctx, entry("avatar.png", 10))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "avatar.png", created.Key)
	assert.Equal(t, int64(10), created.FileSizeBytes)

	got, err := repo.Get(ctx, "avatar.png")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "image/png", got.ContentType)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}

func TestRepo_UpsertOverwriteKeepsIdentity(t *testing.T) {
	repo := setupTestDB(t).GetRepo()
	ctx := context.Background()

	first, _, err := repo.Upsert(ctx, entry("avatar.png", 10))
	require.NoError(t, err)

	updated := entry("avatar.png", 20)
	updated.ETag = "new"
	second, inserted, err := repo.Upsert(ctx, updated)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.Equal(t, int64(20), second.FileSizeBytes)
	assert.Equal(t, "new", second.Etag)
}

func TestRepo_GetNotFound(t *testing.T) {
	repo := setupTestDB(t).GetRepo()

	_, err := repo.Get(context.Background(), "missing.png")
	assert.ErrorIs(t, err, mediagate.ErrNotFound)
}

func TestRepo_SoftDeleteAndRevive(t *testing.T) {
	repo := setupTestDB(t).GetRepo()
	ctx := context.Background()

	_, _, err := repo.Upsert(ctx, entry("a.png", 1))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "a.png"))
	_, err = repo.Get(ctx, "a.png")
	assert.ErrorIs(t, err, mediagate.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "a.png"), mediagate.ErrNotFound, "second delete")

	pending, err := repo.ListPendingCleanup(ctx, mediagate.ListQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)

	_, inserted, err := repo.Upsert(ctx, entry("a.png", 2))
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := repo.Get(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.FileSizeBytes)

	pending, err = repo.ListPendingCleanup(ctx, mediagate.ListQuery{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, pending.Items)
}

func TestRepo_MarkCleanedUp(t *testing.T) {
	repo := setupTestDB(t).GetRepo()
	ctx := context.Background()

	m, _, err := repo.Upsert(ctx, entry("a.png", 1))
	require.NoError(t, err)

	assert.ErrorIs(t, repo.MarkCleanedUp(ctx, m.ID), mediagate.ErrNotFound, "live rows are not pending")

	require.NoError(t, repo.Delete(ctx, "a.png"))
	require.NoError(t, repo.MarkCleanedUp(ctx, m.ID))

	pending, err := repo.ListPendingCleanup(ctx, mediagate.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, pending.Items)

	assert.ErrorIs(t, repo.MarkCleanedUp(ctx, m.ID), mediagate.ErrNotFound)
}

func TestRepo_ListPagination(t *testing.T) {
	repo := setupTestDB(t).GetRepo()
	ctx := context.Background()

	for i := range 5 {
		_, _, err := repo.Upsert(ctx, entry(fmt.Sprintf("frames/%02d.png", i), int64(i)))
		require.NoError(t, err)
	}
	_, _, err := repo.Upsert(ctx, entry("other/x.png", 1))
	require.NoError(t, err)

	var keys []string
	cursor := ""
	pages := 0
	for {
		page, err := repo.List(ctx, mediagate.ListQuery{KeyPrefix: "frames/", Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		pages++
		for _, item := range page.Items {
			keys = append(keys, item.Key)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.ElementsMatch(t, []string{"frames/00.png", "frames/01.png", "frames/02.png", "frames/03.png", "frames/04.png"}, keys)
}

func TestRepo_ListPrefixIsLiteral(t *testing.T) {
	repo := setupTestDB(t).GetRepo()
	ctx := context.Background()

	_, _, err := repo.Upsert(ctx, entry("raw_frames/a.png", 1))
	require.NoError(t, err)
	_, _, err = repo.Upsert(ctx, entry("rawXframes/b.png", 1))
	require.NoError(t, err)

	page, err := repo.List(ctx, mediagate.ListQuery{KeyPrefix: "raw_"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "raw_frames/a.png", page.Items[0].Key)
}

func TestRepo_ListInvalidCursor(t *testing.T) {
	repo := setupTestDB(t).GetRepo()

	_, err := repo.List(context.Background(), mediagate.ListQuery{Cursor: "%%%"})
	assert.ErrorIs(t, err, mediagate.ErrInvalidInput)
}

package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/conduit-api/internal/mocks"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomic_RunsDirectlyWithoutRunner(t *testing.T) {
	repos, _ := mocks.NewRepositories()

	var got *repository.Repositories
	err := repos.Atomic(context.Background(), func(tx *repository.Repositories) error {
		got = tx
		return nil
	})

	require.NoError(t, err)
	assert.Same(t, repos, got)
}

func TestAtomic_UsesRunner(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	calls := 0
	sentinel := errors.New("rolled back")

	wrapped := repos.WithAtomic(func(ctx context.Context, fn func(*repository.Repositories) error) error {
		calls++
		if err := fn(repos); err != nil {
			return sentinel
		}
		return nil
	})

	err := wrapped.Atomic(context.Background(), func(*repository.Repositories) error {
		return errors.New("boom")
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)

	// repos itself keeps running fn directly.
	require.NoError(t, repos.Atomic(context.Background(), func(*repository.Repositories) error { return nil }))
	assert.Equal(t, 1, calls)
}

func TestMockUserRepository_Uniqueness(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	ctx := context.Background()

	require.NoError(t, repos.User.Create(ctx, &models.User{ID: "u1", Username: "jake", Email: "jake@example.com"}))

	err := repos.User.Create(ctx, &models.User{ID: "u2", Username: "jake", Email: "other@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	exists, err := repos.User.EmailExists(ctx, "jake@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	users, err := repos.User.GetByIDs(ctx, []string{"u1", "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestMockArticleRepository_ListOrderAndPaging(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, slug := range []string{"a", "b", "c", "d"} {
		require.NoError(t, repos.Article.Create(ctx, &models.Article{
			ID:        slug,
			Slug:      slug,
			AuthorID:  "u1",
			TagList:   []string{"t" + slug},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := repos.Article.List(ctx, models.ArticleQuery{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].Slug)
	assert.Equal(t, "b", page[1].Slug)

	count, err := repos.Article.CountMatching(ctx, models.ArticleQuery{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	byTag, err := repos.Article.List(ctx, models.ArticleQuery{TagPattern: "^t[ab]$"})
	require.NoError(t, err)
	assert.Len(t, byTag, 2)

	err = repos.Article.Create(ctx, &models.Article{ID: "e", Slug: "a"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestMockRelations_AddRemoveReportChanges(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	ctx := context.Background()

	added, err := repos.Favorite.Add(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repos.Favorite.Add(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.False(t, added)

	set, err := repos.Favorite.FavoritedSet(ctx, "u1", []string{"a1", "a2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a1": true}, set)

	removed, err := repos.Favorite.Remove(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repos.Follow.Remove(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMockTagRepository_CreateIfAbsent(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	ctx := context.Background()

	created, err := repos.Tag.CreateIfAbsent(ctx, &models.Tag{ID: "t1", Tag: "go"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repos.Tag.CreateIfAbsent(ctx, &models.Tag{ID: "t2", Tag: "go"})
	require.NoError(t, err)
	assert.False(t, created)

	tag, err := repos.Tag.GetByText(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, "t1", tag.ID)
}

func TestSnapshot_RunsDirectlyWithoutRunner(t *testing.T) {
	repos, _ := mocks.NewRepositories()

	var got *repository.Repositories
	require.NoError(t, repos.Snapshot(context.Background(), func(tx *repository.Repositories) error {
		got = tx
		return nil
	}))
	assert.Same(t, repos, got)

	runs := 0
	wrapped := repos.WithSnapshot(func(ctx context.Context, fn func(*repository.Repositories) error) error {
		runs++
		return fn(repos)
	})
	require.NoError(t, wrapped.Snapshot(context.Background(), func(*repository.Repositories) error { return nil }))
	require.NoError(t, wrapped.Atomic(context.Background(), func(*repository.Repositories) error { return nil }))
	assert.Equal(t, 1, runs)
}

func TestMockArticleRepository_EqualTimestampsBreakTiesByID(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	ctx := context.Background()
	same := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"b", "d", "a", "c", "e"} {
		require.NoError(t, repos.Article.Create(ctx, &models.Article{
			ID: id, Slug: "slug-" + id, AuthorID: "u1", CreatedAt: same,
		}))
	}

	var got []string
	for offset := 0; offset < 5; offset += 2 {
		page, err := repos.Article.List(ctx, models.ArticleQuery{Limit: 2, Offset: offset})
		require.NoError(t, err)
		for _, a := range page {
			got = append(got, a.ID)
		}
	}
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, got)
}

func TestMockUserRepository_LockByID(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	ctx := context.Background()
	require.NoError(t, repos.User.Create(ctx, &models.User{ID: "u1", Username: "jake", Email: "jake@example.com"}))

	found, err := repos.User.LockByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repos.User.LockByID(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMockArticleRepository_CheckPattern(t *testing.T) {
	repos, _ := mocks.NewRepositories()
	ctx := context.Background()

	assert.NoError(t, repos.Article.CheckPattern(ctx, "^dra"))
	assert.ErrorIs(t, repos.Article.CheckPattern(ctx, "(["), repository.ErrInvalidPattern)
}

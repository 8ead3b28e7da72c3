package repository

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"fileshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_AppendAssignsIDsAndTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))
	repo := newMemoryPostRepository(func() time.Time { return now })
	ctx := context.Background()

	first, err := repo.Append(ctx, &models.Post{User: "DemoUser", Text: "hello"})
	require.NoError(t, err)
	second, err := repo.Append(ctx, &models.Post{User: "DemoUser", Text: "again"})
	require.NoError(t, err)

	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, uint(2), second.ID)
	assert.Equal(t, time.UTC, first.Timestamp.Location())
	assert.True(t, first.Timestamp.Equal(now))
	assert.NotNil(t, first.Media, "media is always an array")
	assert.Equal(t, 2, repo.Count(ctx))
}

func TestPostRepository_AppendNil(t *testing.T) {
	repo := NewPostRepository()
	_, err := repo.Append(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilPost)
	assert.Equal(t, 0, repo.Count(context.Background()))
}

func TestPostRepository_ListAllNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stamps := []time.Time{base, base.Add(time.Minute), base.Add(time.Minute), base.Add(2 * time.Minute)}
	i := 0
	repo := newMemoryPostRepository(func() time.Time {
		ts := stamps[i]
		i++
		return ts
	})
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c", "d"} {
		_, err := repo.Append(ctx, &models.Post{Text: text})
		require.NoError(t, err)
	}

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)

	texts := make([]string, len(posts))
	for i, p := range posts {
		texts[i] = p.Text
	}
	// b and c share a timestamp and keep their insertion order
	assert.Equal(t, []string{"d", "b", "c", "a"}, texts)
}

func TestPostRepository_ListAllReturnsCopies(t *testing.T) {
	repo := NewPostRepository()
	ctx := context.Background()
	_, err := repo.Append(ctx, &models.Post{
		Text:  "with media",
		Media: []models.MediaItem{{URL: "/uploads/a.png", Name: "a.png", Type: ".png"}},
	})
	require.NoError(t, err)

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	posts[0].Text = "mutated"
	posts[0].Media[0].Name = "mutated.png"

	again, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "with media", again[0].Text)
	assert.Equal(t, "a.png", again[0].Media[0].Name)
}

func TestPostRepository_ConcurrentAppend(t *testing.T) {
	repo := NewPostRepository()
	ctx := context.Background()
	const writers = 64

	var wg sync.WaitGroup
	ids := make(chan uint, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := repo.Append(ctx, &models.Post{Text: "concurrent"})
			if err == nil {
				ids <- p.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	got := make([]int, 0, writers)
	for id := range ids {
		got = append(got, int(id))
	}
	sort.Ints(got)

	expected := make([]int, writers)
	for i := range expected {
		expected[i] = i + 1
	}
	assert.Equal(t, expected, got)
	assert.Equal(t, writers, repo.Count(ctx))
}

func TestPostRepository_CancelledContext(t *testing.T) {
	repo := NewPostRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Append(ctx, &models.Post{Text: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = repo.ListAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

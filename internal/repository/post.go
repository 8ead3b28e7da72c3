// Package repository provides the in-process stores behind the API.
package repository

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"fileshare/internal/models"
	"fileshare/internal/observability"
)

// ErrNilPost is returned when Append is called without a post.
var ErrNilPost = errors.New("post is nil")

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Append(ctx context.Context, post *models.Post) (*models.Post, error)
	ListAll(ctx context.Context) ([]models.Post, error)
	Count(ctx context.Context) int
}

// memoryPostRepository keeps posts for the lifetime of the process.
type memoryPostRepository struct {
	mu     sync.RWMutex
	posts  []models.Post
	nextID uint
	now    func() time.Time
	logger *observability.RepoLogger
}

// NewPostRepository creates an empty in-memory post repository
func NewPostRepository() PostRepository {
	return newMemoryPostRepository(time.Now)
}

func newMemoryPostRepository(now func() time.Time) *memoryPostRepository {
	return &memoryPostRepository{
		nextID: 1,
		now:    now,
		logger: observability.NewRepoLogger("posts"),
	}
}

// Append assigns the next ID and the creation timestamp, then stores a copy of
// the post. Both happen under the write lock so concurrent appends never share an ID.
func (r *memoryPostRepository) Append(ctx context.Context, post *models.Post) (*models.Post, error) {
	if post == nil {
		r.logger.LogError(ctx, ErrNilPost, "append")
		return nil, ErrNilPost
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := post.Clone()
	if stored.Media == nil {
		stored.Media = []models.MediaItem{}
	}

	r.mu.Lock()
	stored.ID = r.nextID
	r.nextID++
	stored.Timestamp = r.now().UTC()
	r.posts = append(r.posts, stored)
	r.mu.Unlock()

	r.logger.LogCreate(ctx, map[string]interface{}{
		"post_id":     stored.ID,
		"media_count": len(stored.Media),
	})

	out := stored.Clone()
	return &out, nil
}

// ListAll returns every post, newest first. Posts sharing a timestamp keep insertion order.
func (r *memoryPostRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]models.Post, len(r.posts))
	for i, p := range r.posts {
		out[i] = p.Clone()
	}
	r.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b models.Post) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	r.logger.LogRead(ctx, map[string]interface{}{"count": len(out)})
	return out, nil
}

func (r *memoryPostRepository) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts)
}

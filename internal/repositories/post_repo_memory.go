package repositories

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"mernlog/internal/models"
	"mernlog/pkg/idx"
)

// MemoryPostRepository is an in-memory implementation of PostRepository.
type MemoryPostRepository struct {
	posts map[string]models.Post
	mu    sync.RWMutex
}

// NewMemoryPostRepository creates a new instance of MemoryPostRepository.
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{
		posts: make(map[string]models.Post),
	}
}

func clonePost(p models.Post) models.Post {
	p.Likes = slices.Clone(p.Likes)
	if p.Likes == nil {
		p.Likes = []string{}
	}
	return p
}

// sorted returns copies of the posts matching keep, newest first.
func (r *MemoryPostRepository) sorted(keep func(models.Post) bool) []models.Post {
	out := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if keep == nil || keep(p) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Count returns the number of stored posts.
func (r *MemoryPostRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.posts)), nil
}

// List returns one page of posts, newest first.
func (r *MemoryPostRepository) List(_ context.Context, skip, limit int) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sorted(nil)
	if skip < 0 || skip >= len(all) {
		return []models.Post{}, nil
	}
	end := min(skip+limit, len(all))
	return all[skip:end], nil
}

// ListByAuthor returns every post written by author.
func (r *MemoryPostRepository) ListByAuthor(_ context.Context, author string) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(p models.Post) bool { return p.Author == author }), nil
}

// ListLikedBy returns every post whose like set contains userID.
func (r *MemoryPostRepository) ListLikedBy(_ context.Context, userID string) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(p models.Post) bool { return slices.Contains(p.Likes, userID) }), nil
}

// GetByID returns a post by its ID.
func (r *MemoryPostRepository) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	post = clonePost(post)
	return &post, nil
}

// Create adds a new post.
func (r *MemoryPostRepository) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if post.ID == "" {
		post.ID = idx.NewAt(now)
	}
	if _, ok := r.posts[post.ID]; ok {
		return fmt.Errorf("post %s: %w", post.ID, ErrDuplicate)
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = post.CreatedAt
	if post.Likes == nil {
		post.Likes = []string{}
	}
	r.posts[post.ID] = clonePost(*post)
	return nil
}

// Update modifies the editable fields of an existing post.
func (r *MemoryPostRepository) Update(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.posts[post.ID]
	if !ok {
		return fmt.Errorf("post %s: %w", post.ID, ErrNotFound)
	}
	stored.Title = post.Title
	stored.Summary = post.Summary
	stored.Content = post.Content
	stored.Cover = post.Cover
	stored.UpdatedAt = time.Now()
	r.posts[post.ID] = stored

	*post = clonePost(stored)
	return nil
}

// Delete removes a post by its ID.
func (r *MemoryPostRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	delete(r.posts, id)
	return nil
}

// ToggleLike flips userID's membership in the post's like set.
func (r *MemoryPostRepository) ToggleLike(_ context.Context, postID, userID string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[postID]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	likes := slices.Clone(post.Likes)
	if i := slices.Index(likes, userID); i >= 0 {
		likes = slices.Delete(likes, i, i+1)
	} else {
		likes = append(likes, userID)
	}
	post.Likes = likes
	r.posts[postID] = post

	out := clonePost(post)
	return &out, nil
}

package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mernlog/internal/models"
	"mernlog/pkg/idx"
)

// MemoryCommentRepository is an in-memory implementation of CommentRepository.
type MemoryCommentRepository struct {
	comments map[string]models.Comment
	mu       sync.RWMutex
}

// NewMemoryCommentRepository creates a new instance of MemoryCommentRepository.
func NewMemoryCommentRepository() *MemoryCommentRepository {
	return &MemoryCommentRepository{
		comments: make(map[string]models.Comment),
	}
}

func (r *MemoryCommentRepository) filter(keep func(models.Comment) bool, newestFirst bool) []models.Comment {
	out := make([]models.Comment, 0)
	for _, c := range r.comments {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Create adds a new comment.
func (r *MemoryCommentRepository) Create(_ context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if comment.ID == "" {
		comment.ID = idx.NewAt(now)
	}
	comment.CreatedAt = now
	comment.UpdatedAt = now
	r.comments[comment.ID] = *comment
	return nil
}

// GetByID returns a comment by its ID.
func (r *MemoryCommentRepository) GetByID(_ context.Context, id string) (*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comment, ok := r.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}
	return &comment, nil
}

// ListByPost returns the comments of a post, oldest first.
func (r *MemoryCommentRepository) ListByPost(_ context.Context, postID string) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(c models.Comment) bool { return c.PostID == postID }, false), nil
}

// ListByAuthor returns a user's comments, newest first.
func (r *MemoryCommentRepository) ListByAuthor(_ context.Context, author string) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(c models.Comment) bool { return c.Author == author }, true), nil
}

// CountByPosts counts comments for each of postIDs.
func (r *MemoryCommentRepository) CountByPosts(_ context.Context, postIDs []string) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = struct{}{}
	}
	counts := make(map[string]int64)
	for _, c := range r.comments {
		if _, ok := wanted[c.PostID]; ok {
			counts[c.PostID]++
		}
	}
	return counts, nil
}

// UpdateContent replaces a comment's content.
func (r *MemoryCommentRepository) UpdateContent(_ context.Context, id, content string) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	comment, ok := r.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}
	comment.Content = content
	comment.UpdatedAt = time.Now()
	r.comments[id] = comment
	return &comment, nil
}

// Delete removes a comment by its ID.
func (r *MemoryCommentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[id]; !ok {
		return fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}
	delete(r.comments, id)
	return nil
}

// DeleteByPost removes every comment attached to postID.
func (r *MemoryCommentRepository) DeleteByPost(_ context.Context, postID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, c := range r.comments {
		if c.PostID == postID {
			delete(r.comments, id)
			n++
		}
	}
	return n, nil
}

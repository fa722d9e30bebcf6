package repositories

import (
	"context"

	"mernlog/internal/models"
)

// PostRepository defines the interface for post data access.
//
// List methods order posts by creation time, newest first, breaking ties by
// id so that offset pagination is stable across calls.
type PostRepository interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, skip, limit int) ([]models.Post, error)
	ListByAuthor(ctx context.Context, author string) ([]models.Post, error)
	ListLikedBy(ctx context.Context, userID string) ([]models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	// Update persists title, summary, content and cover. Author and likes
	// are left untouched.
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	// ToggleLike atomically adds userID to the like set when absent and
	// removes it when present, returning the post as persisted afterwards.
	ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error)
}

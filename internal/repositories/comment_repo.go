package repositories

import (
	"context"

	"mernlog/internal/models"
)

// CommentRepository defines the interface for comment data access.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	// ListByPost returns the comments of a post, oldest first.
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
	// ListByAuthor returns a user's comments, newest first.
	ListByAuthor(ctx context.Context, author string) ([]models.Comment, error)
	// CountByPosts returns the number of comments per post id. Posts without
	// comments are absent from the map.
	CountByPosts(ctx context.Context, postIDs []string) (map[string]int64, error)
	UpdateContent(ctx context.Context, id, content string) (*models.Comment, error)
	Delete(ctx context.Context, id string) error
	DeleteByPost(ctx context.Context, postID string) (int64, error)
}

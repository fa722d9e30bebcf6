package services

import (
	"context"
	"fmt"
	"strings"

	"mernlog/internal/models"
	"mernlog/internal/repositories"
)

// CommentService handles business logic related to comments.
type CommentService struct {
	comments  repositories.CommentRepository
	posts     repositories.PostRepository
	sanitizer Sanitizer
	publisher EventPublisher
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments repositories.CommentRepository, posts repositories.PostRepository, sanitizer Sanitizer, publisher EventPublisher) *CommentService {
	return &CommentService{
		comments:  comments,
		posts:     posts,
		sanitizer: sanitizer,
		publisher: publisher,
	}
}

func (s *CommentService) clean(content string) string {
	content = strings.TrimSpace(content)
	if s.sanitizer != nil {
		content = s.sanitizer.StripTags(content)
	}
	return content
}

// CreateComment attaches a comment to an existing post.
func (s *CommentService) CreateComment(ctx context.Context, postID, author, content string) (*models.Comment, error) {
	content = s.clean(content)
	if content == "" || author == "" || postID == "" {
		return nil, fmt.Errorf("%w: content, author and postId are required", ErrValidation)
	}
	postID, err := parseID("post", postID)
	if err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, translate(err)
	}

	comment := &models.Comment{Content: content, Author: author, PostID: postID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	publish(s.publisher, EventCommentCreated, map[string]string{"commentId": comment.ID, "postId": postID, "author": author})
	return comment, nil
}

// ListComments returns the comments of a post, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	postID, err := parseID("post", postID)
	if err != nil {
		return []models.Comment{}, nil
	}
	return s.comments.ListByPost(ctx, postID)
}

// ListByAuthor returns a user's comments, newest first.
func (s *CommentService) ListByAuthor(ctx context.Context, author string) ([]models.Comment, error) {
	return s.comments.ListByAuthor(ctx, author)
}

// UpdateComment edits a comment on behalf of callerID, who must be its author.
func (s *CommentService) UpdateComment(ctx context.Context, id, callerID, content string) (*models.Comment, error) {
	id, err := parseID("comment", id)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if comment.Author != callerID {
		return nil, fmt.Errorf("%w: only the author can edit comment %s", ErrForbidden, id)
	}
	content = s.clean(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	updated, err := s.comments.UpdateContent(ctx, id, content)
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

// DeleteComment removes a comment by id.
func (s *CommentService) DeleteComment(ctx context.Context, id string) error {
	id, err := parseID("comment", id)
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return translate(err)
	}
	publish(s.publisher, EventCommentDeleted, map[string]string{"commentId": id})
	return nil
}

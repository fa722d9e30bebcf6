package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"mernlog/internal/models"
	"mernlog/internal/repositories"
)

// Sanitizer cleans user-supplied text before it is stored.
type Sanitizer interface {
	// SanitizeHTML keeps safe rich-text markup.
	SanitizeHTML(s string) string
	// StripTags removes all markup.
	StripTags(s string) string
}

// Recorder receives counters about content activity.
type Recorder interface {
	PostCreated()
	LikeToggled(liked bool)
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title   string
	Summary string
	Content string
	Cover   string
}

// PostPage is one page of the post feed.
type PostPage struct {
	Posts   []models.PostView `json:"posts"`
	HasMore bool              `json:"hasMore"`
	Total   int64             `json:"total"`
}

// LikeResult is the like state of a post after a toggle.
type LikeResult struct {
	LikesCount int  `json:"likesCount"`
	IsLiked    bool `json:"isLiked"`
}

// PostService handles business logic related to posts and their likes.
type PostService struct {
	posts     repositories.PostRepository
	comments  repositories.CommentRepository
	sanitizer Sanitizer
	publisher EventPublisher
	recorder  Recorder
}

// NewPostService creates a new PostService. sanitizer, publisher and
// recorder may be nil.
func NewPostService(posts repositories.PostRepository, comments repositories.CommentRepository, sanitizer Sanitizer, publisher EventPublisher, recorder Recorder) *PostService {
	return &PostService{
		posts:     posts,
		comments:  comments,
		sanitizer: sanitizer,
		publisher: publisher,
		recorder:  recorder,
	}
}

// ListPosts returns one page of the feed, newest first, with comment counts
// and the caller's like state.
func (s *PostService) ListPosts(ctx context.Context, page, limit int, callerID string) (*PostPage, error) {
	page, limit = NormalizePage(page, limit)

	total, err := s.posts.Count(ctx)
	if err != nil {
		return nil, err
	}
	skip, ok := PageOffset(page, limit, total)
	if !ok {
		return &PostPage{Posts: []models.PostView{}, HasMore: false, Total: total}, nil
	}
	posts, err := s.posts.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, posts, callerID)
	if err != nil {
		return nil, err
	}
	return &PostPage{
		Posts:   views,
		HasMore: Paginate(total, int64(skip), int64(len(posts))),
		Total:   total,
	}, nil
}

// GetPostView returns a single post with its derived fields.
func (s *PostService) GetPostView(ctx context.Context, postID, callerID string) (*models.PostView, error) {
	postID, err := parseID("post", postID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, translate(err)
	}
	views, err := s.views(ctx, []models.Post{*post}, callerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListByAuthor returns every post written by author.
func (s *PostService) ListByAuthor(ctx context.Context, author, callerID string) ([]models.PostView, error) {
	posts, err := s.posts.ListByAuthor(ctx, author)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, posts, callerID)
}

// ListLikedBy returns every post liked by userID.
func (s *PostService) ListLikedBy(ctx context.Context, userID, callerID string) ([]models.PostView, error) {
	posts, err := s.posts.ListLikedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, posts, callerID)
}

// views derives PostViews, counting comments for all posts in one query.
func (s *PostService) views(ctx context.Context, posts []models.Post, callerID string) ([]models.PostView, error) {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	counts, err := s.comments.CountByPosts(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]models.PostView, len(posts))
	for i, p := range posts {
		views[i] = models.NewPostView(p, counts[p.ID], callerID)
	}
	return views, nil
}

func (s *PostService) clean(in PostInput) (PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Summary = strings.TrimSpace(in.Summary)
	if s.sanitizer != nil {
		in.Title = s.sanitizer.StripTags(in.Title)
		in.Summary = s.sanitizer.StripTags(in.Summary)
		in.Content = s.sanitizer.SanitizeHTML(in.Content)
	}
	var missing []string
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if in.Summary == "" {
		missing = append(missing, "summary")
	}
	if strings.TrimSpace(in.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return in, fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}
	return in, nil
}

// CreatePost stores a new post written by author.
func (s *PostService) CreatePost(ctx context.Context, author string, in PostInput) (*models.Post, error) {
	if author == "" {
		return nil, fmt.Errorf("%w: author is required", ErrUnauthorized)
	}
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:   in.Title,
		Summary: in.Summary,
		Content: in.Content,
		Cover:   in.Cover,
		Author:  author,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, translate(fmt.Errorf("failed to create post: %w", err))
	}

	if s.recorder != nil {
		s.recorder.PostCreated()
	}
	publish(s.publisher, EventPostCreated, map[string]string{"postId": post.ID, "author": author})
	return post, nil
}

// UpdatePost edits a post on behalf of callerID, who must be its author. The
// cover is replaced only when in.Cover is set.
func (s *PostService) UpdatePost(ctx context.Context, postID, callerID string, in PostInput) (*models.Post, error) {
	postID, err := parseID("post", postID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, translate(err)
	}
	if post.Author != callerID {
		return nil, fmt.Errorf("%w: only the author can edit post %s", ErrForbidden, postID)
	}
	in, err = s.clean(in)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Summary = in.Summary
	post.Content = in.Content
	if in.Cover != "" {
		post.Cover = in.Cover
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, translate(err)
	}

	publish(s.publisher, EventPostUpdated, map[string]string{"postId": post.ID, "author": post.Author})
	return post, nil
}

// DeletePost removes a post together with its comments.
func (s *PostService) DeletePost(ctx context.Context, postID string) error {
	postID, err := parseID("post", postID)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return translate(err)
	}
	n, err := s.comments.DeleteByPost(ctx, postID)
	if err != nil {
		log.Printf("Failed to delete comments of post %s: %v", postID, err)
	} else if n > 0 {
		log.Printf("Deleted %d comments of post %s", n, postID)
	}

	publish(s.publisher, EventPostDeleted, map[string]string{"postId": postID})
	return nil
}

// ToggleLike flips userID's like on a post and reports the persisted state.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (*LikeResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: login required to like a post", ErrUnauthorized)
	}
	postID, err := parseID("post", postID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, translate(err)
	}

	result := &LikeResult{LikesCount: len(post.Likes), IsLiked: post.LikedBy(userID)}
	if s.recorder != nil {
		s.recorder.LikeToggled(result.IsLiked)
	}
	subject := EventPostUnliked
	if result.IsLiked {
		subject = EventPostLiked
	}
	publish(s.publisher, subject, map[string]string{"postId": postID, "userId": userID})
	return result, nil
}

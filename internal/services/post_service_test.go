package services_test

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"mernlog/internal/models"
	"mernlog/internal/repositories"
	"mernlog/internal/services"
	"mernlog/pkg/idx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published subjects.
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(subject string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) Subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

// countingRecorder implements services.Recorder.
type countingRecorder struct {
	created, liked, unliked int
}

func (r *countingRecorder) PostCreated() { r.created++ }

func (r *countingRecorder) LikeToggled(liked bool) {
	if liked {
		r.liked++
	} else {
		r.unliked++
	}
}

type postFixture struct {
	posts     *repositories.MemoryPostRepository
	comments  *repositories.MemoryCommentRepository
	publisher *recordingPublisher
	recorder  *countingRecorder
	svc       *services.PostService
}

func newPostFixture() *postFixture {
	f := &postFixture{
		posts:     repositories.NewMemoryPostRepository(),
		comments:  repositories.NewMemoryCommentRepository(),
		publisher: &recordingPublisher{},
		recorder:  &countingRecorder{},
	}
	f.svc = services.NewPostService(f.posts, f.comments, nil, f.publisher, f.recorder)
	return f
}

// seed stores n posts by author with increasing creation times.
func (f *postFixture) seed(t *testing.T, n int, author string) []models.Post {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		p := models.Post{
			ID:        idx.NewAt(at),
			Title:     fmt.Sprintf("post %d", i),
			Summary:   "summary",
			Content:   "<p>content</p>",
			Author:    author,
			CreatedAt: at,
		}
		require.NoError(t, f.posts.Create(context.Background(), &p))
		out = append(out, p)
	}
	return out
}

func TestPostService_ListPostsPaging(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture()
	seeded := f.seed(t, 5, "alice")

	first, err := f.svc.ListPosts(ctx, 0, 3, "")
	require.NoError(t, err)
	require.Len(t, first.Posts, 3)
	assert.True(t, first.HasMore)
	assert.Equal(t, int64(5), first.Total)
	assert.Equal(t, seeded[4].ID, first.Posts[0].ID, "newest post comes first")

	second, err := f.svc.ListPosts(ctx, 1, 3, "")
	require.NoError(t, err)
	require.Len(t, second.Posts, 2)
	assert.False(t, second.HasMore)
	assert.Equal(t, seeded[0].ID, second.Posts[1].ID)

	past, err := f.svc.ListPosts(ctx, 5, 3, "")
	require.NoError(t, err)
	assert.Empty(t, past.Posts)
	assert.False(t, past.HasMore)
}

func TestPostService_ListPostsHugePage(t *testing.T) {
	f := newPostFixture()
	f.seed(t, 5, "alice")

	page, err := f.svc.ListPosts(context.Background(), math.MaxInt64/3+1, 3, "")
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.False(t, page.HasMore)
	assert.Equal(t, int64(5), page.Total)
}

func TestPostService_ListPostsDefaultsLimit(t *testing.T) {
	f := newPostFixture()
	f.seed(t, 4, "alice")

	page, err := f.svc.ListPosts(context.Background(), -1, 0, "")
	require.NoError(t, err)
	assert.Len(t, page.Posts, services.DefaultPageLimit)
	assert.True(t, page.HasMore)
}

func TestPostService_ViewFields(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture()
	post := f.seed(t, 1, "alice")[0]

	for i := 0; i < 2; i++ {
		require.NoError(t, f.comments.Create(ctx, &models.Comment{Content: "hi", Author: "bob", PostID: post.ID}))
	}
	_, err := f.svc.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)

	asBob, err := f.svc.GetPostView(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), asBob.CommentCount)
	assert.Equal(t, 1, asBob.LikesCount)
	assert.True(t, asBob.IsLiked)

	anonymous, err := f.svc.GetPostView(ctx, post.ID, "")
	require.NoError(t, err)
	assert.False(t, anonymous.IsLiked)
	assert.Equal(t, 1, anonymous.LikesCount)

	_, err = f.svc.GetPostView(ctx, "missing", "")
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = f.svc.GetPostView(ctx, idx.New(), "")
	assert.ErrorIs(t, err, services.ErrNotFound)

	lower, err := f.svc.GetPostView(ctx, strings.ToLower(post.ID), "")
	require.NoError(t, err)
	assert.Equal(t, post.ID, lower.ID)
}

func TestPostService_CreatePost(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture()

	post, err := f.svc.CreatePost(ctx, "alice", services.PostInput{
		Title:   "  Hello  ",
		Summary: "First",
		Content: "<p>body</p>",
		Cover:   "uploads/cover.png",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "alice", post.Author)
	assert.Equal(t, 1, f.recorder.created)
	assert.Contains(t, f.publisher.Subjects(), services.EventPostCreated)

	_, err = f.svc.CreatePost(ctx, "alice", services.PostInput{Title: "t", Summary: "", Content: ""})
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Contains(t, err.Error(), "summary, content")

	_, err = f.svc.CreatePost(ctx, "", services.PostInput{Title: "t", Summary: "s", Content: "c"})
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	count, err := f.posts.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPostService_UpdatePost(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture()
	post, err := f.svc.CreatePost(ctx, "alice", services.PostInput{
		Title: "Original", Summary: "s", Content: "c", Cover: "uploads/a.png",
	})
	require.NoError(t, err)

	t.Run("Non-author is rejected", func(t *testing.T) {
		_, err := f.svc.UpdatePost(ctx, post.ID, "mallory", services.PostInput{Title: "Hacked", Summary: "s", Content: "c"})
		assert.ErrorIs(t, err, services.ErrForbidden)

		stored, err := f.posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Original", stored.Title)
	})

	t.Run("Author keeps cover when none is given", func(t *testing.T) {
		updated, err := f.svc.UpdatePost(ctx, post.ID, "alice", services.PostInput{Title: "Edited", Summary: "s2", Content: "c2"})
		require.NoError(t, err)
		assert.Equal(t, "Edited", updated.Title)
		assert.Equal(t, "uploads/a.png", updated.Cover)

		stored, err := f.posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Edited", stored.Title)
		assert.Equal(t, "alice", stored.Author)
	})

	t.Run("Author replaces cover", func(t *testing.T) {
		updated, err := f.svc.UpdatePost(ctx, post.ID, "alice", services.PostInput{Title: "Edited", Summary: "s2", Content: "c2", Cover: "uploads/b.png"})
		require.NoError(t, err)
		assert.Equal(t, "uploads/b.png", updated.Cover)
	})

	t.Run("Missing post", func(t *testing.T) {
		_, err := f.svc.UpdatePost(ctx, "missing", "alice", services.PostInput{Title: "x", Summary: "s", Content: "c"})
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestPostService_DeletePost(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture()
	seeded := f.seed(t, 2, "alice")
	target := seeded[0]

	require.NoError(t, f.comments.Create(ctx, &models.Comment{Content: "a", Author: "bob", PostID: target.ID}))
	require.NoError(t, f.comments.Create(ctx, &models.Comment{Content: "b", Author: "bob", PostID: seeded[1].ID}))

	require.NoError(t, f.svc.DeletePost(ctx, target.ID))

	_, err := f.posts.GetByID(ctx, target.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	remaining, err := f.comments.ListByPost(ctx, target.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	others, err := f.comments.ListByPost(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.Len(t, others, 1)

	err = f.svc.DeletePost(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
	count, err := f.posts.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPostService_ToggleLike(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture()
	post := f.seed(t, 1, "alice")[0]

	res, err := f.svc.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, services.LikeResult{LikesCount: 1, IsLiked: true}, *res)

	res, err = f.svc.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, services.LikeResult{LikesCount: 0, IsLiked: false}, *res)

	assert.Equal(t, 1, f.recorder.liked)
	assert.Equal(t, 1, f.recorder.unliked)
	assert.Subset(t, f.publisher.Subjects(), []string{services.EventPostLiked, services.EventPostUnliked})

	_, err = f.svc.ToggleLike(ctx, post.ID, "")
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	_, err = f.svc.ToggleLike(ctx, "missing", "bob")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestPostService_ConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture()
	post := f.seed(t, 1, "alice")[0]

	// Each user toggles an even number of times, so no like survives.
	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		user := fmt.Sprintf("user-%d", u)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 4; i++ {
				_, err := f.svc.ToggleLike(ctx, post.ID, user)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	view, err := f.svc.GetPostView(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 0, view.LikesCount)
	assert.Empty(t, view.Likes)
}

func TestPostService_ListLikedByAndAuthor(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture()
	mine := f.seed(t, 2, "alice")
	f.seed(t, 1, "bob")

	_, err := f.svc.ToggleLike(ctx, mine[1].ID, "carol")
	require.NoError(t, err)

	byAlice, err := f.svc.ListByAuthor(ctx, "alice", "carol")
	require.NoError(t, err)
	require.Len(t, byAlice, 2)
	assert.Equal(t, mine[1].ID, byAlice[0].ID)
	assert.True(t, byAlice[0].IsLiked)
	assert.False(t, byAlice[1].IsLiked)

	liked, err := f.svc.ListLikedBy(ctx, "carol", "")
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, mine[1].ID, liked[0].ID)
}

package repositories

import (
	"context"
	"errors"
	"fmt"

	"mernlog/internal/models"
	"mernlog/pkg/idx"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMPostRepository is a GORM implementation of PostRepository. Like sets
// live in the post_likes table and are attached to posts on read.
type GORMPostRepository struct {
	db *gorm.DB
}

// NewGORMPostRepository creates a new instance of GORMPostRepository.
func NewGORMPostRepository(db *gorm.DB) *GORMPostRepository {
	return &GORMPostRepository{
		db: db,
	}
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

// attachLikes loads the like sets of posts in like order.
func (r *GORMPostRepository) attachLikes(db *gorm.DB, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		posts[i].Likes = []string{}
	}

	var likes []models.PostLike
	if err := db.Where("post_id IN ?", ids).Order("created_at ASC").Order("user_id ASC").Find(&likes).Error; err != nil {
		return fmt.Errorf("failed to load likes: %w", err)
	}
	byPost := make(map[string][]string, len(posts))
	for _, l := range likes {
		byPost[l.PostID] = append(byPost[l.PostID], l.UserID)
	}
	for i := range posts {
		if l, ok := byPost[posts[i].ID]; ok {
			posts[i].Likes = l
		}
	}
	return nil
}

func (r *GORMPostRepository) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]models.Post, error) {
	db := r.db.WithContext(ctx)
	var posts []models.Post
	if err := scope(newestFirst(db)).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if err := r.attachLikes(db, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Count returns the number of posts.
func (r *GORMPostRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return total, nil
}

// List retrieves one page of posts, newest first.
func (r *GORMPostRepository) List(ctx context.Context, skip, limit int) ([]models.Post, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Offset(skip).Limit(limit)
	})
}

// ListByAuthor retrieves all posts by author.
func (r *GORMPostRepository) ListByAuthor(ctx context.Context, author string) ([]models.Post, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("author = ?", author)
	})
}

// ListLikedBy retrieves all posts liked by userID.
func (r *GORMPostRepository) ListLikedBy(ctx context.Context, userID string) ([]models.Post, error) {
	liked := r.db.Model(&models.PostLike{}).Select("post_id").Where("user_id = ?", userID)
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN (?)", liked)
	})
}

// GetByID retrieves a single post with its like set.
func (r *GORMPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	db := r.db.WithContext(ctx)
	var post models.Post
	if err := db.First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post by ID %s: %w", id, err)
	}
	posts := []models.Post{post}
	if err := r.attachLikes(db, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// Create inserts a new post. Its like set starts empty.
func (r *GORMPostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = idx.New()
	}
	post.Likes = []string{}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("post %s: %w", post.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// Update writes the editable columns and reloads the post.
func (r *GORMPostRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]any{
		"title":      post.Title,
		"summary":    post.Summary,
		"content":    post.Content,
		"cover":      post.Cover,
		"updated_at": r.db.NowFunc(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post %s: %w", post.ID, ErrNotFound)
	}
	updated, err := r.GetByID(ctx, post.ID)
	if err != nil {
		return err
	}
	*post = *updated
	return nil
}

// Delete removes a post and its like set.
func (r *GORMPostRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Post{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		if err := tx.Delete(&models.PostLike{}, "post_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete likes of post %s: %w", id, err)
		}
		return nil
	})
}

// ToggleLike removes the (post, user) like row if it exists and inserts it
// otherwise. The post row is locked with SELECT ... FOR UPDATE so concurrent
// toggles on one post run one after another; SQLite has no row locks and
// relies on its single writer instead.
func (r *GORMPostRepository) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&models.Post{}).
			Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Where("id = ?", postID).
			Pluck("id", &ids).Error
		if err != nil {
			return fmt.Errorf("failed to look up post %s: %w", postID, err)
		}
		if len(ids) == 0 {
			return fmt.Errorf("post %s: %w", postID, ErrNotFound)
		}

		res := tx.Delete(&models.PostLike{}, "post_id = ? AND user_id = ?", postID, userID)
		if res.Error != nil {
			return fmt.Errorf("failed to remove like: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}
		like := models.PostLike{PostID: postID, UserID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
			return fmt.Errorf("failed to add like: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, postID)
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mernlog/internal/models"
	"mernlog/pkg/idx"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// toggleAttempts bounds the add/remove retry loop in ToggleLike. A retry is
// only needed when a concurrent toggle flips membership between the two
// conditional updates.
const toggleAttempts = 3

// MongoPostRepository is a MongoDB implementation of PostRepository. The
// like set is stored as an array on the post document.
type MongoPostRepository struct {
	coll *mongo.Collection
}

// NewMongoPostRepository creates a new instance of MongoPostRepository.
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{coll: db.Collection(PostsCollection)}
}

func (r *MongoPostRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Post, error) {
	cur, err := r.coll.Find(ctx, filter, opts.SetSort(newestFirstSort))
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	posts := make([]models.Post, 0)
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	for i := range posts {
		if posts[i].Likes == nil {
			posts[i].Likes = []string{}
		}
	}
	return posts, nil
}

// Count returns the number of posts.
func (r *MongoPostRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

// List retrieves one page of posts, newest first.
func (r *MongoPostRepository) List(ctx context.Context, skip, limit int) ([]models.Post, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSkip(int64(skip)).SetLimit(int64(limit)))
}

// ListByAuthor retrieves all posts by author.
func (r *MongoPostRepository) ListByAuthor(ctx context.Context, author string) ([]models.Post, error) {
	return r.find(ctx, bson.M{"author": author}, options.Find())
}

// ListLikedBy retrieves all posts whose like set contains userID.
func (r *MongoPostRepository) ListLikedBy(ctx context.Context, userID string) ([]models.Post, error) {
	return r.find(ctx, bson.M{"likes": userID}, options.Find())
}

// GetByID retrieves a single post.
func (r *MongoPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post by ID %s: %w", id, err)
	}
	if post.Likes == nil {
		post.Likes = []string{}
	}
	return &post, nil
}

// Create inserts a new post with an empty like set.
func (r *MongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	if post.ID == "" {
		post.ID = idx.NewAt(now)
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = post.CreatedAt
	post.Likes = []string{}
	if _, err := r.coll.InsertOne(ctx, post); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("post %s: %w", post.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// Update writes the editable fields and returns the stored document in post.
func (r *MongoPostRepository) Update(ctx context.Context, post *models.Post) error {
	update := bson.M{"$set": bson.M{
		"title":     post.Title,
		"summary":   post.Summary,
		"content":   post.Content,
		"cover":     post.Cover,
		"updatedAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Post
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": post.ID}, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("post %s: %w", post.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to update post: %w", err)
	}
	if updated.Likes == nil {
		updated.Likes = []string{}
	}
	*post = updated
	return nil
}

// Delete removes a post by its ID.
func (r *MongoPostRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return nil
}

// ToggleLike pushes userID when it is absent from the like set and pulls it
// when present. Each branch is a single conditional update, so concurrent
// toggles never duplicate or lose a member.
func (r *MongoPostRepository) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	add := bson.M{"$push": bson.M{"likes": userID}}
	remove := bson.M{"$pull": bson.M{"likes": userID}}

	for attempt := 0; attempt < toggleAttempts; attempt++ {
		var post models.Post
		err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": postID, "likes": bson.M{"$ne": userID}}, add, opts).Decode(&post)
		if err == nil {
			return &post, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("failed to add like: %w", err)
		}

		err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": postID, "likes": userID}, remove, opts).Decode(&post)
		if err == nil {
			if post.Likes == nil {
				post.Likes = []string{}
			}
			return &post, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("failed to remove like: %w", err)
		}

		if _, err := r.GetByID(ctx, postID); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("like toggle on post %s did not settle after %d attempts", postID, toggleAttempts)
}

package services

import (
	"context"
	"fmt"
	"time"

	"mernlog/internal/models"
	"mernlog/internal/repositories"
)

// PasswordHasher hashes plain-text passwords. AuthService implements it.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// ProfileUpdate lists the profile fields a user may change. Empty fields are
// left as they are.
type ProfileUpdate struct {
	Password     string
	ProfileImage string
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID           string    `json:"_id"`
	UserID       string    `json:"userId"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Kakao        bool      `json:"kakao"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserService serves per-user views and profile edits.
type UserService struct {
	users    repositories.UserRepository
	posts    *PostService
	comments *CommentService
	hasher   PasswordHasher
}

// NewUserService creates a new UserService.
func NewUserService(users repositories.UserRepository, posts *PostService, comments *CommentService, hasher PasswordHasher) *UserService {
	return &UserService{users: users, posts: posts, comments: comments, hasher: hasher}
}

func toProfile(u *models.User) *UserProfile {
	return &UserProfile{
		ID:           u.ID,
		UserID:       u.UserID,
		ProfileImage: u.ProfileImage,
		Kakao:        u.KakaoID != nil,
		CreatedAt:    u.CreatedAt,
	}
}

// GetUserInfo returns the public profile of userID.
func (s *UserService) GetUserInfo(ctx context.Context, userID string) (*UserProfile, error) {
	user, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	return toProfile(user), nil
}

// GetUserPosts returns the posts written by userID.
func (s *UserService) GetUserPosts(ctx context.Context, userID, callerID string) ([]models.PostView, error) {
	return s.posts.ListByAuthor(ctx, userID, callerID)
}

// GetUserComments returns the comments written by userID.
func (s *UserService) GetUserComments(ctx context.Context, userID string) ([]models.Comment, error) {
	return s.comments.ListByAuthor(ctx, userID)
}

// GetUserLikedPosts returns the posts liked by userID.
func (s *UserService) GetUserLikedPosts(ctx context.Context, userID, callerID string) ([]models.PostView, error) {
	return s.posts.ListLikedBy(ctx, userID, callerID)
}

// UpdateProfile changes the password and/or profile image of userID.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*UserProfile, error) {
	if upd.Password == "" && upd.ProfileImage == "" {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	user, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	if upd.Password != "" {
		hashed, err := s.hasher.HashPassword(upd.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}
	if upd.ProfileImage != "" {
		user.ProfileImage = upd.ProfileImage
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, translate(err)
	}
	return toProfile(user), nil
}

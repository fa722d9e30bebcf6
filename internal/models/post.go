package models

import (
	"slices"
	"time"
)

// Post is a blog entry. Author holds the author's login id and never changes
// after creation.
type Post struct {
	ID        string    `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(26)"`
	Title     string    `json:"title" bson:"title" gorm:"not null"`
	Summary   string    `json:"summary" bson:"summary" gorm:"not null"`
	Content   string    `json:"content" bson:"content" gorm:"type:text;not null"`
	Cover     string    `json:"cover,omitempty" bson:"cover,omitempty"`
	Author    string    `json:"author" bson:"author" gorm:"index;type:varchar(100);not null"`
	Likes     []string  `json:"likes" bson:"likes" gorm:"-"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID string) bool {
	if userID == "" {
		return false
	}
	return slices.Contains(p.Likes, userID)
}

// PostLike is one member of a post's like set in the relational store.
// The composite primary key keeps the set free of duplicates.
type PostLike struct {
	PostID    string    `gorm:"primaryKey;type:varchar(26)"`
	UserID    string    `gorm:"primaryKey;type:varchar(100);index"`
	CreatedAt time.Time `gorm:"index"`
}

// PostView is a post enriched with values derived at read time.
type PostView struct {
	Post
	CommentCount int64 `json:"commentCount"`
	LikesCount   int   `json:"likesCount"`
	IsLiked      bool  `json:"isLiked"`
}

// NewPostView derives the like fields for callerID. commentCount is supplied
// by the caller because it lives in another collection.
func NewPostView(p Post, commentCount int64, callerID string) PostView {
	if p.Likes == nil {
		p.Likes = []string{}
	}
	return PostView{
		Post:         p,
		CommentCount: commentCount,
		LikesCount:   len(p.Likes),
		IsLiked:      p.LikedBy(callerID),
	}
}

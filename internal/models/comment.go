package models

import "time"

// Comment is a reply attached to a post.
type Comment struct {
	ID        string    `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(26)"`
	Content   string    `json:"content" bson:"content" gorm:"type:text;not null"`
	Author    string    `json:"author" bson:"author" gorm:"index;type:varchar(100);not null"`
	PostID    string    `json:"postId" bson:"postId" gorm:"index;type:varchar(26);not null"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

package models

import "time"

// User represents an account. A user signs in either with a local password
// or through Kakao, so Password and KakaoID are each optional on their own.
type User struct {
	ID           string    `json:"_id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	UserID       string    `json:"userId" bson:"userId" gorm:"uniqueIndex;type:varchar(100);not null" validate:"required,min=2,max=100"`
	Password     string    `json:"-" bson:"password,omitempty" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	KakaoID      *string   `json:"kakaoId,omitempty" bson:"kakaoId,omitempty" gorm:"uniqueIndex;type:varchar(64)"`
	ProfileImage string    `json:"profileImage,omitempty" bson:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HasCredential reports whether the user can authenticate at all.
func (u *User) HasCredential() bool {
	return u.Password != "" || (u.KakaoID != nil && *u.KakaoID != "")
}

package repositories

import (
	"context"

	"mernlog/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUserID(ctx context.Context, userID string) (*models.User, error)
	GetByKakaoID(ctx context.Context, kakaoID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

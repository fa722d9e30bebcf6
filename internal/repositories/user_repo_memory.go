package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mernlog/internal/models"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]models.User),
	}
}

// conflicts reports whether another user already holds u's unique keys.
func (r *MemoryUserRepository) conflicts(u *models.User) bool {
	for id, existing := range r.users {
		if id == u.ID {
			continue
		}
		if existing.UserID == u.UserID {
			return true
		}
		if u.KakaoID != nil && existing.KakaoID != nil && *u.KakaoID == *existing.KakaoID {
			return true
		}
	}
	return false
}

// Create adds a new user.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if r.conflicts(user) {
		return fmt.Errorf("user %s: %w", user.UserID, ErrDuplicate)
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) find(match func(models.User) bool) (*models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return &u, true
		}
	}
	return nil, false
}

// GetByID returns a user by internal ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := r.find(func(u models.User) bool { return u.ID == id }); ok {
		return u, nil
	}
	return nil, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
}

// GetByUserID returns a user by login id.
func (r *MemoryUserRepository) GetByUserID(_ context.Context, userID string) (*models.User, error) {
	if u, ok := r.find(func(u models.User) bool { return u.UserID == userID }); ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
}

// GetByKakaoID returns the user linked to a Kakao account.
func (r *MemoryUserRepository) GetByKakaoID(_ context.Context, kakaoID string) (*models.User, error) {
	if u, ok := r.find(func(u models.User) bool { return u.KakaoID != nil && *u.KakaoID == kakaoID }); ok {
		return u, nil
	}
	return nil, fmt.Errorf("user with kakao id %s: %w", kakaoID, ErrNotFound)
}

// Update replaces a stored user.
func (r *MemoryUserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID %s: %w", user.ID, ErrNotFound)
	}
	if r.conflicts(user) {
		return fmt.Errorf("user %s: %w", user.UserID, ErrDuplicate)
	}
	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

// Delete removes a user by internal ID.
func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"recipebox/internal/models"

	"github.com/redis/go-redis/v9"
)

const userCachePrefix = "user:"

// cachedUser is the cached projection of a user. The password hash is never cached.
type cachedUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	IsActive    bool   `json:"is_active"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// GetUser returns the cached user or nil on a miss.
func (c *Cache) GetUser(ctx context.Context, id string) (*models.User, error) {
	data, err := c.client.Get(ctx, userCachePrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached user %s: %w", id, err)
	}

	var cached cachedUser
	if err := json.Unmarshal(data, &cached); err != nil {
		// corrupted entry, treat as a miss
		return nil, nil //nolint:nilerr
	}
	return &models.User{
		ID:          cached.ID,
		Email:       cached.Email,
		Name:        cached.Name,
		IsActive:    cached.IsActive,
		IsStaff:     cached.IsStaff,
		IsSuperuser: cached.IsSuperuser,
	}, nil
}

// SetUser caches the user for the configured TTL.
func (c *Cache) SetUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(cachedUser{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		IsActive:    user.IsActive,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
	})
	if err != nil {
		return fmt.Errorf("marshal cached user: %w", err)
	}
	return c.client.Set(ctx, userCachePrefix+user.ID, data, c.userTTL).Err()
}

// DeleteUser drops the cached entry, used after profile changes and deletion.
func (c *Cache) DeleteUser(ctx context.Context, id string) error {
	return c.client.Del(ctx, userCachePrefix+id).Err()
}

package services

import (
	"context"
	"errors"
	"fmt"

	"recipebox/internal/cache"
	"recipebox/internal/models"
	"recipebox/internal/repositories"

	"github.com/sirupsen/logrus"
)

// Page bounds for user listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// UserPage is one page of the user listing.
type UserPage struct {
	Users      []models.User
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// AdminService exposes user administration to staff.
type AdminService struct {
	userRepo repositories.UserRepository
	cache    UserCache
}

// NewAdminService creates a new AdminService. A nil cache disables invalidation.
func NewAdminService(userRepo repositories.UserRepository, userCache UserCache) *AdminService {
	if userCache == nil {
		userCache = cache.Noop{}
	}
	return &AdminService{userRepo: userRepo, cache: userCache}
}

// ListUsers returns a page of users. Out of range arguments fall back to defaults.
func (s *AdminService) ListUsers(ctx context.Context, page, pageSize int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	users, total, err := s.userRepo.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	return &UserPage{
		Users:      users,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (int(total) + pageSize - 1) / pageSize,
	}, nil
}

// DeleteUser removes a user and everything the user owns.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := s.cache.DeleteUser(ctx, id); err != nil {
		logrus.WithError(err).WithField("user_id", id).Warn("User cache invalidation failed")
	}
	logrus.WithField("user_id", id).Info("User deleted")
	return nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"recipebox/internal/models"
	"recipebox/internal/repositories"
)

// TagService handles business logic for tags.
type TagService struct {
	repo repositories.TagRepository
}

// NewTagService creates a new TagService.
func NewTagService(repo repositories.TagRepository) *TagService {
	return &TagService{repo: repo}
}

// ListTags returns the tags owned by userID.
func (s *TagService) ListTags(ctx context.Context, userID string) ([]models.Tag, error) {
	return s.repo.ListByUser(ctx, userID)
}

// CreateTag creates a tag owned by userID.
func (s *TagService) CreateTag(ctx context.Context, userID, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "This field may not be blank."}
	}
	tag := &models.Tag{UserID: userID, Name: name}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return tag, nil
}

// IngredientService handles business logic for ingredients.
type IngredientService struct {
	repo repositories.IngredientRepository
}

// NewIngredientService creates a new IngredientService.
func NewIngredientService(repo repositories.IngredientRepository) *IngredientService {
	return &IngredientService{repo: repo}
}

// ListIngredients returns the ingredients owned by userID.
func (s *IngredientService) ListIngredients(ctx context.Context, userID string) ([]models.Ingredient, error) {
	return s.repo.ListByUser(ctx, userID)
}

// CreateIngredient creates an ingredient owned by userID.
func (s *IngredientService) CreateIngredient(ctx context.Context, userID, name string) (*models.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "This field may not be blank."}
	}
	ingredient := &models.Ingredient{UserID: userID, Name: name}
	if err := s.repo.Create(ctx, ingredient); err != nil {
		return nil, fmt.Errorf("failed to create ingredient: %w", err)
	}
	return ingredient, nil
}

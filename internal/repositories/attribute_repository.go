package repositories

import (
	"context"

	"recipebox/internal/models"
)

// TagRepository defines the interface for tag data access.
type TagRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	// FindByIDs returns the subset of ids that exist and belong to userID.
	FindByIDs(ctx context.Context, userID string, ids []string) ([]models.Tag, error)
}

// IngredientRepository defines the interface for ingredient data access.
type IngredientRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Ingredient, error)
	Create(ctx context.Context, ingredient *models.Ingredient) error
	FindByIDs(ctx context.Context, userID string, ids []string) ([]models.Ingredient, error)
}

package repositories

import (
	"context"

	"recipebox/internal/models"
)

// Associations selects which many-to-many relations an update rewrites.
type Associations struct {
	Tags        bool
	Ingredients bool
}

// RecipeRepository defines the interface for recipe data access.
// Every method is scoped to the owning user.
type RecipeRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Recipe, error)
	GetByID(ctx context.Context, userID, id string) (*models.Recipe, error)
	Create(ctx context.Context, recipe *models.Recipe) error
	Update(ctx context.Context, recipe *models.Recipe, replace Associations) error
	Delete(ctx context.Context, userID, id string) error
}

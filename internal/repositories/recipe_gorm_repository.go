package repositories

import (
	"context"
	"errors"
	"fmt"

	"recipebox/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMRecipeRepository is a GORM implementation of RecipeRepository.
type GORMRecipeRepository struct {
	db *gorm.DB
}

// NewGORMRecipeRepository creates a new instance of GORMRecipeRepository.
func NewGORMRecipeRepository(db *gorm.DB) *GORMRecipeRepository {
	return &GORMRecipeRepository{db: db}
}

func (r *GORMRecipeRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Tags").Preload("Ingredients")
}

// ListByUser returns the recipes owned by userID, newest first.
func (r *GORMRecipeRepository) ListByUser(ctx context.Context, userID string) ([]models.Recipe, error) {
	recipes := []models.Recipe{}
	err := r.withAssociations(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// GetByID retrieves a recipe owned by userID with its tags and ingredients.
func (r *GORMRecipeRepository) GetByID(ctx context.Context, userID, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.withAssociations(ctx).First(&recipe, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get recipe by ID %s: %w", id, err)
	}
	return &recipe, nil
}

// Create inserts the recipe and links the already persisted tags and ingredients.
func (r *GORMRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	if recipe.ID == "" {
		recipe.ID = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Omit("Tags.*", "Ingredients.*").Create(recipe).Error
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// Update writes the scalar columns and, when selected, replaces the linked
// tags and ingredients with the ones held by recipe. An empty slice clears them.
func (r *GORMRecipeRepository) Update(ctx context.Context, recipe *models.Recipe, replace Associations) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Recipe{}).
			Where("id = ? AND user_id = ?", recipe.ID, recipe.UserID).
			Updates(map[string]interface{}{
				"title":        recipe.Title,
				"time_minutes": recipe.TimeMinutes,
				"price":        recipe.Price,
				"link":         recipe.Link,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update recipe: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("recipe with ID %s not found for update: %w", recipe.ID, ErrNotFound)
		}
		if replace.Tags {
			if err := replaceAssociation(tx, recipe, "Tags", len(recipe.Tags), recipe.Tags); err != nil {
				return err
			}
		}
		if replace.Ingredients {
			if err := replaceAssociation(tx, recipe, "Ingredients", len(recipe.Ingredients), recipe.Ingredients); err != nil {
				return err
			}
		}
		return nil
	})
}

func replaceAssociation(tx *gorm.DB, recipe *models.Recipe, name string, n int, values interface{}) error {
	assoc := tx.Model(recipe).Association(name)
	var err error
	if n == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(values)
	}
	if err != nil {
		return fmt.Errorf("failed to replace recipe %s: %w", name, err)
	}
	return nil
}

// Delete removes a recipe owned by userID together with its join rows.
func (r *GORMRecipeRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("recipe with ID %s not found for deletion: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to load recipe %s: %w", id, err)
		}
		if err := tx.Select("Tags", "Ingredients").Delete(&recipe).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
}

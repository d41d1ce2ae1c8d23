package repositories

import (
	"context"
	"fmt"

	"recipebox/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const attributeOrder = "name DESC, created_at"

// GORMTagRepository is a GORM implementation of TagRepository.
type GORMTagRepository struct {
	db *gorm.DB
}

// NewGORMTagRepository creates a new instance of GORMTagRepository.
func NewGORMTagRepository(db *gorm.DB) *GORMTagRepository {
	return &GORMTagRepository{db: db}
}

// ListByUser returns the tags owned by userID.
func (r *GORMTagRepository) ListByUser(ctx context.Context, userID string) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order(attributeOrder).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// Create creates a new tag in the database.
func (r *GORMTagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if tag.ID == "" {
		tag.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

// FindByIDs loads the tags among ids that belong to userID.
func (r *GORMTagRepository) FindByIDs(ctx context.Context, userID string, ids []string) ([]models.Tag, error) {
	tags := []models.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to find tags: %w", err)
	}
	return tags, nil
}

// GORMIngredientRepository is a GORM implementation of IngredientRepository.
type GORMIngredientRepository struct {
	db *gorm.DB
}

// NewGORMIngredientRepository creates a new instance of GORMIngredientRepository.
func NewGORMIngredientRepository(db *gorm.DB) *GORMIngredientRepository {
	return &GORMIngredientRepository{db: db}
}

// ListByUser returns the ingredients owned by userID.
func (r *GORMIngredientRepository) ListByUser(ctx context.Context, userID string) ([]models.Ingredient, error) {
	ingredients := []models.Ingredient{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order(attributeOrder).Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// Create creates a new ingredient in the database.
func (r *GORMIngredientRepository) Create(ctx context.Context, ingredient *models.Ingredient) error {
	if ingredient.ID == "" {
		ingredient.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(ingredient).Error; err != nil {
		return fmt.Errorf("failed to create ingredient: %w", err)
	}
	return nil
}

// FindByIDs loads the ingredients among ids that belong to userID.
func (r *GORMIngredientRepository) FindByIDs(ctx context.Context, userID string, ids []string) ([]models.Ingredient, error) {
	ingredients := []models.Ingredient{}
	if len(ids) == 0 {
		return ingredients, nil
	}
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to find ingredients: %w", err)
	}
	return ingredients, nil
}

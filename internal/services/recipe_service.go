package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipebox/internal/models"
	"recipebox/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// EventPublisher publishes recipe lifecycle events to a broker.
type EventPublisher interface {
	PublishRecipeEvent(event models.RecipeEvent) error
}

// RecipeInput carries recipe fields from a request. Nil fields were not supplied.
type RecipeInput struct {
	Title         *string
	TimeMinutes   *int
	Price         *decimal.Decimal
	Link          *string
	TagIDs        *[]string
	IngredientIDs *[]string
}

// requireScalars reports the first missing field a full write needs.
func (in RecipeInput) requireScalars() error {
	switch {
	case in.Title == nil:
		return &ValidationError{Field: "title", Message: "This field is required."}
	case in.TimeMinutes == nil:
		return &ValidationError{Field: "time_minutes", Message: "This field is required."}
	case in.Price == nil:
		return &ValidationError{Field: "price", Message: "This field is required."}
	}
	return nil
}

// RecipeService handles business logic related to recipes.
type RecipeService struct {
	recipeRepo     repositories.RecipeRepository
	tagRepo        repositories.TagRepository
	ingredientRepo repositories.IngredientRepository
	publisher      EventPublisher
}

// NewRecipeService creates a new RecipeService. publisher may be nil.
func NewRecipeService(
	recipeRepo repositories.RecipeRepository,
	tagRepo repositories.TagRepository,
	ingredientRepo repositories.IngredientRepository,
	publisher EventPublisher,
) *RecipeService {
	return &RecipeService{
		recipeRepo:     recipeRepo,
		tagRepo:        tagRepo,
		ingredientRepo: ingredientRepo,
		publisher:      publisher,
	}
}

// ListRecipes returns the recipes owned by userID.
func (s *RecipeService) ListRecipes(ctx context.Context, userID string) ([]models.Recipe, error) {
	return s.recipeRepo.ListByUser(ctx, userID)
}

// GetRecipe returns a recipe owned by userID.
func (s *RecipeService) GetRecipe(ctx context.Context, userID, id string) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return recipe, nil
}

// CreateRecipe creates a recipe owned by userID. Title, time and price must be set.
func (s *RecipeService) CreateRecipe(ctx context.Context, userID string, in RecipeInput) (*models.Recipe, error) {
	if err := in.requireScalars(); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		UserID:      userID,
		Tags:        []models.Tag{},
		Ingredients: []models.Ingredient{},
	}
	if _, err := s.apply(ctx, recipe, in, false); err != nil {
		return nil, err
	}

	if err := s.recipeRepo.Create(ctx, recipe); err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	s.publish(models.EventRecipeCreated, recipe)
	return recipe, nil
}

// UpdateRecipe changes a recipe owned by userID. With partial set, only supplied
// fields change. Otherwise every field is replaced and omitted tags, ingredients
// and link are cleared.
func (s *RecipeService) UpdateRecipe(ctx context.Context, userID, id string, in RecipeInput, partial bool) (*models.Recipe, error) {
	if !partial {
		if err := in.requireScalars(); err != nil {
			return nil, err
		}
	}

	recipe, err := s.GetRecipe(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	replace, err := s.apply(ctx, recipe, in, partial)
	if err != nil {
		return nil, err
	}

	if err := s.recipeRepo.Update(ctx, recipe, replace); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	s.publish(models.EventRecipeUpdated, recipe)
	return recipe, nil
}

// DeleteRecipe removes a recipe owned by userID.
func (s *RecipeService) DeleteRecipe(ctx context.Context, userID, id string) error {
	recipe, err := s.GetRecipe(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.recipeRepo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	s.publish(models.EventRecipeDeleted, recipe)
	return nil
}

// apply copies in onto recipe and reports which associations must be rewritten.
func (s *RecipeService) apply(ctx context.Context, recipe *models.Recipe, in RecipeInput, partial bool) (repositories.Associations, error) {
	var replace repositories.Associations

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return replace, &ValidationError{Field: "title", Message: "This field may not be blank."}
		}
		recipe.Title = title
	}
	if in.TimeMinutes != nil {
		recipe.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		recipe.Price = *in.Price
	}
	if in.Link != nil {
		recipe.Link = *in.Link
	} else if !partial {
		recipe.Link = ""
	}

	if in.TagIDs != nil || !partial {
		var ids []string
		if in.TagIDs != nil {
			ids = *in.TagIDs
		}
		tags, err := s.tagRepo.FindByIDs(ctx, recipe.UserID, unique(ids))
		if err != nil {
			return replace, err
		}
		if len(tags) != len(unique(ids)) {
			return replace, &ValidationError{Field: "tags", Message: "Invalid tag id, object does not exist."}
		}
		recipe.Tags = tags
		replace.Tags = true
	}

	if in.IngredientIDs != nil || !partial {
		var ids []string
		if in.IngredientIDs != nil {
			ids = *in.IngredientIDs
		}
		ingredients, err := s.ingredientRepo.FindByIDs(ctx, recipe.UserID, unique(ids))
		if err != nil {
			return replace, err
		}
		if len(ingredients) != len(unique(ids)) {
			return replace, &ValidationError{Field: "ingredients", Message: "Invalid ingredient id, object does not exist."}
		}
		recipe.Ingredients = ingredients
		replace.Ingredients = true
	}

	return replace, nil
}

func (s *RecipeService) publish(event string, recipe *models.Recipe) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishRecipeEvent(models.RecipeEvent{
		Event:    event,
		RecipeID: recipe.ID,
		UserID:   recipe.UserID,
		Title:    recipe.Title,
		At:       time.Now().UTC(),
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"event":     event,
			"recipe_id": recipe.ID,
			"error":     err.Error(),
		}).Warn("Failed to publish recipe event")
	}
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

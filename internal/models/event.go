package models

import "time"

// Recipe lifecycle event names.
const (
	EventRecipeCreated = "recipe.created"
	EventRecipeUpdated = "recipe.updated"
	EventRecipeDeleted = "recipe.deleted"
)

// RecipeEvent is published to the broker whenever a recipe changes.
type RecipeEvent struct {
	Event    string    `json:"event"`
	RecipeID string    `json:"recipe_id"`
	UserID   string    `json:"user_id"`
	Title    string    `json:"title"`
	At       time.Time `json:"at"`
}

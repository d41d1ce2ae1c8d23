package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tag is a user-owned label that can be attached to recipes.
type Tag struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"-" gorm:"index;type:varchar(36);not null"`
	Name      string    `json:"name" gorm:"type:varchar(50);not null"`
	CreatedAt time.Time `json:"-"`
}

func (t Tag) String() string {
	return t.Name
}

// Ingredient is a user-owned ingredient that can be attached to recipes.
type Ingredient struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"-" gorm:"index;type:varchar(36);not null"`
	Name      string    `json:"name" gorm:"type:varchar(50);not null"`
	CreatedAt time.Time `json:"-"`
}

func (i Ingredient) String() string {
	return i.Name
}

// Recipe belongs to a single user and references that user's tags and ingredients.
type Recipe struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)"`
	UserID      string          `gorm:"index;type:varchar(36);not null"`
	Title       string          `gorm:"type:varchar(100);not null"`
	TimeMinutes int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	Link        string          `gorm:"type:varchar(255)"`
	Tags        []Tag           `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE;"`
	Ingredients []Ingredient    `gorm:"many2many:recipe_ingredients;constraint:OnDelete:CASCADE;"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r Recipe) String() string {
	return r.Title
}

// TagIDs returns the ids of the attached tags in their loaded order.
func (r Recipe) TagIDs() []string {
	ids := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// IngredientIDs returns the ids of the attached ingredients in their loaded order.
func (r Recipe) IngredientIDs() []string {
	ids := make([]string, 0, len(r.Ingredients))
	for _, i := range r.Ingredients {
		ids = append(ids, i.ID)
	}
	return ids
}

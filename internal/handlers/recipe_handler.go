package handlers

import (
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// RecipeHandler handles HTTP requests for recipes.
type RecipeHandler struct {
	service  *services.RecipeService
	validate *validator.Validate
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(service *services.RecipeService) *RecipeHandler {
	return &RecipeHandler{service: service, validate: newValidator()}
}

// RegisterRoutes registers the recipe routes.
func (h *RecipeHandler) RegisterRoutes(router fiber.Router) {
	recipeRoutes := router.Group("/recipes")
	recipeRoutes.Get("/", h.HandleListRecipes)
	recipeRoutes.Post("/", h.HandleCreateRecipe)
	recipeRoutes.Get("/:id", h.HandleGetRecipe)
	recipeRoutes.Put("/:id", h.HandleUpdateRecipe)
	recipeRoutes.Patch("/:id", h.HandlePatchRecipe)
	recipeRoutes.Delete("/:id", h.HandleDeleteRecipe)
}

// RecipeRequest is the body of recipe create and update requests. Nil fields were omitted.
type RecipeRequest struct {
	Title       *string          `json:"title" form:"title" validate:"omitempty,max=100"`
	TimeMinutes *int             `json:"time_minutes" form:"time_minutes"`
	Price       *decimal.Decimal `json:"price" form:"price" validate:"omitempty,price"`
	Link        *string          `json:"link" form:"link" validate:"omitempty,max=255"`
	Tags        *[]string        `json:"tags" form:"tags"`
	Ingredients *[]string        `json:"ingredients" form:"ingredients"`
}

func (r RecipeRequest) input() services.RecipeInput {
	return services.RecipeInput{
		Title:         r.Title,
		TimeMinutes:   r.TimeMinutes,
		Price:         r.Price,
		Link:          r.Link,
		TagIDs:        r.Tags,
		IngredientIDs: r.Ingredients,
	}
}

// RecipeResponse lists tags and ingredients by id.
type RecipeResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	TimeMinutes int      `json:"time_minutes"`
	Price       string   `json:"price"`
	Link        string   `json:"link"`
	Tags        []string `json:"tags"`
	Ingredients []string `json:"ingredients"`
}

// RecipeDetailResponse nests the full tag and ingredient objects.
type RecipeDetailResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       string              `json:"price"`
	Link        string              `json:"link"`
	Tags        []models.Tag        `json:"tags"`
	Ingredients []models.Ingredient `json:"ingredients"`
}

func newRecipeResponse(r *models.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        r.TagIDs(),
		Ingredients: r.IngredientIDs(),
	}
}

func newRecipeDetailResponse(r *models.Recipe) RecipeDetailResponse {
	tags := r.Tags
	if tags == nil {
		tags = []models.Tag{}
	}
	ingredients := r.Ingredients
	if ingredients == nil {
		ingredients = []models.Ingredient{}
	}
	return RecipeDetailResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        tags,
		Ingredients: ingredients,
	}
}

// HandleListRecipes lists the requester's recipes.
func (h *RecipeHandler) HandleListRecipes(c *fiber.Ctx) error {
	recipes, err := h.service.ListRecipes(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	resp := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		resp = append(resp, newRecipeResponse(&recipes[i]))
	}
	return c.JSON(resp)
}

// HandleGetRecipe returns one of the requester's recipes with nested relations.
func (h *RecipeHandler) HandleGetRecipe(c *fiber.Ctx) error {
	recipe, err := h.service.GetRecipe(c.UserContext(), middleware.CurrentUser(c).ID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newRecipeDetailResponse(recipe))
}

// HandleCreateRecipe creates a recipe owned by the requester.
func (h *RecipeHandler) HandleCreateRecipe(c *fiber.Ctx) error {
	var req RecipeRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	recipe, err := h.service.CreateRecipe(c.UserContext(), middleware.CurrentUser(c).ID, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newRecipeResponse(recipe))
}

// HandleUpdateRecipe replaces a recipe.
func (h *RecipeHandler) HandleUpdateRecipe(c *fiber.Ctx) error {
	return h.update(c, false)
}

// HandlePatchRecipe changes the supplied fields of a recipe.
func (h *RecipeHandler) HandlePatchRecipe(c *fiber.Ctx) error {
	return h.update(c, true)
}

func (h *RecipeHandler) update(c *fiber.Ctx, partial bool) error {
	var req RecipeRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	recipe, err := h.service.UpdateRecipe(c.UserContext(), middleware.CurrentUser(c).ID, c.Params("id"), req.input(), partial)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newRecipeResponse(recipe))
}

// HandleDeleteRecipe removes one of the requester's recipes.
func (h *RecipeHandler) HandleDeleteRecipe(c *fiber.Ctx) error {
	if err := h.service.DeleteRecipe(c.UserContext(), middleware.CurrentUser(c).ID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

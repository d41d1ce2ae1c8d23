package handlers

import (
	"recipebox/internal/middleware"
	"recipebox/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AttributeRequest is the body for creating a tag or an ingredient.
type AttributeRequest struct {
	Name string `json:"name" form:"name" validate:"required,max=50"`
}

// TagHandler handles HTTP requests for tags.
type TagHandler struct {
	service  *services.TagService
	validate *validator.Validate
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(service *services.TagService) *TagHandler {
	return &TagHandler{service: service, validate: newValidator()}
}

// RegisterRoutes registers the tag routes.
func (h *TagHandler) RegisterRoutes(router fiber.Router) {
	tagRoutes := router.Group("/tags")
	tagRoutes.Get("/", h.HandleListTags)
	tagRoutes.Post("/", h.HandleCreateTag)
}

// HandleListTags lists the requester's tags.
func (h *TagHandler) HandleListTags(c *fiber.Ctx) error {
	tags, err := h.service.ListTags(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tags)
}

// HandleCreateTag creates a tag owned by the requester.
func (h *TagHandler) HandleCreateTag(c *fiber.Ctx) error {
	var req AttributeRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	tag, err := h.service.CreateTag(c.UserContext(), middleware.CurrentUser(c).ID, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

// IngredientHandler handles HTTP requests for ingredients.
type IngredientHandler struct {
	service  *services.IngredientService
	validate *validator.Validate
}

// NewIngredientHandler creates a new IngredientHandler.
func NewIngredientHandler(service *services.IngredientService) *IngredientHandler {
	return &IngredientHandler{service: service, validate: newValidator()}
}

// RegisterRoutes registers the ingredient routes.
func (h *IngredientHandler) RegisterRoutes(router fiber.Router) {
	ingredientRoutes := router.Group("/ingredients")
	ingredientRoutes.Get("/", h.HandleListIngredients)
	ingredientRoutes.Post("/", h.HandleCreateIngredient)
}

// HandleListIngredients lists the requester's ingredients.
func (h *IngredientHandler) HandleListIngredients(c *fiber.Ctx) error {
	ingredients, err := h.service.ListIngredients(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ingredients)
}

// HandleCreateIngredient creates an ingredient owned by the requester.
func (h *IngredientHandler) HandleCreateIngredient(c *fiber.Ctx) error {
	var req AttributeRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	ingredient, err := h.service.CreateIngredient(c.UserContext(), middleware.CurrentUser(c).ID, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ingredient)
}

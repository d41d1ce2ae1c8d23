package handlers

import (
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles HTTP requests for accounts and tokens.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the account routes. requireAuth guards the profile endpoints.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	accountRoutes := router.Group("/accounts")
	accountRoutes.Post("/create", h.HandleCreateUser)
	accountRoutes.Post("/token", h.HandleCreateToken)

	me := accountRoutes.Group("/me", requireAuth)
	me.Get("/", h.HandleGetMe)
	me.Patch("/", h.HandlePatchMe)
	me.Put("/", h.HandlePutMe)
}

// UserRequest is the body of a signup or a full profile update.
type UserRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"required,min=5,max=72"`
	Name     string `json:"name" form:"name" validate:"max=255"`
}

// UserPatchRequest is the body of a partial profile update.
type UserPatchRequest struct {
	Email    *string `json:"email" form:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" form:"password" validate:"omitempty,min=5,max=72"`
	Name     *string `json:"name" form:"name" validate:"omitempty,max=255"`
}

// TokenRequest is the body of a token request.
type TokenRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// UserResponse is the public representation of an account.
type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{Email: u.Email, Name: u.Name}
}

// HandleCreateUser handles new user registration.
func (h *AuthHandler) HandleCreateUser(c *fiber.Ctx) error {
	var req UserRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.authService.RegisterUser(c.UserContext(), req.Email, req.Password, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newUserResponse(user))
}

// HandleCreateToken exchanges credentials for a bearer token.
func (h *AuthHandler) HandleCreateToken(c *fiber.Ctx) error {
	var req TokenRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	token, err := h.authService.IssueToken(c.UserContext(), req.Email, req.Password)
	if err != nil {
		logrus.WithField("error", err.Error()).Debug("Token request rejected")
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"token": token})
}

// HandleGetMe returns the authenticated user.
func (h *AuthHandler) HandleGetMe(c *fiber.Ctx) error {
	return c.JSON(newUserResponse(middleware.CurrentUser(c)))
}

// HandlePatchMe changes the supplied profile fields.
func (h *AuthHandler) HandlePatchMe(c *fiber.Ctx) error {
	var req UserPatchRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}
	return h.updateProfile(c, services.ProfileUpdate{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
}

// HandlePutMe replaces the profile. Email and password are required.
func (h *AuthHandler) HandlePutMe(c *fiber.Ctx) error {
	var req UserRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}
	return h.updateProfile(c, services.ProfileUpdate{
		Email:    &req.Email,
		Name:     &req.Name,
		Password: &req.Password,
	})
}

func (h *AuthHandler) updateProfile(c *fiber.Ctx, upd services.ProfileUpdate) error {
	user, err := h.authService.UpdateProfile(c.UserContext(), middleware.CurrentUser(c).ID, upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newUserResponse(user))
}

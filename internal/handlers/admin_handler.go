package handlers

import (
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes user administration.
type AdminHandler struct {
	service *services.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *services.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers the admin routes behind requireAuth. Listing needs
// staff, deleting needs a superuser.
func (h *AdminHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	userRoutes := router.Group("/admin/users", requireAuth)
	userRoutes.Get("/", middleware.StaffRequired(), h.HandleListUsers)
	userRoutes.Delete("/:id", middleware.SuperuserRequired(), h.HandleDeleteUser)
}

// UserPageResponse is one page of the user listing.
type UserPageResponse struct {
	Users      []models.User `json:"users"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"total_pages"`
}

// HandleListUsers returns a page of users.
func (h *AdminHandler) HandleListUsers(c *fiber.Ctx) error {
	page, err := h.service.ListUsers(c.UserContext(),
		c.QueryInt("page", 1),
		c.QueryInt("page_size", services.DefaultPageSize))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(UserPageResponse{
		Users:      page.Users,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	})
}

// HandleDeleteUser deletes a user and everything the user owns.
func (h *AdminHandler) HandleDeleteUser(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

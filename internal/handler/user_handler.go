package handler

import (
	"go-catalog-api/internal/model"
	"go-catalog-api/internal/service"
	"go-catalog-api/pkg/config"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
	paging      config.CatalogConfig
}

func NewUserHandler(userService service.UserService, paging config.CatalogConfig) *UserHandler {
	return &UserHandler{userService: userService, paging: paging}
}

// CreateUser handles user creation
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	user, err := h.userService.CreateUser(c.UserContext(), &req, getUserID(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user,
	})
}

// GetUsers lists users
// GET /api/v1/users?search=&role=&page=&itemsPerPage=
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	page, err := h.userService.ListUsers(c.UserContext(), service.UserQuery{
		Search:     c.Query("search"),
		Role:       model.Role(c.Query("role")),
		Pagination: parsePagination(c, h.paging),
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GetUser returns a single user by ID
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// UpdateUser handles user update. Staff may only update themselves and
// never their own role.
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req service.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	if getUserRole(c) != model.RoleAdmin {
		if userID.String() != getUserID(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: cannot update another user"})
		}
		req.Role = nil
	}

	user, err := h.userService.UpdateUser(c.UserContext(), userID, &req, getUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"data":    user,
	})
}

// ChangePassword replaces the caller's own password
// POST /api/v1/users/:id/change-password
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if userID.String() != getUserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: cannot change another user's password"})
	}

	var req service.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	if err := h.userService.ChangePassword(c.UserContext(), userID, &req); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// DeleteUser handles user deletion
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if userID.String() == getUserID(c) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot delete your own account"})
	}

	if err := h.userService.DeleteUser(c.UserContext(), userID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

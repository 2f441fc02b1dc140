package handler

import (
	"strconv"

	"go-catalog-api/internal/service"
	"go-catalog-api/pkg/config"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	service service.CategoryService
	paging  config.CatalogConfig
}

func NewCategoryHandler(s service.CategoryService, paging config.CatalogConfig) *CategoryHandler {
	return &CategoryHandler{service: s, paging: paging}
}

// POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var req service.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	category, err := h.service.Create(c.UserContext(), &req, getUserID(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Category created successfully",
		"data":    category,
	})
}

// GetCategories lists categories
// GET /api/v1/categories?subCategory=&category=&name=&page=&itemsPerPage=
// An unparsable subCategory is ignored.
func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	query := service.CategoryQuery{
		Category:   c.Query("category"),
		Name:       c.Query("name"),
		Pagination: parsePagination(c, h.paging),
	}
	if raw := c.Query("subCategory"); raw != "" {
		if sub, err := strconv.ParseBool(raw); err == nil {
			query.SubCategory = &sub
		}
	}

	page, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GET /api/v1/categories/:id
func (h *CategoryHandler) GetCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	category, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(category)
}

// PATCH /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req service.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	category, err := h.service.Update(c.UserContext(), id, &req, getUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Category updated successfully",
		"data":    category,
	})
}

// DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), id, getUserID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

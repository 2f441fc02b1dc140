package handler

import (
	"go-catalog-api/internal/service"
	"go-catalog-api/pkg/config"

	"github.com/gofiber/fiber/v2"
)

type AttributeHandler struct {
	service service.AttributeService
	paging  config.CatalogConfig
}

func NewAttributeHandler(s service.AttributeService, paging config.CatalogConfig) *AttributeHandler {
	return &AttributeHandler{service: s, paging: paging}
}

// CreateAttribute handles attribute creation
// POST /api/v1/attributes
func (h *AttributeHandler) CreateAttribute(c *fiber.Ctx) error {
	var req service.CreateAttributeRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	attribute, err := h.service.Create(c.UserContext(), &req, getUserID(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Attribute created successfully",
		"data":    attribute,
	})
}

// GetAttributes lists attributes, optionally only those of one category
// GET /api/v1/attributes?category=&page=&itemsPerPage=
func (h *AttributeHandler) GetAttributes(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), service.AttributeQuery{
		Category:   c.Query("category"),
		Pagination: parsePagination(c, h.paging),
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GET /api/v1/attributes/:id
func (h *AttributeHandler) GetAttribute(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	attribute, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(attribute)
}

// PATCH /api/v1/attributes/:id
func (h *AttributeHandler) UpdateAttribute(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req service.UpdateAttributeRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	attribute, err := h.service.Update(c.UserContext(), id, &req, getUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Attribute updated successfully",
		"data":    attribute,
	})
}

// DELETE /api/v1/attributes/:id
func (h *AttributeHandler) DeleteAttribute(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), id, getUserID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

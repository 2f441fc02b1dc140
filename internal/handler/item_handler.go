package handler

import (
	"go-catalog-api/internal/service"
	"go-catalog-api/pkg/config"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ItemHandler struct {
	service service.ItemService
	paging  config.CatalogConfig
}

func NewItemHandler(s service.ItemService, paging config.CatalogConfig) *ItemHandler {
	return &ItemHandler{service: s, paging: paging}
}

// UpdateAttributeValueRequest is the body of PATCH /items/:id/attribute
type UpdateAttributeValueRequest struct {
	AttributeID string  `json:"attributeId"`
	Value       *string `json:"value"`
}

// POST /api/v1/items
func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	var req service.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	item, err := h.service.Create(c.UserContext(), &req, getUserID(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Item created successfully",
		"data":    item,
	})
}

// GetItems filters items
// GET /api/v1/items?category=&subCategory=&status=&name=&attribute[<name>]=<value>&page=&itemsPerPage=
func (h *ItemHandler) GetItems(c *fiber.Ctx) error {
	page, err := h.service.FindWithFilters(c.UserContext(), service.ItemQuery{
		Category:    c.Query("category"),
		SubCategory: c.Query("subCategory"),
		Status:      c.Query("status"),
		Name:        c.Query("name"),
		Attributes:  parseAttributeFilters(c),
		Pagination:  parsePagination(c, h.paging),
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GET /api/v1/items/:id
func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	item, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// PATCH /api/v1/items/:id
func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req service.UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	item, err := h.service.Update(c.UserContext(), id, &req, getUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Item updated successfully",
		"data":    item,
	})
}

// UpdateAttributeValue overwrites one attribute value of an item
// PATCH /api/v1/items/:id/attribute
func (h *ItemHandler) UpdateAttributeValue(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateAttributeValueRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	attributeID, err := uuid.Parse(req.AttributeID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid attributeId"})
	}

	item, err := h.service.UpdateAttributeValue(c.UserContext(), id, attributeID, req.Value, getUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Item attribute updated successfully",
		"data":    item,
	})
}

// DELETE /api/v1/items/:id
func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), id, getUserID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package handler

import (
	"errors"
	"strings"

	"go-catalog-api/internal/middleware"
	"go-catalog-api/internal/model"
	"go-catalog-api/internal/service"
	"go-catalog-api/pkg/config"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Helper to read the user id set by RequireAuth
func getUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return "system"
	}
	return userID
}

func getUserRole(c *fiber.Ctx) model.Role {
	role, _ := c.Locals(middleware.LocalUserRole).(model.Role)
	return role
}

// parseID reads the uuid path parameter name.
func parseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// parsePagination reads page and itemsPerPage, falling back to defaults on bad input.
func parsePagination(c *fiber.Ctx, cfg config.CatalogConfig) model.Pagination {
	return model.NewPagination(
		c.QueryInt("page", 1),
		c.QueryInt("itemsPerPage", cfg.DefaultPageSize),
		cfg.DefaultPageSize,
		cfg.MaxPageSize,
	)
}

// parseAttributeFilters collects attribute[<name-or-id>]=<value> query parameters.
func parseAttributeFilters(c *fiber.Ctx) map[string]string {
	var filters map[string]string
	for key, value := range c.Queries() {
		if !strings.HasPrefix(key, "attribute[") || !strings.HasSuffix(key, "]") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, "attribute["), "]")
		if name == "" {
			continue
		}
		if filters == nil {
			filters = make(map[string]string)
		}
		filters[name] = value
	}
	return filters
}

func badJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
}

// NewErrorHandler maps service errors to status codes. Unexpected errors are
// logged and reported without detail.
func NewErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			status, message = fe.Code, fe.Message
		case errors.Is(err, service.ErrNotFound):
			status, message = fiber.StatusNotFound, err.Error()
		case errors.Is(err, service.ErrInvalidReference), errors.Is(err, service.ErrValidation):
			status, message = fiber.StatusBadRequest, err.Error()
		case errors.Is(err, service.ErrEmailExists):
			status, message = fiber.StatusConflict, err.Error()
		case errors.Is(err, service.ErrInvalidCredentials):
			status, message = fiber.StatusUnauthorized, err.Error()
		default:
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return c.Status(status).JSON(fiber.Map{"error": message})
	}
}

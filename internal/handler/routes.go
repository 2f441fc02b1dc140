package handler

import (
	"go-catalog-api/internal/middleware"
	"go-catalog-api/internal/model"
	"go-catalog-api/internal/service"
	"go-catalog-api/internal/ws"
	"go-catalog-api/pkg/config"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type Services struct {
	Auth      service.AuthService
	User      service.UserService
	Attribute service.AttributeService
	Category  service.CategoryService
	Item      service.ItemService
	Dashboard service.DashboardService
}

type Options struct {
	Catalog config.CatalogConfig
	// AccessLog enables fiber's request logger.
	AccessLog bool
	// Hub serves /ws when set.
	Hub *ws.Hub
}

// NewApp builds the fiber app with middleware and every route mounted.
func NewApp(svc Services, opts Options, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Catalog API v1.0",
		ErrorHandler: NewErrorHandler(log),
	})

	// Middleware
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())
	app.Use(cors.New())

	authHandler := NewAuthHandler(svc.Auth, svc.User)
	userHandler := NewUserHandler(svc.User, opts.Catalog)
	attributeHandler := NewAttributeHandler(svc.Attribute, opts.Catalog)
	categoryHandler := NewCategoryHandler(svc.Category, opts.Catalog)
	itemHandler := NewItemHandler(svc.Item, opts.Catalog)
	dashHandler := NewDashboardHandler(svc.Dashboard)

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(svc.Auth))
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	protected.Get("/auth/me", authHandler.Me)
	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)

	// Attribute Routes
	protected.Post("/attributes", attributeHandler.CreateAttribute)
	protected.Get("/attributes", attributeHandler.GetAttributes)
	protected.Get("/attributes/:id", attributeHandler.GetAttribute)
	protected.Patch("/attributes/:id", attributeHandler.UpdateAttribute)
	protected.Delete("/attributes/:id", adminOnly, attributeHandler.DeleteAttribute)

	// Category Routes
	protected.Post("/categories", categoryHandler.CreateCategory)
	protected.Get("/categories", categoryHandler.GetCategories)
	protected.Get("/categories/:id", categoryHandler.GetCategory)
	protected.Patch("/categories/:id", categoryHandler.UpdateCategory)
	protected.Delete("/categories/:id", adminOnly, categoryHandler.DeleteCategory)

	// Item Routes
	protected.Post("/items", itemHandler.CreateItem)
	protected.Get("/items", itemHandler.GetItems)
	protected.Get("/items/:id", itemHandler.GetItem)
	protected.Patch("/items/:id", itemHandler.UpdateItem)
	protected.Patch("/items/:id/attribute", itemHandler.UpdateAttributeValue)
	protected.Delete("/items/:id", adminOnly, itemHandler.DeleteItem)

	// User Management Routes
	protected.Get("/users", userHandler.GetUsers)
	protected.Get("/users/:id", userHandler.GetUser)
	protected.Post("/users", adminOnly, userHandler.CreateUser)
	protected.Put("/users/:id", userHandler.UpdateUser)
	protected.Post("/users/:id/change-password", userHandler.ChangePassword)
	protected.Delete("/users/:id", adminOnly, userHandler.DeleteUser)

	// WebSocket Route
	if hub := opts.Hub; hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return c.SendStatus(fiber.StatusUpgradeRequired)
		})
		app.Get("/ws", websocket.New(func(c *websocket.Conn) {
			hub.Register(c)
			defer hub.Unregister(c)

			for {
				// Keep alive loop
				if _, _, err := c.ReadMessage(); err != nil {
					break
				}
			}
		}))
	}

	return app
}

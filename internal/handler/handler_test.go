package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"
	"go-catalog-api/internal/service"
	"go-catalog-api/pkg/config"
	"go-catalog-api/pkg/database/databasetest"
	"go-catalog-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin123"
)

type testServer struct {
	app   *fiber.App
	users service.UserService
	token string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	db := databasetest.NewTestDB(t)
	log := zaptest.NewLogger(t)

	attributeRepo := repository.NewAttributeRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	itemRepo := repository.NewItemRepo(db)
	userRepo := repository.NewUserRepo(db)

	integrity := service.NewIntegrityCoordinator(db, attributeRepo, categoryRepo, itemRepo, config.OrphanPolicyOther, log)
	resolver := service.NewFilterResolver(categoryRepo, attributeRepo, itemRepo)
	events := service.NopPublisher

	svc := Services{
		Auth:      service.NewAuthService(userRepo, jwt.NewManager("test-secret", time.Hour)),
		User:      service.NewUserService(userRepo, log),
		Attribute: service.NewAttributeService(attributeRepo, categoryRepo, integrity, events, log),
		Category:  service.NewCategoryService(db, categoryRepo, attributeRepo, itemRepo, integrity, events, log),
		Item:      service.NewItemService(db, itemRepo, categoryRepo, attributeRepo, resolver, events, log),
		Dashboard: service.NewDashboardService(categoryRepo, attributeRepo, itemRepo),
	}
	_, err := svc.User.EnsureAdmin(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	s := &testServer{
		app: NewApp(svc, Options{
			Catalog: config.CatalogConfig{DefaultPageSize: 10, MaxPageSize: 50},
		}, log),
		users: svc.User,
	}
	s.token = s.login(t, adminEmail, adminPassword)
	return s
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, resp, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func (s *testServer) do(t *testing.T, method, target, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) admin(t *testing.T, method, target string, body any) *http.Response {
	t.Helper()
	return s.do(t, method, target, s.token, body)
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func TestAuthRequired(t *testing.T) {
	s := setupTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/v1/attributes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/attributes", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": adminEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.admin(t, http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me model.User
	decode(t, resp, &me)
	assert.Equal(t, adminEmail, me.Email)
	assert.Equal(t, model.RoleAdmin, me.Role)
}

func TestStaffCannotDelete(t *testing.T) {
	s := setupTestServer(t)
	_, err := s.users.CreateUser(context.Background(), &service.CreateUserRequest{
		Email: "staff@example.com", Password: "staff123", FirstName: "S", LastName: "T",
	}, "system")
	require.NoError(t, err)
	staff := s.login(t, "staff@example.com", "staff123")

	resp := s.admin(t, http.MethodPost, "/api/v1/attributes", map[string]any{"name": "Color"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created envelope[model.Attribute]
	decode(t, resp, &created)

	resp = s.do(t, http.MethodDelete, "/api/v1/attributes/"+created.Data.ID.String(), staff, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/v1/users", staff, map[string]any{"email": "x@example.com"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAttributeEndpoints(t *testing.T) {
	s := setupTestServer(t)

	resp := s.admin(t, http.MethodPost, "/api/v1/attributes", map[string]any{"name": "Color", "options": []string{"Red", "Blue"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created envelope[model.Attribute]
	decode(t, resp, &created)
	assert.Equal(t, "Attribute created successfully", created.Message)
	assert.Equal(t, []string{"Red", "Blue"}, []string(created.Data.Options))

	id := created.Data.ID.String()

	resp = s.admin(t, http.MethodGet, "/api/v1/attributes/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.Attribute
	decode(t, resp, &got)
	assert.Equal(t, "Color", got.Name)

	resp = s.admin(t, http.MethodPatch, "/api/v1/attributes/"+id, map[string]any{"name": "Colour"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.admin(t, http.MethodGet, "/api/v1/attributes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page model.Page[model.Attribute]
	decode(t, resp, &page)
	assert.EqualValues(t, 1, page.TotalItems)
	assert.Equal(t, "Colour", page.Data[0].Name)

	resp = s.admin(t, http.MethodPost, "/api/v1/attributes", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/v1/attributes", s.token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.admin(t, http.MethodGet, "/api/v1/attributes/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.admin(t, http.MethodDelete, "/api/v1/attributes/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.admin(t, http.MethodGet, "/api/v1/attributes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errBody map[string]string
	decode(t, resp, &errBody)
	assert.Contains(t, errBody["error"], "not found")
}

func TestCategoryEndpoints(t *testing.T) {
	s := setupTestServer(t)

	resp := s.admin(t, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Furniture"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var root envelope[model.Category]
	decode(t, resp, &root)

	resp = s.admin(t, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Chairs", "parent": root.Data.ID.String()})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.admin(t, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Bad", "parent": "missing"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.admin(t, http.MethodGet, "/api/v1/categories?subCategory=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var subs model.Page[model.Category]
	decode(t, resp, &subs)
	require.Len(t, subs.Data, 1)
	assert.Equal(t, "Chairs", subs.Data[0].Name)

	resp = s.admin(t, http.MethodGet, "/api/v1/categories/"+root.Data.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.Category
	decode(t, resp, &got)
	require.NotNil(t, got.SubCategoryCount)
	assert.EqualValues(t, 1, *got.SubCategoryCount)

	resp = s.admin(t, http.MethodDelete, "/api/v1/categories/"+root.Data.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.admin(t, http.MethodDelete, "/api/v1/categories/"+root.Data.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestItemEndpoints(t *testing.T) {
	s := setupTestServer(t)

	resp := s.admin(t, http.MethodPost, "/api/v1/attributes", map[string]any{"name": "Color"})
	var color envelope[model.Attribute]
	decode(t, resp, &color)
	resp = s.admin(t, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Chairs"})
	var chairs envelope[model.Category]
	decode(t, resp, &chairs)

	for _, name := range []string{"Red chair", "Blue chair"} {
		value := "Red"
		if name == "Blue chair" {
			value = "Blue"
		}
		resp = s.admin(t, http.MethodPost, "/api/v1/items", map[string]any{
			"name":       name,
			"category":   chairs.Data.ID.String(),
			"attributes": []map[string]any{{"attributeId": color.Data.ID.String(), "value": value}},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp = s.admin(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Lost", "category": "00000000-0000-0000-0000-000000000001"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.admin(t, http.MethodGet, "/api/v1/items?attribute%5BColor%5D=Red", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page model.Page[model.Item]
	decode(t, resp, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Red chair", page.Data[0].Name)
	assert.Equal(t, 1, page.CurrentPage)

	resp = s.admin(t, http.MethodGet, "/api/v1/items?category=NoSuchName", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var empty map[string]any
	decode(t, resp, &empty)
	assert.Equal(t, []any{}, empty["data"])
	assert.EqualValues(t, 0, empty["totalItems"])
	assert.EqualValues(t, 0, empty["totalPages"])

	resp = s.admin(t, http.MethodGet, "/api/v1/items?itemsPerPage=1&page=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &page)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)

	resp = s.admin(t, http.MethodGet, "/api/v1/items?name=chair", nil)
	decode(t, resp, &page)
	item := page.Data[0]

	resp = s.admin(t, http.MethodPatch, "/api/v1/items/"+item.ID.String()+"/attribute", map[string]any{
		"attributeId": color.Data.ID.String(),
		"value":       "Green",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated envelope[model.Item]
	decode(t, resp, &updated)
	require.Len(t, updated.Data.Attributes, 1)
	assert.Equal(t, "Green", *updated.Data.Attributes[0].Value)

	resp = s.admin(t, http.MethodPatch, "/api/v1/items/"+item.ID.String()+"/attribute", map[string]any{"attributeId": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.admin(t, http.MethodDelete, "/api/v1/items/"+item.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = s.admin(t, http.MethodGet, "/api/v1/items/"+item.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserEndpoints(t *testing.T) {
	s := setupTestServer(t)

	resp := s.admin(t, http.MethodPost, "/api/v1/users", map[string]any{
		"email": "staff@example.com", "password": "staff123", "firstName": "S", "lastName": "T",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var staff envelope[model.User]
	decode(t, resp, &staff)
	assert.Equal(t, model.RoleStaff, staff.Data.Role)

	resp = s.admin(t, http.MethodPost, "/api/v1/users", map[string]any{
		"email": "STAFF@example.com", "password": "staff123", "firstName": "S", "lastName": "T",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	staffToken := s.login(t, "staff@example.com", "staff123")
	staffID := staff.Data.ID.String()

	resp = s.do(t, http.MethodPut, "/api/v1/users/"+staffID, staffToken, map[string]any{"firstName": "Sam", "role": "ADMIN"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var self envelope[model.User]
	decode(t, resp, &self)
	assert.Equal(t, "Sam", self.Data.FirstName)
	assert.Equal(t, model.RoleStaff, self.Data.Role, "staff cannot promote themselves")

	resp = s.admin(t, http.MethodGet, "/api/v1/auth/me", nil)
	var me model.User
	decode(t, resp, &me)

	resp = s.do(t, http.MethodPut, "/api/v1/users/"+me.ID.String(), staffToken, map[string]any{"firstName": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/v1/users/"+staffID+"/change-password", staffToken,
		map[string]any{"oldPassword": "wrong", "newPassword": "newpass1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/v1/users/"+staffID+"/change-password", staffToken,
		map[string]any{"oldPassword": "staff123", "newPassword": "newpass1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	s.login(t, "staff@example.com", "newpass1")

	resp = s.admin(t, http.MethodDelete, "/api/v1/users/"+me.ID.String(), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.admin(t, http.MethodDelete, "/api/v1/users/"+staffID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/auth/me", staffToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "token of a deleted user")
}

func TestDashboardEndpoint(t *testing.T) {
	s := setupTestServer(t)

	resp := s.admin(t, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Chairs"})
	var chairs envelope[model.Category]
	decode(t, resp, &chairs)
	s.admin(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Chair", "category": chairs.Data.ID.String()})

	resp = s.admin(t, http.MethodGet, "/api/v1/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats service.DashboardStats
	decode(t, resp, &stats)
	assert.EqualValues(t, 1, stats.Categories)
	assert.EqualValues(t, 1, stats.Items)
	assert.EqualValues(t, 1, stats.ItemsByStatus[model.StatusInWarehouse])
}

func TestParseAttributeFilters(t *testing.T) {
	app := fiber.New()
	var got map[string]string
	app.Get("/", func(c *fiber.Ctx) error {
		got = parseAttributeFilters(c)
		return nil
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/?attribute%5BColor%5D=Red&attribute%5B%5D=x&attr=1&attribute%5BSize%5D=L", nil))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Color": "Red", "Size": "L"}, got)
}

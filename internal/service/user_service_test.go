package service

import (
	"testing"
	"time"

	"go-catalog-api/internal/model"
	"go-catalog-api/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) user(t *testing.T, email, first string, role model.Role) *model.User {
	t.Helper()
	u, err := e.users.CreateUser(e.ctx, &CreateUserRequest{
		Email:     email,
		Password:  "secret123",
		FirstName: first,
		LastName:  "Tester",
		Role:      role,
	}, actor)
	require.NoError(t, err)
	return u
}

func TestUserCreate(t *testing.T) {
	env := newDefaultEnv(t)

	u := env.user(t, "ana@example.com", "Ana", "")
	assert.Equal(t, model.RoleStaff, u.Role)
	assert.NotEqual(t, "secret123", u.Password)
	assert.True(t, u.CheckPassword("secret123"))

	_, err := env.users.CreateUser(env.ctx, &CreateUserRequest{
		Email: "ANA@example.com", Password: "secret123", FirstName: "A", LastName: "B",
	}, actor)
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = env.users.CreateUser(env.ctx, &CreateUserRequest{
		Email: "short@example.com", Password: "123", FirstName: "A", LastName: "B",
	}, actor)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserUpdate_KeepsPassword(t *testing.T) {
	env := newDefaultEnv(t)
	u := env.user(t, "ana@example.com", "Ana", model.RoleStaff)
	other := env.user(t, "bob@example.com", "Bob", model.RoleStaff)

	role := model.RoleAdmin
	got, err := env.users.UpdateUser(env.ctx, u.ID, &UpdateUserRequest{FirstName: strPtr("Anna"), Role: &role}, actor)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.FirstName)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.True(t, got.CheckPassword("secret123"))

	_, err = env.users.UpdateUser(env.ctx, u.ID, &UpdateUserRequest{Email: strPtr(other.Email)}, actor)
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = env.users.UpdateUser(env.ctx, uuid.New(), &UpdateUserRequest{FirstName: strPtr("x")}, actor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserChangePassword(t *testing.T) {
	env := newDefaultEnv(t)
	u := env.user(t, "ana@example.com", "Ana", model.RoleStaff)

	err := env.users.ChangePassword(env.ctx, u.ID, &ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newsecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.users.ChangePassword(env.ctx, u.ID, &ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret"}))

	got, err := env.users.GetUserByID(env.ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.CheckPassword("newsecret"))
	assert.False(t, got.CheckPassword("secret123"))
}

func TestUserList(t *testing.T) {
	env := newDefaultEnv(t)
	env.user(t, "ana@example.com", "Ana", model.RoleAdmin)
	env.user(t, "bob@example.com", "Bob", model.RoleStaff)
	env.user(t, "cleo@corp.test", "Cleo", model.RoleStaff)

	page, err := env.users.ListUsers(env.ctx, UserQuery{Search: "EXAMPLE"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalItems)

	page, err = env.users.ListUsers(env.ctx, UserQuery{Role: model.RoleStaff})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalItems)

	page, err = env.users.ListUsers(env.ctx, UserQuery{Search: "cleo", Role: model.RoleStaff})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Cleo", page.Data[0].FirstName)
}

func TestUserDelete(t *testing.T) {
	env := newDefaultEnv(t)
	u := env.user(t, "ana@example.com", "Ana", model.RoleStaff)

	require.NoError(t, env.users.DeleteUser(env.ctx, u.ID))
	assert.ErrorIs(t, env.users.DeleteUser(env.ctx, u.ID), ErrNotFound)

	_, err := env.users.GetUserByID(env.ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserEnsureAdmin(t *testing.T) {
	env := newDefaultEnv(t)

	created, err := env.users.EnsureAdmin(env.ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.users.EnsureAdmin(env.ctx, "admin@example.com", "other123")
	require.NoError(t, err)
	assert.False(t, created)

	page, err := env.users.ListUsers(env.ctx, UserQuery{Role: model.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.True(t, page.Data[0].CheckPassword("admin123"))
}

func TestAuth(t *testing.T) {
	env := newDefaultEnv(t)
	u := env.user(t, "ana@example.com", "Ana", model.RoleStaff)
	auth := NewAuthService(env.userRepo, jwt.NewManager("test-secret", time.Hour))

	resp, err := auth.Login(env.ctx, &LoginRequest{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, u.ID, resp.User.ID)

	me, err := auth.Authenticate(env.ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	_, err = auth.Login(env.ctx, &LoginRequest{Email: "ana@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(env.ctx, &LoginRequest{Email: "ghost@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Authenticate(env.ctx, "garbage")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)

	require.NoError(t, env.users.DeleteUser(env.ctx, u.ID))
	_, err = auth.Authenticate(env.ctx, resp.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestDashboardStats(t *testing.T) {
	env := newDefaultEnv(t)
	color := env.attribute(t, "Color")
	env.attribute(t, "Size")
	chairs := env.category(t, "Chairs", nil, color)
	env.category(t, "Stools", chairs)
	env.item(t, "Chair", chairs)
	stool := env.item(t, "Stool", chairs)

	unknown := model.StatusUnknown
	_, err := env.items.Update(env.ctx, stool.ID, &UpdateItemRequest{Status: &unknown}, actor)
	require.NoError(t, err)

	stats, err := env.dashboard.GetDashboardStats(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, &DashboardStats{
		Categories: 2,
		Attributes: 2,
		Items:      2,
		ItemsByStatus: map[model.ItemStatus]int64{
			model.StatusInWarehouse:    1,
			model.StatusOutOfWarehouse: 0,
			model.StatusUnknown:        1,
		},
	}, stats)
}

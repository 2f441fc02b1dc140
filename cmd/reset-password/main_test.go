package main

import (
	"bytes"
	"context"
	"testing"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"
	"go-catalog-api/pkg/database/databasetest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	users := repository.NewUserRepo(databasetest.NewTestDB(t))

	user := &model.User{Email: "ops@example.com", FirstName: "Ops", LastName: "User", Role: model.RoleAdmin}
	require.NoError(t, user.SetPassword("before1"))
	require.NoError(t, users.Create(ctx, user))

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, resetPassword(ctx, users, "OPS@example.com", "after12", cmd))
	assert.Contains(t, out.String(), "ops@example.com")

	stored, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.CheckPassword("after12"))
	assert.False(t, stored.CheckPassword("before1"))
}

func TestResetPassword_UnknownUser(t *testing.T) {
	users := repository.NewUserRepo(databasetest.NewTestDB(t))

	err := resetPassword(context.Background(), users, "nobody@example.com", "whatever", &cobra.Command{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRootCmd_RejectsShortPassword(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--email", "a@b.c", "--password", "123"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 6")
}

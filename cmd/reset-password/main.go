package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"
	"go-catalog-api/pkg/config"
	"go-catalog-api/pkg/database"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Reset a user's password directly in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(password) < 6 {
				return errors.New("password must be at least 6 characters")
			}

			// 1. Load Env
			if err := godotenv.Load(); err != nil {
				log.Println("Warning: .env file not found, relying on system env")
			}
			cfg := config.LoadEnv()

			// 2. Setup Database
			db, err := database.ConnectDB(cfg.Database)
			if err != nil {
				return err
			}
			return resetPassword(cmd.Context(), repository.NewUserRepo(db), email, password, cmd)
		},
	}

	cmd.Flags().StringVar(&email, "email", "admin@example.com", "email of the user to update")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func resetPassword(ctx context.Context, users repository.UserRepository, email, password string, cmd *cobra.Command) error {
	user, err := users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("user %s not found", email)
	}
	if err != nil {
		return err
	}

	var hashed model.User
	if err := hashed.SetPassword(password); err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if _, err := users.UpdatePassword(ctx, user.ID, hashed.Password); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	cmd.Printf("Password for %s has been reset\n", user.Email)
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/posturehq/auth-service/internal/adapters/postgres"
	"github.com/posturehq/auth-service/internal/adapters/security"
	"github.com/posturehq/auth-service/internal/app/bootstrap"
	"github.com/posturehq/auth-service/internal/domain"
	"github.com/posturehq/auth-service/internal/ports"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "userctl",
		Short:         "Operator utility for managing local accounts and sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newCreateUserCommand())
	cmd.AddCommand(newRevokeSessionsCommand())
	return cmd
}

func newCreateUserCommand() *cobra.Command {
	var (
		configPath string
		email      string
		password   string
		firstName  string
		lastName   string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a local account with a password credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := domain.ValidatePassword(password); err != nil {
				return err
			}

			repos, cleanup, cfg, err := openRepositories(ctx, configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			hasher := security.NewArgon2Hasher(security.Argon2Params{
				MemoryKiB:   cfg.Argon2MemoryKiB,
				Iterations:  cfg.Argon2Iterations,
				Parallelism: cfg.Argon2Parallelism,
			})
			hash, err := hasher.Hash(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			user, err := repos.Users.Create(ctx, ports.CreateUserParams{
				Email:        strings.ToLower(strings.TrimSpace(email)),
				PasswordHash: hash,
				FirstName:    firstName,
				LastName:     lastName,
				Status:       domain.UserStatusActive,
				CreatedAt:    time.Now().UTC(),
			})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Email, user.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "configs/default.yaml", "Path to the service config file")
	cmd.Flags().StringVar(&email, "email", "", "Email address for the new account")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRevokeSessionsCommand() *cobra.Command {
	var (
		configPath string
		userID     string
	)

	cmd := &cobra.Command{
		Use:   "revoke-sessions",
		Short: "Force-delete every session a user holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("parse user id: %w", err)
			}

			repos, cleanup, _, err := openRepositories(ctx, configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := repos.Sessions.DeleteByUser(ctx, id); err != nil {
				return fmt.Errorf("delete sessions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked sessions for user %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "configs/default.yaml", "Path to the service config file")
	cmd.Flags().StringVar(&userID, "user-id", "", "User whose sessions should be revoked")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func openRepositories(ctx context.Context, configPath string) (postgres.Repositories, func(), bootstrap.Config, error) {
	cfg, err := bootstrap.LoadConfig(configPath)
	if err != nil {
		return postgres.Repositories{}, nil, bootstrap.Config{}, err
	}
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return postgres.Repositories{}, nil, bootstrap.Config{}, err
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return postgres.Repositories{}, nil, bootstrap.Config{}, err
	}
	cleanup := func() { _ = sqlDB.Close() }
	return postgres.NewRepositories(pool), cleanup, cfg, nil
}

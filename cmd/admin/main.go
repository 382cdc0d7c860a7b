// Command admin holds operator tasks that cannot go through the API, such as
// promoting the first administrator.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"inkwell/internal/repository"
	"inkwell/pkg/config"
	"inkwell/pkg/database"
	"inkwell/pkg/logger"
	"inkwell/pkg/models"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "inkwell-admin",
	Short:        "Inkwell operator commands",
	SilenceUsage: true,
}

var grantCmd = &cobra.Command{
	Use:   "grant <username> <role>",
	Short: "Set the role of a user (user, author, moderator, admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, role := args[0], strings.ToLower(args[1])
		if !models.IsValidRole(role) {
			return fmt.Errorf("unknown role %q", role)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger.Init(cfg.Logging)

		pool, err := database.NewPGXPool(cfg.Database.Options())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		ctx := cmd.Context()
		users := repository.NewUserRepository(pool)
		user, err := users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if err := users.UpdateRole(ctx, user.ID, models.UserRole(role)); err != nil {
			return err
		}

		logger.WithFields(map[string]interface{}{
			"user_id":  user.ID,
			"username": user.Username,
			"from":     user.Role,
			"to":       role,
		}).Info("role changed")
		fmt.Printf("✓ %s is now %s (was %s)\n", user.Username, role, user.Role)
		return nil
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print the bcrypt hash of a password, for seeding users by hand",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(os.Stderr, "Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		fmt.Println(string(hash))
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "server config file (default $INKWELL_CONFIG or "+config.DefaultPath+")")
	rootCmd.AddCommand(grantCmd, hashCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"inkwell/internal/cli/session"
	"inkwell/pkg/models"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	Long:  "Create a new Inkwell account with username, email, and password, then log in with it",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		displayName, _ := cmd.Flags().GetString("display-name")

		req := models.RegisterRequest{
			Username:    prompt("Username", username),
			Email:       prompt("Email", email),
			DisplayName: displayName,
		}
		password, err := readPassword("Password")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}
		req.Password = password

		if err := models.ValidateRegisterRequest(&req); err != nil {
			return err
		}

		resp, err := session.Client().Register(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		if _, err := session.SaveLogin(resp); err != nil {
			return err
		}

		fmt.Println("✓ Account created successfully!")
		fmt.Printf("  Username: %s\n", resp.User.Username)
		fmt.Printf("  Email: %s\n", req.Email)
		fmt.Println("\nYou are logged in. Try: inkwell posts list")
		return nil
	},
}

func init() {
	registerCmd.Flags().String("username", "", "Username")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("display-name", "", "Name shown next to your posts and comments")
	AuthCmd.AddCommand(registerCmd)
}

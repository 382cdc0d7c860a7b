package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"inkwell/internal/cli/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to Inkwell",
	Long:  "Authenticate with your username and password; the token is saved for later commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		username = prompt("Username", username)

		password, err := readPassword("Password")
		if err != nil {
			return err
		}

		resp, err := session.Client().Login(cmd.Context(), username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		path, err := session.SaveLogin(resp)
		if err != nil {
			return err
		}

		fmt.Println("✓ Login successful!")
		fmt.Printf("  Welcome back, %s!\n", resp.User.Username)
		fmt.Printf("  Token saved to: %s\n", path)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := session.Logout(); err != nil {
			return err
		}
		fmt.Println("✓ Logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("username", "", "Username")
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(logoutCmd)
}

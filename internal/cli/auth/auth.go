package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Register, login, and manage authentication",
}

// prompt reads a line from stdin when value is empty
func prompt(label, value string) string {
	if value != "" {
		return value
	}
	fmt.Print(label + ": ")
	fmt.Scanln(&value)
	return strings.TrimSpace(value)
}

func readPassword(label string) (string, error) {
	fmt.Print(label + ": ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

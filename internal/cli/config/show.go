package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"inkwell/internal/cli/session"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display current Inkwell CLI configuration and connection settings",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Inkwell Configuration:")
		if file := viper.ConfigFileUsed(); file != "" {
			fmt.Printf("  File: %s\n", file)
		}
		fmt.Println("")
		fmt.Printf("Server:\n")
		fmt.Printf("  URL: %s\n", viper.GetString("server.url"))
		fmt.Println("")

		policy := session.Policy()
		fmt.Printf("Thread display:\n")
		fmt.Printf("  Initial replies: %d\n", policy.InitialReplies)
		fmt.Printf("  Deep replies: %d (from level %d)\n", policy.DeepReplies, policy.DeepLevel)
		fmt.Printf("  Max depth: %d\n", policy.MaxDepth)
		fmt.Printf("  Page size: %d\n", policy.PageSize)
		fmt.Println("")

		username := viper.GetString("user.username")
		token := viper.GetString("user.token")

		if username != "" {
			fmt.Printf("User:\n")
			fmt.Printf("  Username: %s\n", username)
			if token != "" {
				if len(token) > 20 {
					fmt.Printf("  Token: %s...\n", token[:20])
				} else {
					fmt.Printf("  Token: %s\n", token)
				}
				fmt.Printf("  Status: ✓ Logged in\n")
			} else {
				fmt.Printf("  Status: ✗ Not logged in\n")
			}
		} else {
			fmt.Printf("User: Not logged in\n")
			fmt.Printf("  Run 'inkwell auth login' to authenticate\n")
		}
	},
}

func init() {
	ConfigCmd.AddCommand(showCmd)
}

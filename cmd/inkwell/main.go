package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"inkwell/internal/cli/auth"
	"inkwell/internal/cli/comments"
	"inkwell/internal/cli/config"
	"inkwell/internal/cli/posts"
	"inkwell/internal/cli/session"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "inkwell",
	Short:         "Inkwell command line client",
	Long:          "Read posts and follow their comment threads from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return session.Init(configFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $HOME/.inkwell/config.yaml)")

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(config.ConfigCmd)
	rootCmd.AddCommand(posts.PostsCmd)
	rootCmd.AddCommand(comments.CommentsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

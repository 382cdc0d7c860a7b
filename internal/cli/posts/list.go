package posts

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"inkwell/internal/cli/output"
	"inkwell/internal/cli/session"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts",
	Long:  "List published posts, newest first, optionally within a category",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.Format(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		category, _ := cmd.Flags().GetString("category")

		page, err := session.Client().ListPosts(cmd.Context(), category, limit, offset)
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}

		return output.Write(cmd.OutOrStdout(), format, page, func(w io.Writer) error {
			fmt.Fprintf(w, "\n%d posts:\n\n", page.Meta.Total)
			for i, p := range page.Data {
				writePost(w, offset+i+1, p)
			}
			writeMore(w, page.Meta)
			return nil
		})
	},
}

func init() {
	listCmd.Flags().Int("limit", 10, "Number of posts")
	listCmd.Flags().Int("offset", 0, "Number of posts to skip")
	listCmd.Flags().String("category", "", "Only posts in this category (slug)")
	output.AddFlag(listCmd)
	PostsCmd.AddCommand(listCmd)
}

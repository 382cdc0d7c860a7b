package posts

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"inkwell/internal/cli/output"
	"inkwell/internal/cli/session"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for posts",
	Long:  "Full-text search over the titles and bodies of published posts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.Format(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		query := strings.Join(args, " ")

		page, err := session.Client().SearchPosts(cmd.Context(), query, limit, offset)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		return output.Write(cmd.OutOrStdout(), format, page, func(w io.Writer) error {
			fmt.Fprintf(w, "\nFound %d results:\n\n", page.Meta.Total)
			for i, r := range page.Data {
				writePost(w, offset+i+1, r.PostWithAuthor)
			}
			writeMore(w, page.Meta)
			return nil
		})
	},
}

func init() {
	searchCmd.Flags().Int("limit", 10, "Number of results")
	searchCmd.Flags().Int("offset", 0, "Number of results to skip")
	output.AddFlag(searchCmd)
	PostsCmd.AddCommand(searchCmd)
}

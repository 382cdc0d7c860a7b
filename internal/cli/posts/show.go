package posts

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"inkwell/internal/cli/output"
	"inkwell/internal/cli/session"
)

var showCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Read a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.Format(cmd)
		if err != nil {
			return err
		}

		post, err := session.Client().GetPost(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get post: %w", err)
		}

		return output.Write(cmd.OutOrStdout(), format, post, func(w io.Writer) error {
			fmt.Fprintf(w, "\n%s\n", post.Title)
			fmt.Fprintf(w, "by %s", post.AuthorName)
			if post.PublishedAt != nil {
				fmt.Fprintf(w, " on %s", post.PublishedAt.Local().Format("January 2, 2006"))
			}
			fmt.Fprintf(w, "\n\n%s\n\n", post.Content)
			fmt.Fprintf(w, "♥ %d  💬 %d\n", post.LikesCount, post.CommentsCount)
			fmt.Fprintf(w, "Read the comments: inkwell comments thread %s\n", post.Slug)
			return nil
		})
	},
}

func init() {
	output.AddFlag(showCmd)
	PostsCmd.AddCommand(showCmd)
}

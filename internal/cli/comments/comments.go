package comments

import "github.com/spf13/cobra"

var CommentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Read and write comments",
	Long:  "Show the comment thread of a post, add comments and replies, or browse the thread interactively",
}

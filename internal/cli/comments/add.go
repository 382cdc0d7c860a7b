package comments

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"inkwell/internal/cli/session"
	"inkwell/pkg/utils"
)

var addCmd = &cobra.Command{
	Use:   "add <slug> [text...]",
	Short: "Comment on a post",
	Long:  "Add a comment to a post, or a reply with --reply-to. Without text arguments the comment is read from stdin.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := session.RequireLogin()
		if err != nil {
			return err
		}
		replyTo, _ := cmd.Flags().GetString("reply-to")
		if replyTo != "" && !utils.IsValidID(replyTo) {
			return fmt.Errorf("--reply-to %q is not a comment id", replyTo)
		}

		content := strings.Join(args[1:], " ")
		if content == "" {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read comment: %w", err)
			}
			content = string(raw)
		}
		content = strings.TrimSpace(content)
		if content == "" {
			return fmt.Errorf("comment is empty")
		}

		comment, err := c.AddComment(cmd.Context(), args[0], replyTo, content)
		if err != nil {
			return fmt.Errorf("failed to add comment: %w", err)
		}

		if comment.ParentID != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Reply %s added under %s\n", comment.ID, *comment.ParentID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Comment %s added\n", comment.ID)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().String("reply-to", "", "Id of the comment to reply to")
	CommentsCmd.AddCommand(addCmd)
}

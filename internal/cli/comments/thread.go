package comments

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"inkwell/internal/cli/output"
	"inkwell/internal/cli/session"
	"inkwell/pkg/thread"
)

var threadCmd = &cobra.Command{
	Use:   "thread <slug>",
	Short: "Show the comment thread of a post",
	Long: `Show the comments of a post as a reply tree.

By default the tree is disclosed the way the site shows it: a few replies per
comment, with hints for revealing more. --expand id:n reveals n more pages under
a comment, --all prints every comment and --flat prints the raw list.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.Format(cmd)
		if err != nil {
			return err
		}
		slug := args[0]
		flat, _ := cmd.Flags().GetBool("flat")
		all, _ := cmd.Flags().GetBool("all")
		rawExpand, _ := cmd.Flags().GetString("expand")
		if flat && all {
			return fmt.Errorf("--flat and --all cannot be combined")
		}

		c := session.Client()
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		switch {
		case flat:
			list, err := c.Comments(ctx, slug)
			if err != nil {
				return fmt.Errorf("failed to get comments: %w", err)
			}
			return output.Write(out, format, list, func(w io.Writer) error {
				fmt.Fprintf(w, "%d comments\n", list.Total)
				writeFlat(w, list.Comments)
				return nil
			})

		case all:
			snap, err := c.Thread(ctx, slug)
			if err != nil {
				return fmt.Errorf("failed to get comments: %w", err)
			}
			return output.Write(out, format, snap, func(w io.Writer) error {
				writeSummary(w, snap)
				writeTree(w, snap.Comments)
				return nil
			})

		default:
			expansions, err := thread.ParseExpansions(rawExpand)
			if err != nil {
				return err
			}
			snap, err := c.DisclosedThread(ctx, slug, expansions)
			if err != nil {
				return fmt.Errorf("failed to get comments: %w", err)
			}
			return output.Write(out, format, snap, func(w io.Writer) error {
				writeSummary(w, snap)
				writeViews(w, slug, snap.Views, expansions)
				return nil
			})
		}
	},
}

func writeSummary(w io.Writer, snap *thread.Snapshot) {
	if snap.Total == 0 {
		fmt.Fprintln(w, "No comments yet.")
		return
	}
	fmt.Fprintf(w, "%d comments, %d levels deep\n\n", snap.Total, snap.Depth)
}

func init() {
	threadCmd.Flags().Bool("flat", false, "Print the flat comment list")
	threadCmd.Flags().Bool("all", false, "Print every comment, ignoring the disclosure policy")
	threadCmd.Flags().String("expand", "", "Reveal more replies, e.g. c1:1,c7:2")
	output.AddFlag(threadCmd)
	CommentsCmd.AddCommand(threadCmd)
}

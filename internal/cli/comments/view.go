package comments

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"inkwell/internal/cli/session"
	"inkwell/internal/tui"
	"inkwell/pkg/thread"
)

var viewCmd = &cobra.Command{
	Use:   "view <slug>",
	Short: "Browse a thread interactively",
	Long:  "Open the terminal thread viewer. New comments appear as they are posted unless --no-live is given.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noLive, _ := cmd.Flags().GetBool("no-live")
		rawExpand, _ := cmd.Flags().GetString("expand")
		expansions, err := thread.ParseExpansions(rawExpand)
		if err != nil {
			return err
		}

		model := tui.New(session.Client(), args[0], tui.Options{
			Policy:     session.Policy(),
			Live:       !noLive,
			Expansions: expansions,
		})
		_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		return err
	},
}

func init() {
	viewCmd.Flags().Bool("no-live", false, "Do not follow new comments")
	viewCmd.Flags().String("expand", "", "Start with more replies revealed, e.g. c1:1")
	CommentsCmd.AddCommand(viewCmd)
}

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Dracula color palette
const (
	Background  = "#282a36"
	CurrentLine = "#44475a"
	Foreground  = "#f8f8f2"
	Comment     = "#6272a4"
	Cyan        = "#8be9fd"
	Green       = "#50fa7b"
	Orange      = "#ffb86c"
	Pink        = "#ff79c6"
	Purple      = "#bd93f9"
	Red         = "#ff5555"
	Yellow      = "#f1fa8c"
)

var (
	AppStyle = lipgloss.NewStyle().
			Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(Purple)).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Cyan))

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Foreground)).
			Background(lipgloss.Color(CurrentLine)).
			Padding(0, 1)

	StatusBarActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(Green)).
				Background(lipgloss.Color(CurrentLine)).
				Bold(true).
				Padding(0, 1)

	InputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(Purple)).
				Bold(true)

	// Thread rows
	RowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Foreground)).
			PaddingLeft(2)

	RowSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(Pink)).
				Background(lipgloss.Color(CurrentLine)).
				Bold(true).
				PaddingLeft(1).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(lipgloss.Color(Purple))

	AuthorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Cyan)).
			Bold(true)

	MetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Comment))

	MoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Orange)).
			Italic(true)

	HiddenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Comment)).
			Italic(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Cyan))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Green))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Red)).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Comment))

	DividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(CurrentLine))

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Purple))

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(Purple)).
			Padding(1, 2).
			MarginBottom(1)

	CardContentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(Foreground))
)

// guide colors cycle with reply depth
var guideColors = []string{Purple, Cyan, Green, Yellow, Orange, Pink}

// Guide renders the indentation in front of a row at level
func Guide(level int) string {
	var b strings.Builder
	for i := 0; i < level; i++ {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(guideColors[i%len(guideColors)])).
			Render("│ "))
	}
	return b.String()
}

// Truncate shortens s to maxLen runes, adding "..." when cut
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 3 || len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// RenderDivider draws a horizontal rule
func RenderDivider(width int) string {
	if width <= 0 {
		width = 40
	}
	return DividerStyle.Render(strings.Repeat("─", width))
}

package components

import (
	"inkwell/internal/tui/styles"
)

// ErrorView displays a failed load with a retry hint
type ErrorView struct {
	err     error
	message string
}

// NewErrorView creates a new error view
func NewErrorView(err error, message string) ErrorView {
	return ErrorView{
		err:     err,
		message: message,
	}
}

// HasError returns whether an error is present
func (e ErrorView) HasError() bool {
	return e.err != nil
}

// Clear clears the error
func (e *ErrorView) Clear() {
	e.err = nil
	e.message = ""
}

// View renders the error
func (e ErrorView) View() string {
	if !e.HasError() {
		return ""
	}

	return styles.CardStyle.Render(
		styles.ErrorStyle.Render("⚠ Error") + "\n\n" +
			styles.CardContentStyle.Render(e.message) + "\n" +
			styles.HelpStyle.Render(e.err.Error()) + "\n\n" +
			styles.HelpStyle.Render("Press R to retry or q to quit"),
	)
}

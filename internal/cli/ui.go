package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Color palette for terminal output.
var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#66bb6a"}
	colorError   = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#f57f17", Dark: "#ffca28"}
	colorInfo    = lipgloss.AdaptiveColor{Light: "#1565c0", Dark: "#42a5f5"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}
)

// Styles applied to CLI output.
var (
	StyleTitle   = lipgloss.NewStyle().Bold(true)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(colorError)
	StyleWarning = lipgloss.NewStyle().Foreground(colorWarning)
	StyleInfo    = lipgloss.NewStyle().Foreground(colorInfo)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
)

// printSuccess prints a success message with a checkmark icon.
func printSuccess(format string, args ...any) {
	fmt.Printf("%s %s\n", StyleSuccess.Render("✓"), fmt.Sprintf(format, args...))
}

// printError prints an error message with a cross icon.
func printError(format string, args ...any) {
	fmt.Printf("%s %s\n", StyleError.Render("✗"), fmt.Sprintf(format, args...))
}

// printWarning prints a warning message with an exclamation icon.
func printWarning(format string, args ...any) {
	fmt.Printf("%s %s\n", StyleWarning.Render("!"), fmt.Sprintf(format, args...))
}

// printInfo prints an informational message with a chevron icon.
func printInfo(format string, args ...any) {
	fmt.Printf("%s %s\n", StyleInfo.Render("›"), fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed detail line beneath a primary
// message.
func printDetail(format string, args ...any) {
	fmt.Printf("  %s\n", StyleDim.Render(fmt.Sprintf(format, args...)))
}

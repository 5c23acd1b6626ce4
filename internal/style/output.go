package style

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss/v2"
	"gopkg.in/yaml.v3"
)

var (
	// Color palette
	ErrorColor       = lipgloss.Color("#FF6B6B")
	ErrorBgColor     = lipgloss.Color("#3D2020")
	WarningColor     = lipgloss.Color("#FFA726")
	SuccessColor     = lipgloss.Color("#66BB6A")
	InfoColor        = lipgloss.Color("#42A5F5")
	MutedColor       = lipgloss.Color("#6C757D")
	AccentColor      = lipgloss.Color("#7C3AED")
	CodeColor        = lipgloss.Color("#D4D4D4")
	PrimaryTextColor = lipgloss.Color("#E4E4E7")

	// Base styles
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)
	AccentStyle  = lipgloss.NewStyle().Foreground(AccentColor)
	URLStyle     = lipgloss.NewStyle().Foreground(InfoColor)
)

// FormatURL renders an address the way links are shown in the terminal
func FormatURL(url string) string {
	return URLStyle.Render(url)
}

// PrintJSON outputs data as formatted JSON
func PrintJSON(w io.Writer, data any) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(w, "Error encoding JSON: %v\n", err)
	}
}

// PrintYAML outputs data as YAML
func PrintYAML(w io.Writer, data any) {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(w, "Error encoding YAML: %v\n", err)
	}
	encoder.Close()
}

// Print writes data in the requested output format, falling back to text
func Print(w io.Writer, format string, data any, text func(io.Writer)) {
	switch format {
	case "json":
		PrintJSON(w, data)
	case "yaml":
		PrintYAML(w, data)
	default:
		text(w)
	}
}

func SuccessIcon() string {
	return SuccessStyle.Render("✓")
}

// Success prints a success message with styling
func Success(w io.Writer, message string) {
	msg := lipgloss.NewStyle().Foreground(SuccessColor).Render(message)
	fmt.Fprintf(w, "%s %s\n", SuccessIcon(), msg)
}

func ErrorIcon() string {
	return ErrorStyle.Render("✗")
}

// Error prints an error message with styling
func Error(w io.Writer, message string) {
	msg := lipgloss.NewStyle().Foreground(ErrorColor).Render(message)
	fmt.Fprintf(w, "%s %s\n", ErrorIcon(), msg)
}

func WarningIcon() string {
	return WarningStyle.Render("⚠")
}

// Warning prints a warning message with styling
func Warning(w io.Writer, message string) {
	msg := lipgloss.NewStyle().Foreground(WarningColor).Render(message)
	fmt.Fprintf(w, "%s %s\n", WarningIcon(), msg)
}

func InfoIcon() string {
	return InfoStyle.Render("ℹ")
}

// Info prints an info message with styling
func Info(w io.Writer, message string) {
	msg := lipgloss.NewStyle().Foreground(InfoColor).Render(message)
	fmt.Fprintf(w, "%s %s\n", InfoIcon(), msg)
}

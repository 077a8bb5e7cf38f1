package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/greenpath/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen      = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow     = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleYellowBold = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleRed        = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue       = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple     = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim        = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg         = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader     = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold       = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StageStatusPill returns a colored indicator for a reconciled stage.
func StageStatusPill(s domain.StageStatus) string {
	switch s {
	case domain.StageDone:
		return StyleGreen.Render("✔ Done")
	case domain.StageInProgress:
		return StyleYellow.Render("● In Progress")
	case domain.StageNotStarted:
		return StyleDim.Render("○ Not Started")
	default:
		return StyleDim.Render(string(s))
	}
}

// MilestonePill returns a colored indicator for a tracked milestone.
func MilestonePill(s domain.MilestoneStatus) string {
	switch s {
	case domain.MilestoneApproved:
		return StyleGreen.Render("✔ Approved")
	case domain.MilestoneFiled:
		return StyleYellow.Render("● Filed")
	case domain.MilestoneDenied:
		return StyleRed.Render("✖ Denied")
	default:
		return StyleDim.Render("○ Not Started")
	}
}

// CaseStatusPill colors an agency lookup result.
func CaseStatusPill(s domain.CaseStatus) string {
	switch s {
	case domain.CaseStatusApproved:
		return StyleGreen.Render("✔ Approved")
	case domain.CaseStatusDenied:
		return StyleRed.Render("✖ Denied")
	case domain.CaseStatusRFEIssued:
		return StyleRed.Render("▲ RFE Issued")
	case domain.CaseStatusRFEResponseFiled:
		return StyleYellow.Render("● RFE Response Filed")
	case domain.CaseStatusPending:
		return StyleBlue.Render("○ Pending")
	default:
		return StyleDim.Render("? Other")
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}

// Warn renders a yellow warning line.
func Warn(text string) string {
	return StyleYellow.Render("  WARNING: " + text)
}

package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/greenpath/internal/domain"
)

// TreeItem is one line of a stage timeline. Level 0 lines are track headers.
type TreeItem struct {
	Title  string
	Level  int
	IsLast bool
	Status domain.StageStatus
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
)

// RenderTree draws items with box connectors and aligns every Detail into
// one right-hand column.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	left := make([]string, len(items))
	width := 0
	for i, it := range items {
		left[i] = treeConnector(it) + markedTitle(it)
		width = max(width, lipgloss.Width(left[i]))
	}

	var b strings.Builder
	for i, it := range items {
		b.WriteString(left[i])
		if it.Detail != "" {
			b.WriteString(strings.Repeat(" ", width-lipgloss.Width(left[i])+2))
			b.WriteString(StyleBlue.Render("[ " + it.Detail + " ]"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func treeConnector(it TreeItem) string {
	if it.Level == 0 {
		return ""
	}
	c := treeBranch
	if it.IsLast {
		c = treeCorner
	}
	return strings.Repeat(treePipe, it.Level-1) + c
}

// markedTitle dims finished stages and highlights the current one.
func markedTitle(it TreeItem) string {
	switch it.Status {
	case domain.StageDone:
		return StyleGreen.Render("✔ ") + Dim(it.Title)
	case domain.StageInProgress:
		return StyleYellowBold.Render("▶ " + it.Title)
	default:
		return it.Title
	}
}

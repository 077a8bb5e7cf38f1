package formatter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/greenpath/internal/casestatus"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/service"
)

// FormatCase renders the tracked milestones and ported priority dates.
func FormatCase(c *domain.TrackedCase, now time.Time) string {
	var b strings.Builder

	label := c.Label
	if label == "" {
		label = "Tracked case"
	}
	b.WriteString(fmt.Sprintf("%s  %s  %s\n", Bold(label), TruncID(c.ID),
		Dim("updated "+RelativeDateFrom(c.UpdatedAt, now))))

	approved := 0
	for _, m := range c.Milestones {
		if m.Status == domain.MilestoneApproved {
			approved++
		}
	}
	b.WriteString(RenderProgress(approved, len(domain.MilestoneKeys), 12) + "\n\n")

	headers := []string{"MILESTONE", "STATUS", "FILED", "APPROVED", "RECEIPT"}
	var rows [][]string
	for _, key := range domain.MilestoneKeys {
		m, ok := c.Milestone(key)
		if !ok {
			rows = append(rows, []string{string(key), MilestonePill(domain.MilestoneNotStarted), Dim("--"), Dim("--"), Dim("--")})
			continue
		}
		rows = append(rows, []string{string(key), MilestonePill(m.Status), Date(m.Filed), Date(m.Approved), receiptLabel(m.Receipt)})
	}
	b.WriteString(RenderTable(headers, rows))

	if len(c.Ports) > 0 {
		b.WriteString("\n" + Header("Ported priority dates") + "\n")
		portRows := make([][]string, 0, len(c.Ports))
		for _, p := range c.Ports {
			from := string(p.FromCategory)
			if from == "" {
				from = Dim("--")
			}
			portRows = append(portRows, []string{TruncID(p.ID), Date(p.PriorityDate), from, Date(p.I140ApprovedOn), Date(p.WithdrawnOn)})
		}
		b.WriteString(RenderTable([]string{"ID", "PRIORITY DATE", "FROM", "I-140 APPROVED", "WITHDRAWN"}, portRows))
	}
	return RenderBox("Case", b.String())
}

func receiptLabel(r domain.Receipt) string {
	switch {
	case !r.IsSet():
		return Dim("--")
	case !r.IsValid():
		return StyleRed.Render(r.Raw() + " (invalid)")
	default:
		return r.Raw()
	}
}

// FormatImportResult reports what a case import wrote.
func FormatImportResult(r *service.ImportResult) string {
	msg := fmt.Sprintf("Imported case %s with %d milestones and %d ported dates",
		shortID(r.Case.ID), r.MilestoneCount, r.PortCount)
	if r.Replaced != "" {
		msg += Dim(fmt.Sprintf(" (replaced %s)", shortID(r.Replaced)))
	}
	return msg + "\n"
}

// FormatCaseStatus renders one agency lookup.
func FormatCaseStatus(r *casestatus.Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s\n", Bold(r.Receipt), CaseStatusPill(r.Status)))
	if r.Title != "" {
		b.WriteString(r.Title + "\n")
	}
	if r.Description != "" {
		b.WriteString(Dim(r.Description) + "\n")
	}
	return b.String()
}

// FormatLookupFailure explains a failed lookup without implying a denial.
func FormatLookupFailure(e *casestatus.LookupError) string {
	return fmt.Sprintf("%s  %s\n%s %s\n",
		Bold(e.Receipt), StyleYellow.Render("? status unavailable"),
		Dim("Check manually:"), e.URL)
}

// FormatReceiptStatuses renders the lookup for every receipt on a case.
func FormatReceiptStatuses(rs []service.ReceiptStatus) string {
	if len(rs) == 0 {
		return Dim("No tracked milestones carry a receipt number.") + "\n"
	}
	headers := []string{"MILESTONE", "RECEIPT", "STATUS", "DETAIL"}
	rows := make([][]string, 0, len(rs))
	for _, s := range rs {
		var lookup *casestatus.LookupError
		switch {
		case s.Result != nil:
			rows = append(rows, []string{string(s.Milestone), s.Receipt, CaseStatusPill(s.Result.Status), s.Result.Title})
		case errors.As(s.Err, &lookup):
			rows = append(rows, []string{string(s.Milestone), s.Receipt, StyleYellow.Render("? unavailable"), Dim(lookup.URL)})
		default:
			rows = append(rows, []string{string(s.Milestone), s.Receipt, StyleRed.Render("error"), Dim(fmt.Sprint(s.Err))})
		}
	}
	return RenderTable(headers, rows)
}

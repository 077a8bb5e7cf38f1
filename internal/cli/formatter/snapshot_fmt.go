package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/livedata"
	"github.com/alexanderramin/greenpath/internal/velocity"
)

var chartCategories = []domain.Category{domain.CategoryEB1, domain.CategoryEB2, domain.CategoryEB3}

// FormatSnapshot renders processing times and both bulletin charts.
func FormatSnapshot(res livedata.Result) string {
	snap := res.Snapshot
	var b strings.Builder

	asOf := "unknown"
	if !snap.AsOf.IsZero() {
		asOf = domain.MonthOf(snap.AsOf).String()
	}
	b.WriteString(fmt.Sprintf("%s %s  %s %s\n", Dim("Source:"), sourceName(res.Source), Dim("Bulletin:"), asOf))
	if !snap.FetchedAt.IsZero() {
		b.WriteString(fmt.Sprintf("%s %s\n", Dim("Fetched:"), snap.FetchedAt.Format("Jan 2, 2006 15:04 MST")))
	}
	if res.FetchErr != nil {
		b.WriteString(Warn("refresh failed: "+res.FetchErr.Error()) + "\n")
	}
	if len(snap.DefaultedFields) > 0 && res.Source != livedata.SourceDefaults {
		b.WriteString(Warn("defaulted: "+strings.Join(snap.DefaultedFields, ", ")) + "\n")
	}

	b.WriteString("\n" + Header("Processing times") + "\n")
	rows := make([][]string, 0, len(domain.FormKeys))
	for _, k := range domain.FormKeys {
		t, ok := snap.Processing[k]
		if !ok {
			continue
		}
		premium := Dim("--")
		if t.PremiumDays != nil {
			premium = fmt.Sprintf("%d days", *t.PremiumDays)
		}
		rows = append(rows, []string{string(k), fmt.Sprintf("%.1f", t.MinMonths), fmt.Sprintf("%.1f", t.MaxMonths), premium})
	}
	b.WriteString(RenderTableRight([]string{"FORM", "MIN MO", "MAX MO", "PREMIUM"}, rows, 1, 2))

	b.WriteString("\n" + Header("Final action dates") + "\n")
	b.WriteString(renderChart(snap.FinalAction))
	b.WriteString("\n" + Header("Dates for filing") + "\n")
	b.WriteString(renderChart(snap.DatesForFiling))

	return RenderBox("Snapshot", b.String())
}

func renderChart(t domain.PriorityDateTable) string {
	headers := []string{"CATEGORY"}
	for _, ch := range domain.Chargeabilities {
		headers = append(headers, chargeabilityHeader(ch))
	}
	rows := make([][]string, 0, len(chartCategories))
	for _, cat := range chartCategories {
		row := []string{string(cat)}
		for _, ch := range domain.Chargeabilities {
			c := t.Lookup(cat, ch)
			if c.IsCurrent() {
				row = append(row, StyleGreen.Render(c.String()))
			} else {
				row = append(row, c.String())
			}
		}
		rows = append(rows, row)
	}
	return RenderTable(headers, rows)
}

func chargeabilityHeader(ch domain.Chargeability) string {
	if ch == domain.ChargeAllOther {
		return "ALL OTHER"
	}
	return strings.ToUpper(string(ch))
}

// FormatVelocity renders a backlog movement estimate with its disclosure.
func FormatVelocity(v velocity.Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s\n", Bold(string(v.Category)), Dim(string(v.Chargeability))))
	if v.IsCurrent {
		b.WriteString(StyleGreen.Render("Current") + "\n")
	}
	b.WriteString(fmt.Sprintf("%s %.1f months per year\n", Dim("Rate:"), v.RatePerYear))
	conf := Percent(v.Confidence)
	if v.NeedsDisclosure {
		conf = StyleYellow.Render(conf)
	}
	b.WriteString(fmt.Sprintf("%s %s  %s %d\n", Dim("Confidence:"), conf, Dim("Samples:"), v.Samples))
	b.WriteString(v.Explanation + "\n")
	if v.Retrogressed {
		b.WriteString(Warn("the cutoff moved backwards within the window") + "\n")
	}
	if v.FallbackUsed {
		b.WriteString(Dim("Too little history; a conservative fallback rate is used.") + "\n")
	}
	return b.String()
}

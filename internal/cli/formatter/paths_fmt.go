package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/livedata"
	"github.com/alexanderramin/greenpath/internal/reconcile"
	"github.com/alexanderramin/greenpath/internal/service"
)

// FormatProjection renders the ranked path list with snapshot provenance.
func FormatProjection(p *service.Projection, now time.Time) string {
	var b strings.Builder

	b.WriteString(snapshotLine(p.Snapshot, p.SnapshotSource, p.Chargeability) + "\n\n")

	if len(p.Paths) == 0 {
		b.WriteString(Dim("No admissible paths for this profile.") + "\n")
		return RenderBox("Paths", b.String())
	}

	headers := []string{"PATH", "CATEGORY", "TIME", "GREEN CARD", "COST", "PRIORITY DATE"}
	rows := make([][]string, 0, len(p.Paths))
	for _, pp := range p.Paths {
		path := pp.Path
		total := path.TotalYears
		if pp.Reconciled != nil {
			total = pp.Reconciled.Remaining
		}
		rows = append(rows, []string{
			Bold(path.ID) + " " + Dim(pathBadges(path)),
			categoryLabel(path),
			total.Display(),
			CalendarRange(total, now),
			Money(path.EstimatedCost),
			priorityDateLabel(pp),
		})
	}
	b.WriteString(RenderTableRight(headers, rows, 4))

	if p.CaseID != "" {
		b.WriteString("\n" + Dim("Times are remaining from today for tracked case "+shortID(p.CaseID)+".") + "\n")
	}
	for _, w := range projectionWarnings(p) {
		b.WriteString(Warn(w) + "\n")
	}
	return RenderBox("Paths", b.String())
}

// FormatPath renders one path as a stage timeline, with the reconciled
// state overlaid when a case is tracked.
func FormatPath(pp service.PathProjection, now time.Time) string {
	path := pp.Path
	var b strings.Builder

	b.WriteString(Bold(path.Name) + "  " + Dim(categoryLabel(path)) + "\n")
	b.WriteString(fmt.Sprintf("%s %s  %s %s\n",
		Dim("Total:"), path.TotalYears.Display(),
		Dim("Cost:"), Money(path.EstimatedCost)))
	b.WriteString("\n")

	status := map[string]domain.StageStatus{}
	if pp.Reconciled != nil {
		for _, s := range pp.Reconciled.Stages {
			status[s.NodeID] = s.Status
		}
	}

	var items []TreeItem
	for _, track := range []domain.Track{domain.TrackStatus, domain.TrackGC} {
		stages := path.TrackStages(track)
		if len(stages) == 0 {
			continue
		}
		items = append(items, TreeItem{Title: trackTitle(track)})
		for i, s := range stages {
			items = append(items, TreeItem{
				Title:  stageTitle(s),
				Level:  1,
				IsLast: i == len(stages)-1,
				Status: status[s.NodeID],
				Detail: stageDetail(s),
			})
		}
	}
	b.WriteString(RenderTree(items))

	if w, ok := path.WaitStage(); ok && w.Velocity != nil {
		b.WriteString("\n" + Header("Backlog") + "\n")
		b.WriteString(fmt.Sprintf("%s %s\n", Dim("Priority date:"), w.PriorityDateStr))
		b.WriteString(w.Velocity.Explanation + "\n")
		if w.Velocity.NeedsDisclosure {
			b.WriteString(Warn(fmt.Sprintf("low confidence estimate (%s)", Percent(w.Velocity.Confidence))) + "\n")
		}
	}

	if r := pp.Reconciled; r != nil {
		b.WriteString("\n" + FormatReconciled(r, now))
	}
	return RenderBox(path.ID, b.String())
}

// FormatReconciled summarizes the case overlay of one path.
func FormatReconciled(r *reconcile.Result, now time.Time) string {
	var b strings.Builder
	b.WriteString(Header("Your case") + "\n")

	done := 0
	for _, s := range r.Stages {
		if s.Status == domain.StageDone {
			done++
		}
	}
	b.WriteString(fmt.Sprintf("%s %s\n", Dim("Progress:"), RenderProgress(done, len(r.Stages), 12)))
	b.WriteString(fmt.Sprintf("%s %s %s\n", Dim("Priority date:"),
		r.EffectivePriorityDate.String(), Dim("("+sourceLabel(r.PriorityDateSource)+")")))
	b.WriteString(fmt.Sprintf("%s %s %s\n", Dim("Remaining:"),
		r.Remaining.Display(), Dim("("+CalendarRange(r.Remaining, now)+")")))

	staged := map[string]bool{}
	for _, s := range r.Stages {
		if s.Warning != "" {
			staged[s.Warning] = true
			b.WriteString(Warn(s.Name+": "+s.Warning) + "\n")
		}
	}
	for _, w := range r.Warnings {
		if !staged[w] {
			b.WriteString(Warn(w) + "\n")
		}
	}
	if len(r.Unmatched) > 0 {
		keys := make([]string, len(r.Unmatched))
		for i, k := range r.Unmatched {
			keys[i] = string(k)
		}
		b.WriteString(Dim("Milestones not on this path: "+strings.Join(keys, ", ")) + "\n")
	}
	return b.String()
}

func snapshotLine(snap domain.Snapshot, source livedata.Source, ch domain.Chargeability) string {
	asOf := "unknown"
	if !snap.AsOf.IsZero() {
		asOf = domain.MonthOf(snap.AsOf).String()
	}
	return fmt.Sprintf("%s %s  %s %s %s",
		Dim("Chargeability:"), string(ch),
		Dim("Data:"), sourceName(source), Dim("(bulletin "+asOf+")"))
}

func sourceName(s livedata.Source) string {
	switch s {
	case livedata.SourceLive:
		return StyleGreen.Render("live")
	case livedata.SourceCache:
		return StyleGreen.Render("cached")
	case livedata.SourceStale:
		return StyleYellow.Render("stale cache")
	default:
		return StyleYellow.Render("built-in defaults")
	}
}

func projectionWarnings(p *service.Projection) []string {
	var out []string
	if p.Snapshot.Stale {
		out = append(out, "live data could not be refreshed; showing the last cached snapshot")
	}
	if p.Snapshot.UsingDefaults && p.SnapshotSource != livedata.SourceDefaults {
		out = append(out, "some fields fell back to defaults: "+strings.Join(p.Snapshot.DefaultedFields, ", "))
	}
	return out
}

func pathBadges(p *domain.ComposedPath) string {
	var tags []string
	if p.HasLottery {
		tags = append(tags, "lottery")
	}
	if p.IsSelfPetition {
		tags = append(tags, "self-petition")
	}
	if p.ConcurrentFiling {
		tags = append(tags, "concurrent")
	}
	if len(tags) == 0 {
		return ""
	}
	return "(" + strings.Join(tags, ", ") + ")"
}

func categoryLabel(p *domain.ComposedPath) string {
	if p.Variant != "" {
		return fmt.Sprintf("%s %s", p.Category, p.Variant)
	}
	return string(p.Category)
}

func priorityDateLabel(pp service.PathProjection) string {
	if r := pp.Reconciled; r != nil {
		return r.EffectivePriorityDate.String()
	}
	if pp.Path.PriorityDate == 0 {
		return Dim("--")
	}
	label := pp.Path.PriorityDate.String()
	if !pp.Path.PriorityDateRetained {
		label += Dim(" est.")
	}
	return label
}

func sourceLabel(s reconcile.PriorityDateSource) string {
	switch s {
	case reconcile.SourcePERM:
		return "PERM filing"
	case reconcile.SourceI140:
		return "I-140"
	case reconcile.SourcePetition:
		return "petition filing"
	case reconcile.SourceRetained:
		return "retained"
	case reconcile.SourcePort:
		return "ported"
	default:
		return "estimated"
	}
}

func trackTitle(t domain.Track) string {
	if t == domain.TrackStatus {
		return Bold("Status")
	}
	return Bold("Green card")
}

func stageTitle(s domain.ComposedStage) string {
	title := s.Name
	if s.IsConcurrent {
		title += Dim(" (concurrent)")
	}
	if s.Note != "" {
		title += Dim(" · " + s.Note)
	}
	return title
}

func stageDetail(s domain.ComposedStage) string {
	d := s.DurationDisplay
	if d == "" {
		d = s.Duration.Display()
	}
	return fmt.Sprintf("yr %.1f  %s", s.StartYears, d)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Package reconcile overlays a user's tracked milestones onto a composed path.
package reconcile

import (
	"fmt"
	"math"
	"time"

	"github.com/alexanderramin/greenpath/internal/catalog"
	"github.com/alexanderramin/greenpath/internal/composer"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/velocity"
)

// PortabilityDays is how long an I-140 must stay approved before a
// withdrawal no longer costs the priority date.
const PortabilityDays = 180

// PriorityDateSource names where the effective priority date came from.
type PriorityDateSource string

const (
	SourceI140      PriorityDateSource = "i140"
	SourcePERM      PriorityDateSource = "perm"
	SourcePetition  PriorityDateSource = "petition_filed"
	SourceRetained  PriorityDateSource = "retained"
	SourcePort      PriorityDateSource = "ported"
	SourceEstimated PriorityDateSource = "estimated"
)

// Input is one path plus the case state to overlay.
type Input struct {
	Path          *domain.ComposedPath
	Case          *domain.TrackedCase
	Chargeability domain.Chargeability
	Snapshot      domain.Snapshot
	Velocity      velocity.Result
	Now           time.Time
	// Catalog defaults to the embedded catalog.
	Catalog *catalog.Catalog
}

// StageState is the reconciled state of one gc stage.
type StageState struct {
	NodeID    string
	Name      string
	Status    domain.StageStatus
	Milestone domain.MilestoneKey
	Tracked   bool
	Remaining domain.YearRange
	Warning   string
}

// Result is the reconciled projection.
type Result struct {
	PathID                string
	Stages                []StageState
	Schedule              []domain.ComposedStage
	Remaining             domain.YearRange
	EffectivePriorityDate domain.MonthIndex
	PriorityDateSource    PriorityDateSource
	Wait                  composer.WaitPlan
	Warnings              []string
	Unmatched             []domain.MilestoneKey
}

// Reconcile never fails on user data: malformed dates read as absent.
func Reconcile(in Input) Result {
	cat := in.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	path := in.Path
	res := Result{PathID: path.ID}

	var steps []composer.Step
	states := map[string]*StageState{}
	matched := map[domain.MilestoneKey]bool{}
	var origin domain.YearRange
	originSet := false
	progressed := false

	for _, s := range path.Stages {
		if s.Track != domain.TrackGC || s.IsPriorityWait || s.NodeID == catalog.NodeGreenCard {
			continue
		}
		if !originSet {
			origin = domain.YearRange{Min: s.StartYears, Max: s.LatestStart}
			originSet = true
		}
		st := &StageState{NodeID: s.NodeID, Name: s.Name, Status: domain.StageNotStarted, Remaining: s.Duration}
		if node, ok := cat.Node(s.NodeID); ok && node.Trackable() {
			st.Milestone = node.Milestone
			st.Tracked = true
			if m, ok := in.Case.Milestone(node.Milestone); ok {
				matched[node.Milestone] = true
				applyMilestone(st, m, s.Duration, now)
				if st.Status != domain.StageNotStarted {
					progressed = true
				}
			}
		}
		if st.Warning != "" {
			res.Warnings = append(res.Warnings, st.Warning)
		}
		states[s.NodeID] = st

		step := composer.StepFromStage(s)
		step.Duration = st.Remaining
		steps = append(steps, step)
	}

	// Once anything is underway the schedule runs from now.
	if progressed {
		origin = domain.YearRange{}
	}

	pd, source := effectivePriorityDate(cat, path, in.Case, steps, origin, now)
	res.Warnings = append(res.Warnings, portWarnings(in.Case)...)
	res.EffectivePriorityDate = pd
	res.PriorityDateSource = source

	plan := composer.PlanWait(path.Category, in.Chargeability, pd, in.Snapshot, in.Velocity)
	if source == SourceEstimated {
		plan.PriorityDateLabel = pd.String() + " (estimated)"
	}
	adjDone := false
	if st, ok := states[catalog.NodeI485]; ok && st.Status == domain.StageDone {
		adjDone = true
		plan.Kind = composer.WaitNone
	}
	res.Wait = plan

	waitName := "Priority date wait"
	if n, ok := cat.Node(catalog.NodeWait); ok {
		waitName = n.Name
	}
	arranged := composer.ArrangeGC(origin, steps, plan, in.Snapshot, waitName)
	schedule, end := composer.Layout(origin, arranged)
	res.Schedule = schedule
	res.Remaining = end

	for _, s := range schedule {
		if st, ok := states[s.NodeID]; ok {
			res.Stages = append(res.Stages, *st)
			continue
		}
		if s.IsPriorityWait {
			res.Stages = append(res.Stages, StageState{
				NodeID:    s.NodeID,
				Name:      s.Name,
				Status:    waitStatus(source),
				Remaining: s.Duration,
			})
		}
	}
	terminal := StageState{NodeID: catalog.NodeGreenCard, Name: "Green card", Status: domain.StageNotStarted}
	if n, ok := cat.Node(catalog.NodeGreenCard); ok {
		terminal.Name = n.Name
	}
	if adjDone {
		terminal.Status = domain.StageDone
	}
	res.Stages = append(res.Stages, terminal)

	if in.Case != nil {
		for _, key := range domain.MilestoneKeys {
			m, ok := in.Case.Milestones[key]
			if !ok || matched[key] || key == domain.MilestoneEADAP || m.Status == domain.MilestoneNotStarted {
				continue
			}
			res.Unmatched = append(res.Unmatched, key)
		}
	}
	return res
}

// applyMilestone derives status and remaining time from one milestone:
// approved -> done; denied -> not started with a warning; a valid filed
// date -> in progress with max(0, duration - elapsed); filed without a
// usable date -> in progress with the full duration.
func applyMilestone(st *StageState, m domain.Milestone, dur domain.YearRange, now time.Time) {
	switch {
	case m.Status == domain.MilestoneDenied:
		st.Status = domain.StageNotStarted
		st.Warning = fmt.Sprintf("%s was denied; projected as not started", st.Name)
	case m.Status == domain.MilestoneApproved || m.Approved.IsValid():
		st.Status = domain.StageDone
		st.Remaining = domain.YearRange{}
	case m.Filed.IsValid():
		st.Status = domain.StageInProgress
		filed, _ := m.Filed.Get()
		elapsed := math.Max(0, domain.MonthsBetween(filed, now)/12)
		st.Remaining = domain.YearRange{
			Min: math.Max(0, dur.Min-elapsed),
			Max: math.Max(0, dur.Max-elapsed),
		}
	case m.Status == domain.MilestoneFiled:
		st.Status = domain.StageInProgress
	}
}

func waitStatus(source PriorityDateSource) domain.StageStatus {
	if source == SourceEstimated {
		return domain.StageNotStarted
	}
	return domain.StageInProgress
}

// effectivePriorityDate picks the applicant's own date, then takes the
// minimum with the earliest honored port. Ports are considered once, by
// minimum, so repeated ports never compound.
func effectivePriorityDate(cat *catalog.Catalog, path *domain.ComposedPath, c *domain.TrackedCase, steps []composer.Step, origin domain.YearRange, now time.Time) (domain.MonthIndex, PriorityDateSource) {
	own, source, ok := ownPriorityDate(path, c)
	if path.PriorityDateRetained && (!ok || path.PriorityDate < own) {
		own, source, ok = path.PriorityDate, SourceRetained, true
	}
	if !ok {
		own, source = estimatePriorityDate(cat, steps, origin, now), SourceEstimated
	}
	if port, found := earliestHonoredPort(c); found && port < own {
		return port, SourcePort
	}
	return own, source
}

func ownPriorityDate(path *domain.ComposedPath, c *domain.TrackedCase) (domain.MonthIndex, PriorityDateSource, bool) {
	i140, hasI140 := c.Milestone(domain.MilestoneI140)
	if hasI140 && isApproved(i140) {
		if m, ok := i140.PriorityDate.Month(); ok {
			return m, SourceI140, true
		}
	}
	if perm, ok := c.Milestone(domain.MilestonePERM); ok && perm.Status != domain.MilestoneDenied {
		if m, ok := perm.Filed.Month(); ok {
			return m, SourcePERM, true
		}
	}
	// Without PERM the petition's filing date sets the priority date.
	if _, hasPERM := path.Stage(catalog.NodePERM); !hasPERM && hasI140 && i140.Status != domain.MilestoneDenied {
		if m, ok := i140.Filed.Month(); ok {
			return m, SourcePetition, true
		}
	}
	return 0, "", false
}

func isApproved(m domain.Milestone) bool {
	return m.Status == domain.MilestoneApproved || m.Approved.IsValid()
}

// estimatePriorityDate projects when the date-setting stage will be filed
// using remaining durations.
func estimatePriorityDate(cat *catalog.Catalog, steps []composer.Step, origin domain.YearRange, now time.Time) domain.MonthIndex {
	offset := origin.Min
	for _, s := range steps {
		if n, ok := cat.Node(s.NodeID); ok && (n.ID == catalog.NodePERM || n.Kind == catalog.KindPetition || n.Kind == catalog.KindAdjustment) {
			break
		}
		offset += s.Duration.Min
	}
	return domain.MonthOf(now) + domain.MonthIndex(math.Round(offset*12))
}

// earliestHonoredPort returns the earliest ported date whose I-140 was
// approved and not withdrawn within PortabilityDays of approval.
func earliestHonoredPort(c *domain.TrackedCase) (domain.MonthIndex, bool) {
	if c == nil {
		return 0, false
	}
	var best domain.MonthIndex
	found := false
	for _, p := range c.Ports {
		if !PortHonored(p) {
			continue
		}
		m, _ := p.PriorityDate.Month()
		if !found || m < best {
			best, found = m, true
		}
	}
	return best, found
}

// PortHonored applies the portability rule to one ported date.
func PortHonored(p domain.PortedPriorityDate) bool {
	return PortRejection(p) == ""
}

// PortRejection explains why a ported date cannot be used; empty when it
// is honored.
func PortRejection(p domain.PortedPriorityDate) string {
	if _, ok := p.PriorityDate.Month(); !ok {
		return "the priority date is missing or unreadable"
	}
	approved, ok := p.I140ApprovedOn.Get()
	if !ok {
		return "no I-140 approval date is recorded"
	}
	withdrawn, ok := p.WithdrawnOn.Get()
	if !ok {
		return ""
	}
	if withdrawn.Before(approved.AddDate(0, 0, PortabilityDays)) {
		days := int(withdrawn.Sub(approved).Hours() / 24)
		return fmt.Sprintf("the I-140 was withdrawn %d days after approval, before the %d-day mark", days, PortabilityDays)
	}
	return ""
}

func portWarnings(c *domain.TrackedCase) []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, p := range c.Ports {
		reason := PortRejection(p)
		if reason == "" {
			continue
		}
		label := p.PriorityDate.String()
		if label == "" {
			label = "(none)"
		}
		if p.FromCategory != "" {
			label += " from " + string(p.FromCategory)
		}
		out = append(out, fmt.Sprintf("ported priority date %s ignored: %s", label, reason))
	}
	return out
}

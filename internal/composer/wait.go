package composer

import (
	"fmt"
	"math"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/velocity"
)

// MinWaitMonths is the shortest wait stage ever inserted.
const MinWaitMonths = 1.0

// WaitKind is the outcome of comparing a priority date with both charts.
type WaitKind int

const (
	// WaitNone: both charts reached; I-485 files with the petition.
	WaitNone WaitKind = iota
	// WaitFiling: only Dates for Filing reached; I-485 files with the
	// petition and approval waits for Final Action.
	WaitFiling
	// WaitApproval: neither chart reached; I-485 files after the wait.
	WaitApproval
)

func (k WaitKind) String() string {
	switch k {
	case WaitFiling:
		return "filing"
	case WaitApproval:
		return "approval"
	}
	return "none"
}

// WaitPlan is the cutoff comparison for one effective priority date.
type WaitPlan struct {
	Kind                WaitKind
	Category            domain.Category
	Chargeability       domain.Chargeability
	PriorityDate        domain.MonthIndex
	PriorityDateLabel   string
	FinalAction         domain.Cutoff
	DatesForFiling      domain.Cutoff
	MonthsToFinalAction float64
	MonthsToFiling      float64
	Velocity            velocity.Result
}

// PlanWait compares pd against the snapshot's charts and projects months
// until each is reached. Categories without a chart are always current.
func PlanWait(cat domain.Category, ch domain.Chargeability, pd domain.MonthIndex, snap domain.Snapshot, vel velocity.Result) WaitPlan {
	plan := WaitPlan{
		Category:          cat,
		Chargeability:     ch,
		PriorityDate:      pd,
		PriorityDateLabel: pd.String(),
		FinalAction:       domain.CurrentCutoff(),
		DatesForFiling:    domain.CurrentCutoff(),
		Velocity:          vel,
	}
	if !cat.HasChart() {
		return plan
	}
	plan.FinalAction = snap.FinalAction.Lookup(cat, ch)
	plan.DatesForFiling = snap.DatesForFiling.Lookup(cat, ch)

	faReached := plan.FinalAction.Reached(pd)
	dffReached := faReached || plan.DatesForFiling.Reached(pd)
	switch {
	case faReached:
		plan.Kind = WaitNone
	case dffReached:
		plan.Kind = WaitFiling
	default:
		plan.Kind = WaitApproval
	}
	if plan.Kind != WaitNone && vel.IsCurrent {
		// A velocity judged current cannot size a wait against a dated chart.
		latest := plan.FinalAction
		plan.Velocity = velocity.Compute(velocity.Input{Category: cat, Chargeability: ch, Latest: &latest})
	}
	rate := plan.Velocity.RatePerYear
	plan.MonthsToFinalAction = velocity.ProjectMonthsToReach(plan.FinalAction, pd, rate)
	plan.MonthsToFiling = velocity.ProjectMonthsToReach(plan.DatesForFiling, pd, rate)
	return plan
}

// WaitDuration sizes the wait stage given the months of processing that
// elapse before it starts:
//
//	point = max(1, monthsToFinalAction - monthsBefore)
//
// widened into a range by the velocity confidence.
func (p WaitPlan) WaitDuration(monthsBefore float64) domain.YearRange {
	if p.Kind == WaitNone {
		return domain.YearRange{}
	}
	point := math.Max(MinWaitMonths, p.MonthsToFinalAction-monthsBefore)
	lo, hi := p.Velocity.WaitRange(point)
	lo = math.Max(MinWaitMonths, lo)
	hi = math.Max(lo, hi)
	return domain.MonthsToYears(lo, hi)
}

// waitStep builds the priority-wait stage.
func (p WaitPlan) waitStep(name string, monthsBefore float64, snap domain.Snapshot) Step {
	info := p.Velocity.Info()
	step := Step{
		NodeID:          "pd_wait",
		Name:            name,
		Track:           domain.TrackGC,
		Duration:        p.WaitDuration(monthsBefore),
		Wait:            true,
		PriorityDateStr: p.PriorityDateLabel,
		Velocity:        &info,
	}
	switch p.Kind {
	case WaitFiling:
		ead := "a few months"
		if t, ok := snap.Processing[domain.FormI765]; ok {
			ead = domain.MonthsToYears(t.MinMonths, t.MaxMonths).Display()
		}
		step.Note = fmt.Sprintf("Dates for Filing reached: I-485 filed with the petition. EAD/AP become available once filed (typically %s). Approval waits for the Final Action cutoff (%s).", ead, p.FinalAction)
	case WaitApproval:
		step.Note = fmt.Sprintf("Final Action cutoff for %s %s is %s; priority date %s must become current before I-485 filing.", p.Category, chargeabilityLabel(p.Chargeability), p.FinalAction, p.PriorityDateLabel)
	}
	return step
}

func chargeabilityLabel(ch domain.Chargeability) string {
	switch ch {
	case domain.ChargeIndia:
		return "India"
	case domain.ChargeChina:
		return "China"
	}
	return "all other countries"
}

package composer

import (
	"math"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/shopspring/decimal"
)

const layoutEpsilon = 1e-9

// Step is a stage awaiting layout.
type Step struct {
	NodeID          string
	Name            string
	Track           domain.Track
	Duration        domain.YearRange
	Concurrent      bool
	Wait            bool
	Note            string
	PriorityDateStr string
	Velocity        *domain.VelocityInfo
	Cost            decimal.Decimal
}

// StepFromStage recovers a layout step from a composed stage.
func StepFromStage(s domain.ComposedStage) Step {
	return Step{
		NodeID:          s.NodeID,
		Name:            s.Name,
		Track:           s.Track,
		Duration:        s.Duration,
		Concurrent:      s.IsConcurrent,
		Wait:            s.IsPriorityWait,
		Note:            s.Note,
		PriorityDateStr: s.PriorityDateStr,
		Velocity:        s.Velocity,
		Cost:            s.Cost,
	}
}

// Layout positions one track's steps from origin. A sequential step starts
// where the previous sequential step ends; a concurrent step starts with
// the previous sequential step (its prerequisite), or at origin. Start and
// end are tracked as earliest/latest pairs. The second result is the
// latest end over all steps, per bound.
func Layout(origin domain.YearRange, steps []Step) ([]domain.ComposedStage, domain.YearRange) {
	out := make([]domain.ComposedStage, 0, len(steps))
	cursor, anchor, end := origin, origin, origin
	for _, s := range steps {
		start := cursor
		if s.Concurrent {
			start = anchor
		} else {
			anchor = cursor
			cursor = domain.YearRange{Min: start.Min + s.Duration.Min, Max: start.Max + s.Duration.Max}
		}
		cs := domain.ComposedStage{
			NodeID:          s.NodeID,
			Name:            s.Name,
			Track:           s.Track,
			StartYears:      start.Min,
			LatestStart:     start.Max,
			Duration:        s.Duration,
			DurationDisplay: s.Duration.Display(),
			IsPriorityWait:  s.Wait,
			IsConcurrent:    s.Concurrent,
			Note:            s.Note,
			PriorityDateStr: s.PriorityDateStr,
			Velocity:        s.Velocity,
			Cost:            s.Cost,
		}
		e := cs.End()
		end = domain.YearRange{Min: math.Max(end.Min, e.Min), Max: math.Max(end.Max, e.Max)}
		out = append(out, cs)
	}
	return out, end
}

// ArrangeGC places the adjustment stage and the wait stage around the
// petition according to plan. Steps before I-485 run sequentially from
// origin; monthsBefore for the wait is their earliest cumulative length.
func ArrangeGC(origin domain.YearRange, steps []Step, plan WaitPlan, snap domain.Snapshot, waitName string) []Step {
	ai := -1
	for i, s := range steps {
		if s.NodeID == "i485" {
			ai = i
			break
		}
	}

	pre := steps
	var adj *Step
	var post []Step
	if ai >= 0 {
		pre = steps[:ai]
		a := steps[ai]
		adj = &a
		post = steps[ai+1:]
	}

	monthsBefore := origin.Min * 12
	for _, s := range pre {
		if !s.Concurrent {
			monthsBefore += s.Duration.Min * 12
		}
	}

	out := make([]Step, 0, len(steps)+1)
	out = append(out, pre...)
	if plan.Kind == WaitNone {
		if adj != nil {
			adj.Concurrent = len(pre) > 0
			out = append(out, *adj)
		}
		return append(out, post...)
	}

	wait := plan.waitStep(waitName, monthsBefore, snap)
	switch {
	case adj == nil:
		out = append(out, wait)
	case plan.Kind == WaitFiling:
		adj.Concurrent = len(pre) > 0
		// Without a petition the wait runs alongside the adjustment from origin.
		wait.Concurrent = len(pre) == 0
		out = append(out, *adj, wait)
	default:
		adj.Concurrent = false
		out = append(out, wait, *adj)
	}
	return append(out, post...)
}

// verifyTrack checks that sequential stages never overlap or go backwards
// and that concurrent stages never start before their prerequisite.
func verifyTrack(templateID string, stages []domain.ComposedStage, origin domain.YearRange) error {
	prevEnd := origin
	anchor := origin
	for _, s := range stages {
		if s.Duration.Min < 0 || s.Duration.Max < s.Duration.Min {
			return &InvariantError{TemplateID: templateID, NodeID: s.NodeID, Reason: "invalid duration range"}
		}
		if s.IsConcurrent {
			if s.StartYears < anchor.Min-layoutEpsilon || s.LatestStart < anchor.Max-layoutEpsilon {
				return &InvariantError{TemplateID: templateID, NodeID: s.NodeID, Reason: "concurrent stage starts before its prerequisite"}
			}
			continue
		}
		if s.StartYears < prevEnd.Min-layoutEpsilon || s.LatestStart < prevEnd.Max-layoutEpsilon {
			return &InvariantError{TemplateID: templateID, NodeID: s.NodeID, Reason: "stage starts before the previous stage ends"}
		}
		anchor = domain.YearRange{Min: s.StartYears, Max: s.LatestStart}
		prevEnd = s.End()
	}
	return nil
}

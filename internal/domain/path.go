package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// YearRange is a min/max duration or offset in years.
type YearRange struct {
	Min float64
	Max float64
}

// MonthsToYears converts a month range to years.
func MonthsToYears(minMonths, maxMonths float64) YearRange {
	return YearRange{Min: minMonths / 12, Max: maxMonths / 12}
}

// IsZero reports a zero-length range.
func (r YearRange) IsZero() bool { return r.Min == 0 && r.Max == 0 }

// Add sums two ranges.
func (r YearRange) Add(o YearRange) YearRange {
	return YearRange{Min: r.Min + o.Min, Max: r.Max + o.Max}
}

// Display renders a range for humans: "6-9 months", "1.5-2 years", "Immediate".
func (r YearRange) Display() string {
	if r.Max <= 0 {
		return "Immediate"
	}
	minM, maxM := r.Min*12, r.Max*12
	if maxM < 24 {
		lo, hi := math.Round(minM), math.Round(maxM)
		if lo == hi {
			return fmt.Sprintf("%s %s", trimFloat(hi), plural(hi, "month"))
		}
		return fmt.Sprintf("%s-%s months", trimFloat(lo), trimFloat(hi))
	}
	lo, hi := roundHalf(r.Min), roundHalf(r.Max)
	if lo == hi {
		return fmt.Sprintf("%s %s", trimFloat(hi), plural(hi, "year"))
	}
	return fmt.Sprintf("%s-%s years", trimFloat(lo), trimFloat(hi))
}

func roundHalf(v float64) float64 { return math.Round(v*2) / 2 }

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func plural(v float64, unit string) string {
	if v == 1 {
		return unit
	}
	return unit + "s"
}

// VelocityInfo is attached to wait stages for disclosure.
type VelocityInfo struct {
	RatePerYear     float64
	Explanation     string
	Confidence      float64
	NeedsDisclosure bool
	FallbackUsed    bool
}

// ComposedStage is one dated step of a path.
type ComposedStage struct {
	NodeID          string
	Name            string
	Track           Track
	StartYears      float64
	LatestStart     float64
	Duration        YearRange
	DurationDisplay string
	IsPriorityWait  bool
	IsConcurrent    bool
	Note            string
	PriorityDateStr string
	Velocity        *VelocityInfo
	Cost            decimal.Decimal
}

// End returns the earliest and latest end offsets.
func (s ComposedStage) End() YearRange {
	return YearRange{Min: s.StartYears + s.Duration.Min, Max: s.LatestStart + s.Duration.Max}
}

// ComposedPath is a fully dated pathway.
type ComposedPath struct {
	ID               string
	Name             string
	Category         Category
	Stages           []ComposedStage
	TotalYears       YearRange
	EstimatedCost    decimal.Decimal
	HasLottery       bool
	IsSelfPetition   bool
	ConcurrentFiling bool
	PriorityDate     MonthIndex
	// PriorityDateRetained is set when PriorityDate was already held rather
	// than estimated from the layout.
	PriorityDateRetained bool
	UsingDefaults        bool
	Variant              string
}

// Stage returns the first stage with the given node id.
func (p *ComposedPath) Stage(nodeID string) (ComposedStage, bool) {
	for _, s := range p.Stages {
		if s.NodeID == nodeID {
			return s, true
		}
	}
	return ComposedStage{}, false
}

// TrackStages returns the stages on one track, in order.
func (p *ComposedPath) TrackStages(t Track) []ComposedStage {
	var out []ComposedStage
	for _, s := range p.Stages {
		if s.Track == t {
			out = append(out, s)
		}
	}
	return out
}

// WaitStage returns the priority-wait stage if the path has one.
func (p *ComposedPath) WaitStage() (ComposedStage, bool) {
	for _, s := range p.Stages {
		if s.IsPriorityWait {
			return s, true
		}
	}
	return ComposedStage{}, false
}

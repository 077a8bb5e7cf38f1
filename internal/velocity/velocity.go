// Package velocity projects visa-bulletin movement from historical samples.
package velocity

import (
	"fmt"
	"math"
	"time"

	"github.com/alexanderramin/greenpath/internal/domain"
)

const (
	// DefaultWindow is the number of most recent bulletin intervals fitted,
	// so a full window holds DefaultWindow+1 non-current samples.
	DefaultWindow = 12
	// FallbackRate is the conservative cutoff movement assumed without history.
	FallbackRate = 4.0
	// FallbackConfidence accompanies FallbackRate.
	FallbackConfidence = 0.2
	// MinRate floors retrogressing or stalled series.
	MinRate = 0.5
	// DisclosureThreshold is the confidence below which consumers must disclose.
	DisclosureThreshold = 0.7

	fullSampleDeltas = 6.0
	staleGraceMonths = 2.0
	staleDecayMonths = 12.0
)

// Input is one (category, chargeability) series to evaluate.
type Input struct {
	Category      domain.Category
	Chargeability domain.Chargeability
	Series        []domain.BulletinSample
	// Latest is the cutoff in force now, normally the snapshot's Final
	// Action cell. Nil means the last sample of Series decides.
	Latest        *domain.Cutoff
	AsOf          time.Time
	Window        int
}

// Result is the fitted advancement rate for one series.
type Result struct {
	Category        domain.Category
	Chargeability   domain.Chargeability
	RatePerYear     float64
	Confidence      float64
	Explanation     string
	Samples         int
	IsCurrent       bool
	NeedsDisclosure bool
	FallbackUsed    bool
	Retrogressed    bool
}

// Info converts the result to the stage annotation shape.
func (r Result) Info() domain.VelocityInfo {
	return domain.VelocityInfo{
		RatePerYear:     r.RatePerYear,
		Explanation:     r.Explanation,
		Confidence:      r.Confidence,
		NeedsDisclosure: r.NeedsDisclosure,
		FallbackUsed:    r.FallbackUsed,
	}
}

// Compute fits the advancement rate over the most recent window:
//
//	rate = (lastCutoff - firstCutoff) / (lastBulletin - firstBulletin) * 12
//
// so 12 means the cutoff moves in real time and 6 means one cutoff year per
// two calendar years. Confidence is the product of a sample factor
// (deltas/6, capped at 1), a consistency factor 1/(1+cv) over per-month
// deltas, and a staleness factor exp(-(gap-2)/12) once the last sample is
// more than two months old.
//
// Latest decides whether there is a backlog. When the series ends current
// but Latest is a dated cutoff, the dated samples are fitted (or the fallback
// used) with confidence halved, and the result always needs disclosure.
func Compute(in Input) Result {
	res := Result{Category: in.Category, Chargeability: in.Chargeability}

	n := len(in.Series)
	historyCurrent := n > 0 && in.Series[n-1].Cutoff.IsCurrent()
	latestCurrent := historyCurrent
	if in.Latest != nil {
		latestCurrent = in.Latest.IsCurrent()
	}
	if latestCurrent {
		res.IsCurrent = true
		res.RatePerYear = 12
		res.Confidence = 1
		res.Samples = n
		res.Explanation = "Cutoff is current in the latest bulletin; no backlog."
		return res
	}

	res = fit(res, in)
	if historyCurrent {
		// The cell left current after the last recorded bulletin.
		res.Retrogressed = true
		res.Confidence = clamp01(res.Confidence * 0.5)
		res.NeedsDisclosure = true
		res.Explanation = "Cutoff retrogressed from current since the last recorded bulletin. " + res.Explanation
	}
	return res
}

func fit(res Result, in Input) Result {
	window := in.Window
	if window < 2 {
		window = DefaultWindow
	}
	usable := make([]domain.BulletinSample, 0, len(in.Series))
	for _, s := range in.Series {
		if !s.Cutoff.IsCurrent() {
			usable = append(usable, s)
		}
	}
	if len(usable) > window+1 {
		usable = usable[len(usable)-window-1:]
	}
	res.Samples = len(usable)

	if len(usable) < 2 {
		return fallback(res, "Not enough bulletin history")
	}
	first, last := usable[0], usable[len(usable)-1]
	span := float64(last.Bulletin - first.Bulletin)
	if span <= 0 {
		return fallback(res, "Bulletin history spans no time")
	}
	firstCut, _ := first.Cutoff.Month()
	lastCut, _ := last.Cutoff.Month()
	moved := float64(lastCut - firstCut)
	rate := moved / span * 12

	deltas := perMonthDeltas(usable)
	sampleFactor := math.Min(1, float64(len(deltas))/fullSampleDeltas)
	consistency := 1 / (1 + coefficientOfVariation(deltas))
	confidence := sampleFactor * consistency * staleness(last.Bulletin, in.AsOf)

	if rate <= 0 {
		res.Retrogressed = true
		rate = MinRate
		confidence *= 0.5
	} else if rate < MinRate {
		rate = MinRate
	}

	res.RatePerYear = rate
	res.Confidence = clamp01(confidence)
	res.NeedsDisclosure = res.Confidence < DisclosureThreshold
	res.Explanation = explain(moved, span, rate, res.Retrogressed)
	return res
}

func fallback(res Result, reason string) Result {
	res.RatePerYear = FallbackRate
	res.Confidence = FallbackConfidence
	res.FallbackUsed = true
	res.NeedsDisclosure = true
	res.Explanation = fmt.Sprintf("%s; assuming a conservative %.1f months of movement per year.", reason, FallbackRate)
	return res
}

func explain(moved, span, rate float64, retrogressed bool) string {
	if retrogressed {
		return fmt.Sprintf("Cutoff moved %+.0f months over %.0f bulletin months; projecting with a floor of %.1f months/year.", moved, span, rate)
	}
	return fmt.Sprintf("Cutoff advanced %.0f months over %.0f bulletin months (%.1f months/year).", moved, span, rate)
}

// perMonthDeltas returns cutoff movement per bulletin month for each
// consecutive pair.
func perMonthDeltas(s []domain.BulletinSample) []float64 {
	out := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		gap := float64(s[i].Bulletin - s[i-1].Bulletin)
		if gap <= 0 {
			continue
		}
		a, _ := s[i-1].Cutoff.Month()
		b, _ := s[i].Cutoff.Month()
		out = append(out, float64(b-a)/gap)
	}
	return out
}

func coefficientOfVariation(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	std := math.Sqrt(sq / float64(len(xs)))
	if std == 0 {
		return 0
	}
	if mean == 0 {
		return 1
	}
	return std / math.Abs(mean)
}

func staleness(last domain.MonthIndex, asOf time.Time) float64 {
	if asOf.IsZero() {
		return 1
	}
	gap := float64(domain.MonthOf(asOf) - last)
	if gap <= staleGraceMonths {
		return 1
	}
	return math.Exp(-(gap - staleGraceMonths) / staleDecayMonths)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// ProjectMonthsToReach estimates calendar months until cutoff passes pd at
// the given rate. A reached cutoff projects zero.
func ProjectMonthsToReach(cutoff domain.Cutoff, pd domain.MonthIndex, rate float64) float64 {
	if cutoff.Reached(pd) {
		return 0
	}
	cut, _ := cutoff.Month()
	// The cutoff must move past pd, so the gap includes pd's own month.
	gap := float64(pd-cut) + 1
	if rate <= 0 {
		rate = FallbackRate
	}
	return gap / rate * 12
}

// WaitRange widens a point projection by the result's uncertainty:
// spread = 0.15 + 0.6*(1-confidence), range = [m/(1+spread), m*(1+spread)].
func (r Result) WaitRange(months float64) (lo, hi float64) {
	if months <= 0 {
		return 0, 0
	}
	spread := 0.15 + 0.6*(1-clamp01(r.Confidence))
	return months / (1 + spread), months * (1 + spread)
}

// Model evaluates series from a fixed bulletin history.
type Model struct {
	history domain.BulletinHistory
	window  int
}

// NewModel wraps a history. A window below two uses DefaultWindow.
func NewModel(history domain.BulletinHistory, window int) *Model {
	if window < 2 {
		window = DefaultWindow
	}
	return &Model{history: history, window: window}
}

// Estimate computes the result for one category and chargeability against
// the cutoff in force now. Categories without a bulletin chart are reported
// current.
func (m *Model) Estimate(cat domain.Category, ch domain.Chargeability, latest domain.Cutoff, asOf time.Time) Result {
	if !cat.HasChart() {
		return Result{
			Category:      cat,
			Chargeability: ch,
			RatePerYear:   12,
			Confidence:    1,
			IsCurrent:     true,
			Explanation:   fmt.Sprintf("%s has no visa bulletin backlog chart; treated as current.", cat),
		}
	}
	return Compute(Input{
		Category:      cat,
		Chargeability: ch,
		Series:        m.history[domain.SeriesKey{Category: cat, Chargeability: ch}],
		Latest:        &latest,
		AsOf:          asOf,
		Window:        m.window,
	})
}

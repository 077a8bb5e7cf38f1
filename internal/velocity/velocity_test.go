package velocity

import (
	"math"
	"testing"
	"time"

	"github.com/alexanderramin/greenpath/internal/catalog"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// series builds monthly bulletins starting at start, with cutoffs advancing
// by the given per-step moves from cut.
func series(start, cut domain.MonthIndex, moves ...int) []domain.BulletinSample {
	out := []domain.BulletinSample{{Bulletin: start, Cutoff: domain.CutoffAt(cut)}}
	for i, mv := range moves {
		cut += domain.MonthIndex(mv)
		out = append(out, domain.BulletinSample{Bulletin: start + domain.MonthIndex(i+1), Cutoff: domain.CutoffAt(cut)})
	}
	return out
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCompute_RealTimeMovementIsTwelve(t *testing.T) {
	start := domain.MonthAt(2024, time.January)
	s := series(start, domain.MonthAt(2012, time.January), repeat(1, 12)...)

	res := Compute(Input{Series: s, AsOf: start.Time().AddDate(1, 0, 0)})

	assert.InDelta(t, 12.0, res.RatePerYear, 1e-9)
	assert.GreaterOrEqual(t, res.Confidence, 0.9)
	assert.False(t, res.NeedsDisclosure)
	assert.False(t, res.FallbackUsed)
}

func TestCompute_HalfSpeed(t *testing.T) {
	// 6 months of cutoff movement over 12 bulletin months = 6 months/year.
	start := domain.MonthAt(2024, time.January)
	moves := []int{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}
	res := Compute(Input{Series: series(start, domain.MonthAt(2013, time.January), moves...)})

	assert.InDelta(t, 6.0, res.RatePerYear, 1e-9)
}

func TestCompute_NoHistoryFallsBack(t *testing.T) {
	empty := Compute(Input{})
	assert.True(t, empty.FallbackUsed)
	assert.Equal(t, FallbackRate, empty.RatePerYear)
	assert.Equal(t, FallbackConfidence, empty.Confidence)
	assert.True(t, empty.NeedsDisclosure)

	one := Compute(Input{Series: series(domain.MonthAt(2024, time.May), domain.MonthAt(2013, time.January))})
	assert.True(t, one.FallbackUsed)
	assert.False(t, math.IsNaN(one.RatePerYear))
}

func TestCompute_ZeroSpanFallsBack(t *testing.T) {
	b := domain.MonthAt(2024, time.May)
	s := []domain.BulletinSample{
		{Bulletin: b, Cutoff: domain.CutoffAt(domain.MonthAt(2013, time.January))},
		{Bulletin: b, Cutoff: domain.CutoffAt(domain.MonthAt(2013, time.June))},
	}
	res := Compute(Input{Series: s})
	assert.True(t, res.FallbackUsed)
}

func TestCompute_LatestCurrentMeansNoBacklog(t *testing.T) {
	s := series(domain.MonthAt(2024, time.January), domain.MonthAt(2022, time.January), 1, 1)
	s = append(s, domain.BulletinSample{Bulletin: domain.MonthAt(2024, time.April), Cutoff: domain.CurrentCutoff()})

	res := Compute(Input{Series: s})
	assert.True(t, res.IsCurrent)
	assert.Equal(t, 0.0, ProjectMonthsToReach(domain.CurrentCutoff(), domain.MonthAt(2030, time.January), res.RatePerYear))
}

func TestCompute_LatestCutoffOverridesHistory(t *testing.T) {
	start := domain.MonthAt(2024, time.January)
	dated := series(start, domain.MonthAt(2012, time.January), repeat(1, 12)...)

	current := domain.CurrentCutoff()
	res := Compute(Input{Series: dated, Latest: &current})
	assert.True(t, res.IsCurrent)

	// History ends current but the cell now has a cutoff date.
	retro := append(dated, domain.BulletinSample{Bulletin: start + 13, Cutoff: domain.CurrentCutoff()})
	cut := domain.CutoffAt(domain.MonthAt(2013, time.June))
	res = Compute(Input{Series: retro, Latest: &cut, AsOf: (start + 13).Time()})
	assert.False(t, res.IsCurrent)
	assert.True(t, res.Retrogressed)
	assert.True(t, res.NeedsDisclosure)
	assert.InDelta(t, 12.0, res.RatePerYear, 1e-9)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
	assert.Contains(t, res.Explanation, "retrogressed from current")
}

func TestCompute_OnlyCurrentHistoryWithDatedCutoffFallsBack(t *testing.T) {
	s := []domain.BulletinSample{
		{Bulletin: domain.MonthAt(2025, time.October), Cutoff: domain.CurrentCutoff()},
		{Bulletin: domain.MonthAt(2026, time.October), Cutoff: domain.CurrentCutoff()},
	}
	cut := domain.CutoffAt(domain.MonthAt(2022, time.January))

	res := Compute(Input{Series: s, Latest: &cut})
	assert.False(t, res.IsCurrent)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, FallbackRate, res.RatePerYear)
	assert.InDelta(t, FallbackConfidence/2, res.Confidence, 1e-9)
	assert.True(t, res.NeedsDisclosure)
}

func TestCompute_CurrentSamplesExcludedFromFit(t *testing.T) {
	start := domain.MonthAt(2024, time.January)
	s := series(start, domain.MonthAt(2012, time.January), repeat(1, 6)...)
	// A current bulletin in the middle of the series does not enter the slope.
	s = append(s[:3], append([]domain.BulletinSample{{Bulletin: start + 2, Cutoff: domain.CurrentCutoff()}}, s[3:]...)...)

	res := Compute(Input{Series: s})
	assert.False(t, res.IsCurrent)
	assert.Equal(t, 7, res.Samples)
	assert.InDelta(t, 12.0, res.RatePerYear, 1e-9)
}

func TestCompute_RetrogressionClampsAndHalvesConfidence(t *testing.T) {
	start := domain.MonthAt(2024, time.January)
	res := Compute(Input{Series: series(start, domain.MonthAt(2013, time.January), repeat(-1, 8)...)})

	assert.True(t, res.Retrogressed)
	assert.Equal(t, MinRate, res.RatePerYear)
	// Clean deltas give 1.0 before the halving.
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
	assert.True(t, res.NeedsDisclosure)
}

func TestCompute_StaleHistoryDecays(t *testing.T) {
	start := domain.MonthAt(2024, time.January)
	s := series(start, domain.MonthAt(2012, time.January), repeat(1, 12)...)
	last := s[len(s)-1].Bulletin

	// 14 months after the last bulletin: exp(-(14-2)/12) = exp(-1).
	res := Compute(Input{Series: s, AsOf: (last + 14).Time()})
	assert.InDelta(t, math.Exp(-1), res.Confidence, 1e-9)
	assert.True(t, res.NeedsDisclosure)
}

func TestCompute_NoisyHistoryNeedsDisclosure(t *testing.T) {
	start := domain.MonthAt(2024, time.January)
	moves := []int{0, 0, 6, 0, 0, 6, 0, 0, 6, 0, 0, 6}
	res := Compute(Input{Series: series(start, domain.MonthAt(2012, time.January), moves...)})

	assert.InDelta(t, 24.0, res.RatePerYear, 1e-9)
	assert.Less(t, res.Confidence, DisclosureThreshold)
	assert.True(t, res.NeedsDisclosure)
}

func TestCompute_WindowKeepsMostRecent(t *testing.T) {
	start := domain.MonthAt(2023, time.January)
	// Fast early movement, then half speed across the last 12 intervals.
	moves := append(repeat(3, 7), []int{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}...)
	res := Compute(Input{Series: series(start, domain.MonthAt(2010, time.January), moves...), Window: 12})

	assert.Equal(t, 13, res.Samples)
	assert.InDelta(t, 6.0, res.RatePerYear, 1e-9)
}

func TestProjectMonthsToReach(t *testing.T) {
	cut := domain.CutoffAt(domain.MonthAt(2013, time.January))

	// pd Dec 2014 needs the cutoff to reach Jan 2015: 24 months at 6/year.
	assert.InDelta(t, 48.0, ProjectMonthsToReach(cut, domain.MonthAt(2014, time.December), 6), 1e-9)
	assert.Equal(t, 0.0, ProjectMonthsToReach(cut, domain.MonthAt(2012, time.June), 6))
	assert.InDelta(t, 3.0, ProjectMonthsToReach(cut, domain.MonthAt(2013, time.January), 0), 1e-9, "zero rate uses the fallback")
}

func TestResult_WaitRange(t *testing.T) {
	lo, hi := Result{Confidence: 1}.WaitRange(23)
	assert.InDelta(t, 20.0, lo, 1e-9)
	assert.InDelta(t, 26.45, hi, 1e-9)

	lo, hi = Result{Confidence: 0.2}.WaitRange(0)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestModel_Estimate(t *testing.T) {
	cat := catalog.Default()
	m := NewModel(cat.HistoryAll(), 0)
	asOf := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	snap := cat.DefaultSnapshot(asOf)
	latest := func(c domain.Category, ch domain.Chargeability) domain.Cutoff {
		return snap.FinalAction.Lookup(c, ch)
	}

	eb2 := m.Estimate(domain.CategoryEB2, domain.ChargeIndia, latest(domain.CategoryEB2, domain.ChargeIndia), asOf)
	require.False(t, eb2.IsCurrent)
	assert.Greater(t, eb2.RatePerYear, 0.0)
	assert.Equal(t, DefaultWindow+1, eb2.Samples)

	row := m.Estimate(domain.CategoryEB1, domain.ChargeAllOther, latest(domain.CategoryEB1, domain.ChargeAllOther), asOf)
	assert.True(t, row.IsCurrent)

	retro := m.Estimate(domain.CategoryEB1, domain.ChargeAllOther, domain.CutoffAt(domain.MonthAt(2022, time.January)), asOf)
	assert.False(t, retro.IsCurrent)
	assert.True(t, retro.NeedsDisclosure)

	eb5 := m.Estimate(domain.CategoryEB5, domain.ChargeIndia, domain.CurrentCutoff(), asOf)
	assert.True(t, eb5.IsCurrent)
}

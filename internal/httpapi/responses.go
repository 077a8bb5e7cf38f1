package httpapi

import (
	"time"

	"github.com/alexanderramin/greenpath/internal/casestatus"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/livedata"
	"github.com/alexanderramin/greenpath/internal/reconcile"
	"github.com/alexanderramin/greenpath/internal/service"
	"github.com/alexanderramin/greenpath/internal/velocity"
)

// YearRangeResponse is a min/max range in years with its display string.
type YearRangeResponse struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Display string  `json:"display"`
}

type VelocityResponse struct {
	Category        string  `json:"category"`
	Chargeability   string  `json:"chargeability"`
	RatePerYear     float64 `json:"rate_per_year"`
	Confidence      float64 `json:"confidence"`
	Explanation     string  `json:"explanation"`
	Samples         int     `json:"samples"`
	IsCurrent       bool    `json:"is_current"`
	NeedsDisclosure bool    `json:"needs_disclosure"`
	FallbackUsed    bool    `json:"fallback_used"`
	Retrogressed    bool    `json:"retrogressed"`
}

type StageResponse struct {
	NodeID          string            `json:"node_id"`
	Name            string            `json:"name"`
	Track           string            `json:"track"`
	StartYears      float64           `json:"start_years"`
	LatestStart     float64           `json:"latest_start"`
	Duration        YearRangeResponse `json:"duration"`
	IsPriorityWait  bool              `json:"is_priority_wait"`
	IsConcurrent    bool              `json:"is_concurrent"`
	Note            string            `json:"note,omitempty"`
	PriorityDateStr string            `json:"priority_date,omitempty"`
	Velocity        *StageVelocity    `json:"velocity,omitempty"`
	Cost            string            `json:"cost"`
}

// StageVelocity annotates a wait stage with the rate it was sized by.
type StageVelocity struct {
	RatePerYear     float64 `json:"rate_per_year"`
	Explanation     string  `json:"explanation"`
	Confidence      float64 `json:"confidence"`
	NeedsDisclosure bool    `json:"needs_disclosure"`
	FallbackUsed    bool    `json:"fallback_used"`
}

type StageStateResponse struct {
	NodeID    string            `json:"node_id"`
	Name      string            `json:"name"`
	Status    string            `json:"status"`
	Milestone string            `json:"milestone,omitempty"`
	Remaining YearRangeResponse `json:"remaining"`
	Warning   string            `json:"warning,omitempty"`
}

type ReconcileResponse struct {
	Stages                []StageStateResponse `json:"stages"`
	Schedule              []StageResponse      `json:"schedule"`
	Remaining             YearRangeResponse    `json:"remaining"`
	EffectivePriorityDate string               `json:"effective_priority_date"`
	PriorityDateSource    string               `json:"priority_date_source"`
	Wait                  string               `json:"wait"`
	Warnings              []string             `json:"warnings,omitempty"`
	Unmatched             []string             `json:"unmatched_milestones,omitempty"`
}

type PathResponse struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Category         string             `json:"category"`
	Variant          string             `json:"variant,omitempty"`
	TotalYears       YearRangeResponse  `json:"total_years"`
	EstimatedCost    string             `json:"estimated_cost"`
	HasLottery       bool               `json:"has_lottery"`
	IsSelfPetition   bool               `json:"is_self_petition"`
	ConcurrentFiling bool               `json:"concurrent_filing"`
	PriorityDate     string             `json:"priority_date"`
	UsingDefaults    bool               `json:"using_defaults"`
	Stages           []StageResponse    `json:"stages"`
	Velocity         VelocityResponse   `json:"velocity"`
	Reconciled       *ReconcileResponse `json:"reconciled,omitempty"`
}

type SnapshotSummary struct {
	Source          string    `json:"source"`
	AsOf            time.Time `json:"as_of"`
	FetchedAt       time.Time `json:"fetched_at"`
	UsingDefaults   bool      `json:"using_defaults"`
	Stale           bool      `json:"stale"`
	DefaultedFields []string  `json:"defaulted_fields,omitempty"`
}

type ProjectionResponse struct {
	Generation    uint64          `json:"generation"`
	Chargeability string          `json:"chargeability"`
	Snapshot      SnapshotSummary `json:"snapshot"`
	CaseID        string          `json:"case_id,omitempty"`
	Paths         []PathResponse  `json:"paths"`
	ComputedAt    time.Time       `json:"computed_at"`
}

type TimingResponse struct {
	MinMonths   float64 `json:"min_months"`
	MaxMonths   float64 `json:"max_months"`
	PremiumDays *int    `json:"premium_days,omitempty"`
}

type SnapshotResponse struct {
	SnapshotSummary
	ProcessingTimes  map[string]TimingResponse    `json:"processing_times"`
	FinalActionDates map[string]map[string]string `json:"final_action_dates"`
	DatesForFiling   map[string]map[string]string `json:"dates_for_filing"`
	RefreshError     string                       `json:"refresh_error,omitempty"`
}

type CaseStatusResponse struct {
	Receipt     string    `json:"receipt"`
	Status      string    `json:"status"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CheckedAt   time.Time `json:"checked_at"`
}

func fromYearRange(r domain.YearRange) YearRangeResponse {
	return YearRangeResponse{Min: r.Min, Max: r.Max, Display: r.Display()}
}

func fromVelocity(v velocity.Result) VelocityResponse {
	return VelocityResponse{
		Category:        string(v.Category),
		Chargeability:   string(v.Chargeability),
		RatePerYear:     v.RatePerYear,
		Confidence:      v.Confidence,
		Explanation:     v.Explanation,
		Samples:         v.Samples,
		IsCurrent:       v.IsCurrent,
		NeedsDisclosure: v.NeedsDisclosure,
		FallbackUsed:    v.FallbackUsed,
		Retrogressed:    v.Retrogressed,
	}
}

func fromStages(stages []domain.ComposedStage) []StageResponse {
	out := make([]StageResponse, 0, len(stages))
	for _, s := range stages {
		var v *StageVelocity
		if s.Velocity != nil {
			v = &StageVelocity{
				RatePerYear:     s.Velocity.RatePerYear,
				Explanation:     s.Velocity.Explanation,
				Confidence:      s.Velocity.Confidence,
				NeedsDisclosure: s.Velocity.NeedsDisclosure,
				FallbackUsed:    s.Velocity.FallbackUsed,
			}
		}
		out = append(out, StageResponse{
			NodeID:          s.NodeID,
			Name:            s.Name,
			Track:           string(s.Track),
			StartYears:      s.StartYears,
			LatestStart:     s.LatestStart,
			Duration:        fromYearRange(s.Duration),
			IsPriorityWait:  s.IsPriorityWait,
			IsConcurrent:    s.IsConcurrent,
			Note:            s.Note,
			PriorityDateStr: s.PriorityDateStr,
			Velocity:        v,
			Cost:            s.Cost.StringFixed(2),
		})
	}
	return out
}

func fromReconcile(r *reconcile.Result) *ReconcileResponse {
	if r == nil {
		return nil
	}
	out := &ReconcileResponse{
		Schedule:              fromStages(r.Schedule),
		Remaining:             fromYearRange(r.Remaining),
		EffectivePriorityDate: r.EffectivePriorityDate.String(),
		PriorityDateSource:    string(r.PriorityDateSource),
		Wait:                  r.Wait.Kind.String(),
		Warnings:              r.Warnings,
	}
	for _, s := range r.Stages {
		out.Stages = append(out.Stages, StageStateResponse{
			NodeID:    s.NodeID,
			Name:      s.Name,
			Status:    string(s.Status),
			Milestone: string(s.Milestone),
			Remaining: fromYearRange(s.Remaining),
			Warning:   s.Warning,
		})
	}
	for _, k := range r.Unmatched {
		out.Unmatched = append(out.Unmatched, string(k))
	}
	return out
}

func fromSnapshotSummary(snap domain.Snapshot, source livedata.Source) SnapshotSummary {
	return SnapshotSummary{
		Source:          string(source),
		AsOf:            snap.AsOf,
		FetchedAt:       snap.FetchedAt,
		UsingDefaults:   snap.UsingDefaults,
		Stale:           snap.Stale,
		DefaultedFields: snap.DefaultedFields,
	}
}

// FromProjection converts a pipeline result to its HTTP shape.
func FromProjection(p *service.Projection) *ProjectionResponse {
	out := &ProjectionResponse{
		Generation:    p.Generation,
		Chargeability: string(p.Chargeability),
		Snapshot:      fromSnapshotSummary(p.Snapshot, p.SnapshotSource),
		CaseID:        p.CaseID,
		Paths:         make([]PathResponse, 0, len(p.Paths)),
		ComputedAt:    p.ComputedAt,
	}
	for _, pp := range p.Paths {
		path := pp.Path
		out.Paths = append(out.Paths, PathResponse{
			ID:               path.ID,
			Name:             path.Name,
			Category:         string(path.Category),
			Variant:          path.Variant,
			TotalYears:       fromYearRange(path.TotalYears),
			EstimatedCost:    path.EstimatedCost.StringFixed(2),
			HasLottery:       path.HasLottery,
			IsSelfPetition:   path.IsSelfPetition,
			ConcurrentFiling: path.ConcurrentFiling,
			PriorityDate:     path.PriorityDate.String(),
			UsingDefaults:    path.UsingDefaults,
			Stages:           fromStages(path.Stages),
			Velocity:         fromVelocity(pp.Velocity),
			Reconciled:       fromReconcile(pp.Reconciled),
		})
	}
	return out
}

// FromSnapshot converts a provider result, including every table cell.
func FromSnapshot(res livedata.Result) *SnapshotResponse {
	snap := res.Snapshot
	out := &SnapshotResponse{
		SnapshotSummary:  fromSnapshotSummary(snap, res.Source),
		ProcessingTimes:  make(map[string]TimingResponse, len(snap.Processing)),
		FinalActionDates: fromTable(snap.FinalAction),
		DatesForFiling:   fromTable(snap.DatesForFiling),
	}
	for k, v := range snap.Processing {
		out.ProcessingTimes[string(k)] = TimingResponse{MinMonths: v.MinMonths, MaxMonths: v.MaxMonths, PremiumDays: v.PremiumDays}
	}
	return out
}

func fromTable(t domain.PriorityDateTable) map[string]map[string]string {
	out := make(map[string]map[string]string, len(t))
	for cat, row := range t {
		cells := make(map[string]string, len(row))
		for ch, c := range row {
			cells[string(ch)] = c.String()
		}
		out[string(cat)] = cells
	}
	return out
}

func fromCaseStatus(r *casestatus.Result) *CaseStatusResponse {
	return &CaseStatusResponse{
		Receipt:     r.Receipt,
		Status:      string(r.Status),
		Title:       r.Title,
		Description: r.Description,
		CheckedAt:   r.CheckedAt,
	}
}

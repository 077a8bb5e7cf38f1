// Package composer expands admissible templates into dated, dual-track paths.
package composer

import (
	"math"
	"time"

	"github.com/alexanderramin/greenpath/internal/catalog"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/eligibility"
	"github.com/alexanderramin/greenpath/internal/velocity"
	"github.com/shopspring/decimal"
)

// Options are the user-selected composition switches.
type Options struct {
	Now             time.Time
	Premium         bool
	AssumePERMAudit bool
}

// Input is everything one composition needs.
type Input struct {
	Admissible    eligibility.Admissible
	Chargeability domain.Chargeability
	Snapshot      domain.Snapshot
	Velocity      velocity.Result
	Options       Options
	// Catalog defaults to the embedded catalog.
	Catalog *catalog.Catalog
}

// gcRank orders node kinds on the gc track.
var gcRank = map[catalog.Kind]int{
	catalog.KindLabor:      1,
	catalog.KindPetition:   2,
	catalog.KindAdjustment: 3,
}

// Compose builds one ComposedPath. Unknown node ids and misordered tracks
// are reported as *InvariantError.
func Compose(in Input) (*domain.ComposedPath, error) {
	cat := in.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	a := in.Admissible
	now := in.Options.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	entryNodes, err := lookupNodes(cat, a.TemplateID, a.EntryStages, domain.TrackStatus)
	if err != nil {
		return nil, err
	}
	for _, n := range entryNodes {
		if n.Kind != catalog.KindEntry {
			return nil, &InvariantError{TemplateID: a.TemplateID, NodeID: n.ID, Reason: "status track accepts entry stages only"}
		}
	}
	gcNodes, err := lookupNodes(cat, a.TemplateID, a.GCStages, domain.TrackGC)
	if err != nil {
		return nil, err
	}
	if err := checkGCOrder(a.TemplateID, gcNodes); err != nil {
		return nil, err
	}
	waitNode, ok := cat.Node(catalog.NodeWait)
	if !ok {
		return nil, &InvariantError{TemplateID: a.TemplateID, NodeID: catalog.NodeWait, Reason: "unknown node"}
	}
	terminal, ok := cat.Node(catalog.NodeGreenCard)
	if !ok {
		return nil, &InvariantError{TemplateID: a.TemplateID, NodeID: catalog.NodeGreenCard, Reason: "unknown node"}
	}

	entrySteps, err := buildSteps(cat, a.TemplateID, entryNodes, in)
	if err != nil {
		return nil, err
	}
	gcSteps, err := buildSteps(cat, a.TemplateID, gcNodes, in)
	if err != nil {
		return nil, err
	}

	statusStages, _ := Layout(domain.YearRange{}, entrySteps)
	origin := checkpointEnd(statusStages, entryNodes)

	pd, label := priorityDate(a, gcNodes, gcSteps, origin, now)
	plan := PlanWait(a.Category, in.Chargeability, pd, in.Snapshot, in.Velocity)
	plan.PriorityDateLabel = label

	arranged := ArrangeGC(origin, gcSteps, plan, in.Snapshot, waitNode.Name)
	gcStages, gcEnd := Layout(origin, arranged)

	if err := verifyTrack(a.TemplateID, statusStages, domain.YearRange{}); err != nil {
		return nil, err
	}
	if err := verifyTrack(a.TemplateID, gcStages, origin); err != nil {
		return nil, err
	}

	stages := make([]domain.ComposedStage, 0, len(statusStages)+len(gcStages)+1)
	stages = append(stages, statusStages...)
	stages = append(stages, gcStages...)
	stages = append(stages, domain.ComposedStage{
		NodeID:      terminal.ID,
		Name:        terminal.Name,
		Track:       domain.TrackGC,
		StartYears:  gcEnd.Min,
		LatestStart: gcEnd.Max,
		Cost:        decimal.Zero,
	})

	total := decimal.Zero
	for _, s := range stages {
		total = total.Add(s.Cost)
	}

	return &domain.ComposedPath{
		ID:               a.TemplateID,
		Name:             a.Name,
		Category:         a.Category,
		Stages:           stages,
		TotalYears:       gcEnd,
		EstimatedCost:    total,
		HasLottery:       a.HasLottery,
		IsSelfPetition:   a.SelfPetition,
		ConcurrentFiling: plan.Kind != WaitApproval,
		PriorityDate:     pd,
		UsingDefaults:    in.Snapshot.UsingDefaults,
		Variant:          a.Variant,

		PriorityDateRetained: a.PriorityDate != nil,
	}, nil
}

func lookupNodes(cat *catalog.Catalog, templateID string, ids []string, track domain.Track) ([]catalog.Node, error) {
	out := make([]catalog.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := cat.Node(id)
		if !ok {
			return nil, &InvariantError{TemplateID: templateID, NodeID: id, Reason: "unknown node"}
		}
		if n.Track != track {
			return nil, &InvariantError{TemplateID: templateID, NodeID: id, Reason: "node belongs to the " + string(n.Track) + " track"}
		}
		out = append(out, n)
	}
	return out, nil
}

func checkGCOrder(templateID string, nodes []catalog.Node) error {
	prev := 0
	for _, n := range nodes {
		rank, ok := gcRank[n.Kind]
		if !ok {
			return &InvariantError{TemplateID: templateID, NodeID: n.ID, Reason: "wait and terminal stages are inserted by composition"}
		}
		if rank < prev {
			return &InvariantError{TemplateID: templateID, NodeID: n.ID, Reason: "gc stages out of order"}
		}
		prev = rank
	}
	return nil
}

func buildSteps(cat *catalog.Catalog, templateID string, nodes []catalog.Node, in Input) ([]Step, error) {
	out := make([]Step, 0, len(nodes))
	for _, n := range nodes {
		s, err := stepFor(cat, templateID, n, in)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// stepFor resolves duration and cost for one node. Agency timing comes
// from the snapshot by form key, falling back to catalog defaults; nodes
// without a form use their static duration.
func stepFor(cat *catalog.Catalog, templateID string, n catalog.Node, in Input) (Step, error) {
	s := Step{NodeID: n.ID, Name: n.Name, Track: n.Track, Cost: n.Fee}

	form := n.Form
	if n.ID == catalog.NodePERM && in.Options.AssumePERMAudit {
		form = domain.FormPERMAudit
		s.Note = "Assumes a PERM audit"
	}

	switch {
	case form != "":
		t, ok := in.Snapshot.Processing[form]
		if !ok {
			t, ok = cat.DefaultProcessing()[form]
		}
		if !ok {
			return Step{}, &InvariantError{TemplateID: templateID, NodeID: n.ID, Reason: "no processing time for form " + string(form)}
		}
		s.Duration = domain.MonthsToYears(t.MinMonths, t.MaxMonths)
		if in.Options.Premium && n.PremiumEligible() && t.PremiumDays != nil {
			m := premiumMonths(*t.PremiumDays)
			s.Duration = domain.MonthsToYears(m, m)
			s.Cost = s.Cost.Add(n.PremiumFee)
			s.Note = "Premium processing"
		}
	case n.StaticMonths != nil:
		s.Duration = domain.MonthsToYears(n.StaticMonths.Min, n.StaticMonths.Max)
	}
	return s, nil
}

func premiumMonths(days int) float64 {
	return float64(days) * 12 / 365.25
}

// checkpointEnd is where the gc track may begin: the end of the last
// checkpoint stage on the status track, or zero.
func checkpointEnd(stages []domain.ComposedStage, nodes []catalog.Node) domain.YearRange {
	var origin domain.YearRange
	for i, n := range nodes {
		if n.Checkpoint {
			origin = stages[i].End()
		}
	}
	return origin
}

// priorityDate returns the date the path waits on. A retained date wins;
// otherwise the date is set when PERM (or the first petition) is filed,
// estimated from the layout.
func priorityDate(a eligibility.Admissible, nodes []catalog.Node, steps []Step, origin domain.YearRange, now time.Time) (domain.MonthIndex, string) {
	if a.PriorityDate != nil {
		return *a.PriorityDate, a.PriorityDate.String()
	}
	offset := origin.Min
	setter := -1
	for i, n := range nodes {
		if n.ID == catalog.NodePERM {
			setter = i
			break
		}
		if setter < 0 && n.Kind == catalog.KindPetition {
			setter = i
		}
	}
	if setter < 0 {
		setter = 0
	}
	for i := 0; i < setter && i < len(steps); i++ {
		offset += steps[i].Duration.Min
	}
	pd := domain.MonthOf(now) + domain.MonthIndex(math.Round(offset*12))
	return pd, pd.String() + " (estimated)"
}

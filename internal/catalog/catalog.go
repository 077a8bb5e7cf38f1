package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// Well-known node ids the composer treats specially.
const (
	NodePWD         = "pwd"
	NodeRecruitment = "recruitment"
	NodePERM        = "perm"
	NodeI140        = "i140"
	NodeI485        = "i485"
	NodeWait        = "pd_wait"
	NodeGreenCard   = "green_card"
	NodeH1BLottery  = "h1b_lottery"
)

// Kind groups nodes by the role they play in a path.
type Kind string

const (
	KindEntry      Kind = "entry"
	KindLabor      Kind = "labor"
	KindPetition   Kind = "petition"
	KindWait       Kind = "wait"
	KindAdjustment Kind = "adjustment"
	KindTerminal   Kind = "terminal"
)

// MonthRange is a static duration for stages with no agency timing.
type MonthRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Node is one catalog stage definition.
type Node struct {
	ID           string              `yaml:"id"`
	Name         string              `yaml:"name"`
	Track        domain.Track        `yaml:"track"`
	Kind         Kind                `yaml:"kind"`
	Form         domain.FormKey      `yaml:"form"`
	StaticMonths *MonthRange         `yaml:"static_months"`
	Fee          decimal.Decimal     `yaml:"fee"`
	PremiumFee   decimal.Decimal     `yaml:"premium_fee"`
	Milestone    domain.MilestoneKey `yaml:"milestone"`
	Checkpoint   bool                `yaml:"checkpoint"`
}

// Trackable reports whether the node maps to a user-tracked milestone.
func (n Node) Trackable() bool {
	return n.Track == domain.TrackGC && n.Milestone != ""
}

// PremiumEligible reports whether premium processing applies to the node.
func (n Node) PremiumEligible() bool {
	return n.PremiumFee.IsPositive()
}

type timingDoc struct {
	MinMonths   float64 `yaml:"min_months"`
	MaxMonths   float64 `yaml:"max_months"`
	PremiumDays *int    `yaml:"premium_days"`
}

type bulletinDoc struct {
	AsOf           string                       `yaml:"as_of"`
	FinalAction    map[string]map[string]string `yaml:"final_action"`
	DatesForFiling map[string]map[string]string `yaml:"dates_for_filing"`
}

type seriesDoc struct {
	Category      string      `yaml:"category"`
	Chargeability string      `yaml:"chargeability"`
	Samples       [][2]string `yaml:"samples"`
}

type document struct {
	Version            string                       `yaml:"version"`
	Nodes              []Node                       `yaml:"nodes"`
	ProcessingDefaults map[domain.FormKey]timingDoc `yaml:"processing_defaults"`
	BulletinDefaults   bulletinDoc                  `yaml:"bulletin_defaults"`
	BulletinHistory    []seriesDoc                  `yaml:"bulletin_history"`
}

// Catalog is the immutable reference data: stage nodes, default agency
// data and historical bulletin series.
type Catalog struct {
	Version string

	nodes map[string]Node
	order []string

	processing     domain.ProcessingTimes
	finalAction    domain.PriorityDateTable
	datesForFiling domain.PriorityDateTable
	defaultsAsOf   time.Time
	history        domain.BulletinHistory
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. The embedded data is validated by
// tests, so a parse failure here is a build defect and panics.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		Version:    doc.Version,
		nodes:      make(map[string]Node, len(doc.Nodes)),
		processing: make(domain.ProcessingTimes, len(doc.ProcessingDefaults)),
		history:    make(domain.BulletinHistory, len(doc.BulletinHistory)),
	}
	for _, n := range doc.Nodes {
		if err := validateNode(n); err != nil {
			return nil, err
		}
		if _, dup := c.nodes[n.ID]; dup {
			return nil, fmt.Errorf("node %q: duplicate id", n.ID)
		}
		c.nodes[n.ID] = n
		c.order = append(c.order, n.ID)
	}

	for key, t := range doc.ProcessingDefaults {
		if t.MinMonths < 0 || t.MaxMonths < t.MinMonths {
			return nil, fmt.Errorf("processing default %s: invalid range %.1f-%.1f", key, t.MinMonths, t.MaxMonths)
		}
		c.processing[key] = domain.FormTiming{MinMonths: t.MinMonths, MaxMonths: t.MaxMonths, PremiumDays: t.PremiumDays}
	}
	for _, key := range domain.FormKeys {
		if _, ok := c.processing[key]; !ok {
			return nil, fmt.Errorf("processing default %s: missing", key)
		}
	}

	asOf, err := time.Parse("2006-01", doc.BulletinDefaults.AsOf)
	if err != nil {
		return nil, fmt.Errorf("bulletin defaults as_of: %w", err)
	}
	c.defaultsAsOf = asOf
	if c.finalAction, err = parseTable(doc.BulletinDefaults.FinalAction); err != nil {
		return nil, fmt.Errorf("final action defaults: %w", err)
	}
	if c.datesForFiling, err = parseTable(doc.BulletinDefaults.DatesForFiling); err != nil {
		return nil, fmt.Errorf("dates for filing defaults: %w", err)
	}

	for _, s := range doc.BulletinHistory {
		key, samples, err := parseSeries(s)
		if err != nil {
			return nil, err
		}
		c.history[key] = samples
	}
	return c, nil
}

func validateNode(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("node with empty id")
	}
	if n.Track != domain.TrackStatus && n.Track != domain.TrackGC {
		return fmt.Errorf("node %q: unknown track %q", n.ID, n.Track)
	}
	switch n.Kind {
	case KindEntry, KindLabor, KindPetition, KindWait, KindAdjustment, KindTerminal:
	default:
		return fmt.Errorf("node %q: unknown kind %q", n.ID, n.Kind)
	}
	if n.Milestone != "" && !domain.ValidMilestoneKey(string(n.Milestone)) {
		return fmt.Errorf("node %q: unknown milestone %q", n.ID, n.Milestone)
	}
	if n.StaticMonths != nil && n.StaticMonths.Max < n.StaticMonths.Min {
		return fmt.Errorf("node %q: static duration max below min", n.ID)
	}
	return nil
}

func parseTable(raw map[string]map[string]string) (domain.PriorityDateTable, error) {
	out := make(domain.PriorityDateTable, len(raw))
	for catKey, row := range raw {
		cat, ok := domain.ParseCategory(catKey)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", catKey)
		}
		cells := make(map[domain.Chargeability]domain.Cutoff, len(row))
		for chKey, cell := range row {
			ch, ok := domain.ParseChargeability(chKey)
			if !ok {
				return nil, fmt.Errorf("%s: unknown chargeability %q", cat, chKey)
			}
			cut, err := domain.ParseCutoff(cell)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", cat, ch, err)
			}
			cells[ch] = cut
		}
		out[cat] = cells
	}
	return out, nil
}

func parseSeries(s seriesDoc) (domain.SeriesKey, []domain.BulletinSample, error) {
	cat, ok := domain.ParseCategory(s.Category)
	if !ok {
		return domain.SeriesKey{}, nil, fmt.Errorf("history: unknown category %q", s.Category)
	}
	ch, ok := domain.ParseChargeability(s.Chargeability)
	if !ok {
		return domain.SeriesKey{}, nil, fmt.Errorf("history %s: unknown chargeability %q", cat, s.Chargeability)
	}
	key := domain.SeriesKey{Category: cat, Chargeability: ch}
	samples := make([]domain.BulletinSample, 0, len(s.Samples))
	for _, pair := range s.Samples {
		bt, err := time.Parse("2006-01", pair[0])
		if err != nil {
			return key, nil, fmt.Errorf("history %s/%s: bulletin %q: %w", cat, ch, pair[0], err)
		}
		cut, err := domain.ParseCutoff(pair[1])
		if err != nil {
			return key, nil, fmt.Errorf("history %s/%s: %w", cat, ch, err)
		}
		samples = append(samples, domain.BulletinSample{Bulletin: domain.MonthOf(bt), Cutoff: cut})
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Bulletin < samples[j].Bulletin })
	return key, samples, nil
}

// Node returns the definition for id.
func (c *Catalog) Node(id string) (Node, bool) {
	n, ok := c.nodes[id]
	return n, ok
}

// Nodes returns every node in catalog order.
func (c *Catalog) Nodes() []Node {
	out := make([]Node, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.nodes[id])
	}
	return out
}

// DefaultSnapshot builds the fallback snapshot from embedded data. Every
// field is reported as defaulted.
func (c *Catalog) DefaultSnapshot(now time.Time) domain.Snapshot {
	return domain.Snapshot{
		Processing:      c.DefaultProcessing(),
		FinalAction:     cloneTable(c.finalAction),
		DatesForFiling:  cloneTable(c.datesForFiling),
		AsOf:            c.defaultsAsOf,
		FetchedAt:       now,
		UsingDefaults:   true,
		DefaultedFields: []string{"processing", "final_action", "dates_for_filing"},
	}
}

// DefaultProcessing returns a copy of the default processing times.
func (c *Catalog) DefaultProcessing() domain.ProcessingTimes {
	out := make(domain.ProcessingTimes, len(c.processing))
	for k, v := range c.processing {
		out[k] = v
	}
	return out
}

// DefaultFinalAction returns a copy of the default final action chart.
func (c *Catalog) DefaultFinalAction() domain.PriorityDateTable { return cloneTable(c.finalAction) }

// DefaultDatesForFiling returns a copy of the default dates for filing chart.
func (c *Catalog) DefaultDatesForFiling() domain.PriorityDateTable {
	return cloneTable(c.datesForFiling)
}

// History returns the historical series for one category and chargeability.
func (c *Catalog) History(cat domain.Category, ch domain.Chargeability) []domain.BulletinSample {
	s := c.history[domain.SeriesKey{Category: cat, Chargeability: ch}]
	out := make([]domain.BulletinSample, len(s))
	copy(out, s)
	return out
}

// HistoryAll returns every series.
func (c *Catalog) HistoryAll() domain.BulletinHistory {
	out := make(domain.BulletinHistory, len(c.history))
	for k := range c.history {
		out[k] = c.History(k.Category, k.Chargeability)
	}
	return out
}

func cloneTable(t domain.PriorityDateTable) domain.PriorityDateTable {
	out := make(domain.PriorityDateTable, len(t))
	for cat, row := range t {
		cells := make(map[domain.Chargeability]domain.Cutoff, len(row))
		for ch, c := range row {
			cells[ch] = c
		}
		out[cat] = cells
	}
	return out
}

package domain

import (
	"regexp"
	"strings"
	"time"
)

var receiptPattern = regexp.MustCompile(`^[A-Z]{3}\d{10}$`)

// Receipt is an optional, validated agency receipt number.
type Receipt struct {
	raw   string
	valid bool
}

// ParseReceipt normalizes case and whitespace and validates the format.
func ParseReceipt(raw string) Receipt {
	v := strings.ToUpper(strings.TrimSpace(raw))
	return Receipt{raw: v, valid: receiptPattern.MatchString(v)}
}

func (r Receipt) IsSet() bool   { return r.raw != "" }
func (r Receipt) IsValid() bool { return r.valid }
func (r Receipt) Raw() string   { return r.raw }

// Get returns the normalized number when valid.
func (r Receipt) Get() (string, bool) {
	return r.raw, r.valid
}

// Milestone is one user-tracked real-world step.
type Milestone struct {
	Key          MilestoneKey
	Status       MilestoneStatus
	Filed        OptionalDate
	Approved     OptionalDate
	Receipt      Receipt
	PriorityDate OptionalDate
	UpdatedAt    time.Time
}

// PortedPriorityDate is a priority date carried over from an earlier petition.
type PortedPriorityDate struct {
	ID             string
	PriorityDate   OptionalDate
	FromCategory   Category
	I140ApprovedOn OptionalDate
	WithdrawnOn    OptionalDate
	CreatedAt      time.Time
}

// TrackedCase is the user's manually entered progress.
type TrackedCase struct {
	ID         string
	Label      string
	Milestones map[MilestoneKey]Milestone
	Ports      []PortedPriorityDate
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Milestone returns the milestone for key, if tracked.
func (c *TrackedCase) Milestone(key MilestoneKey) (Milestone, bool) {
	if c == nil || c.Milestones == nil {
		return Milestone{}, false
	}
	m, ok := c.Milestones[key]
	return m, ok
}

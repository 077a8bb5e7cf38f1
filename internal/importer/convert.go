package importer

import (
	"strings"
	"time"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/google/uuid"
)

// Convert turns a validated CaseImport into a tracked case ready for
// persistence. Call ValidateCaseImport first; Convert assumes the import is
// valid.
func Convert(doc *CaseImport, now time.Time) *domain.TrackedCase {
	now = now.UTC().Truncate(time.Second)
	c := &domain.TrackedCase{
		ID:         uuid.New().String(),
		Label:      strings.TrimSpace(doc.Label),
		Milestones: make(map[domain.MilestoneKey]domain.Milestone, len(doc.Milestones)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for _, m := range doc.Milestones {
		key := domain.MilestoneKey(strings.ToLower(strings.TrimSpace(m.Key)))
		status := domain.MilestoneStatus(strings.ToLower(strings.TrimSpace(m.Status)))
		if status == "" {
			status = inferStatus(m)
		}
		c.Milestones[key] = domain.Milestone{
			Key:          key,
			Status:       status,
			Filed:        domain.ParseOptionalDate(m.FiledOn),
			Approved:     domain.ParseOptionalDate(m.ApprovedOn),
			Receipt:      domain.ParseReceipt(m.Receipt),
			PriorityDate: domain.ParseOptionalDate(m.PriorityDate),
			UpdatedAt:    now,
		}
	}

	for _, p := range doc.Ports {
		from, _ := domain.ParseCategory(p.FromCategory)
		c.Ports = append(c.Ports, domain.PortedPriorityDate{
			ID:             uuid.New().String(),
			PriorityDate:   domain.ParseOptionalDate(p.PriorityDate),
			FromCategory:   from,
			I140ApprovedOn: domain.ParseOptionalDate(p.I140ApprovedOn),
			WithdrawnOn:    domain.ParseOptionalDate(p.WithdrawnOn),
			CreatedAt:      now,
		})
	}
	return c
}

// inferStatus derives a status from whichever dates were entered.
func inferStatus(m MilestoneImport) domain.MilestoneStatus {
	switch {
	case strings.TrimSpace(m.ApprovedOn) != "":
		return domain.MilestoneApproved
	case strings.TrimSpace(m.FiledOn) != "":
		return domain.MilestoneFiled
	}
	return domain.MilestoneNotStarted
}

package importer

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/greenpath/internal/domain"
)

// ValidateCaseImport checks the structural fields of an import and returns
// every error found. Malformed dates are not errors: they are kept and read
// as absent.
func ValidateCaseImport(doc *CaseImport) []error {
	var errs []error
	errs = append(errs, validateMilestones(doc.Milestones)...)
	errs = append(errs, validatePorts(doc.Ports)...)
	return errs
}

func validateMilestones(items []MilestoneImport) []error {
	var errs []error
	seen := make(map[string]bool)
	for i, m := range items {
		prefix := fmt.Sprintf("milestones[%d]", i)
		key := strings.ToLower(strings.TrimSpace(m.Key))
		switch {
		case key == "":
			errs = append(errs, fmt.Errorf("%s.key is required", prefix))
		case !domain.ValidMilestoneKey(key):
			errs = append(errs, fmt.Errorf("%s.key: invalid value %q", prefix, m.Key))
		case seen[key]:
			errs = append(errs, fmt.Errorf("%s.key: duplicate milestone %q", prefix, key))
		}
		seen[key] = true

		if status := strings.ToLower(strings.TrimSpace(m.Status)); status != "" && !domain.ValidMilestoneStatuses[status] {
			errs = append(errs, fmt.Errorf("%s.status: invalid value %q", prefix, m.Status))
		}
		if r := domain.ParseReceipt(m.Receipt); r.IsSet() && !r.IsValid() {
			errs = append(errs, fmt.Errorf("%s.receipt: %q is not three letters followed by ten digits", prefix, m.Receipt))
		}
	}
	return errs
}

func validatePorts(items []PortImport) []error {
	var errs []error
	for i, p := range items {
		prefix := fmt.Sprintf("ports[%d]", i)
		if strings.TrimSpace(p.PriorityDate) == "" {
			errs = append(errs, fmt.Errorf("%s.priority_date is required", prefix))
		}
		if p.FromCategory != "" {
			if _, ok := domain.ParseCategory(p.FromCategory); !ok {
				errs = append(errs, fmt.Errorf("%s.from_category: invalid value %q", prefix, p.FromCategory))
			}
		}
	}
	return errs
}

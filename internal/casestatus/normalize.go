package casestatus

import (
	"strings"

	"github.com/alexanderramin/greenpath/internal/domain"
)

// rule maps title phrases to a status. Rules are checked in order, so the
// RFE response rule must precede the plain RFE and "received" rules.
type rule struct {
	status  domain.CaseStatus
	phrases []string
}

var rules = []rule{
	{domain.CaseStatusRFEResponseFiled, []string{"response to uscis' request for evidence was received", "response to request for evidence was received", "request for evidence response review"}},
	{domain.CaseStatusRFEIssued, []string{"request for evidence was sent", "request for initial evidence was sent", "request for additional evidence"}},
	{domain.CaseStatusDenied, []string{"denied", "denial notice", "terminated"}},
	{domain.CaseStatusApproved, []string{
		"approved", "card was mailed", "card is being produced", "card was delivered",
		"card was picked up", "card was returned", "welcome notice", "oath ceremony",
	}},
	{domain.CaseStatusPending, []string{
		"received", "actively reviewed", "fingerprint", "biometrics", "interview was scheduled",
		"transferred", "being processed", "was updated to show", "ready to be scheduled",
	}},
}

// Normalize maps a status page title onto the status enum. Unrecognized
// titles are CaseStatusOther, never denied.
func Normalize(title string) domain.CaseStatus {
	t := strings.ToLower(strings.Join(strings.Fields(title), " "))
	if t == "" {
		return domain.CaseStatusOther
	}
	for _, r := range rules {
		for _, p := range r.phrases {
			if strings.Contains(t, p) {
				return r.status
			}
		}
	}
	return domain.CaseStatusOther
}

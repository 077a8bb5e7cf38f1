package eligibility

import "github.com/alexanderramin/greenpath/internal/domain"

// EntryMode selects how the status track is populated.
type EntryMode int

const (
	// EntryEmployer needs work authorization from a sponsoring employer.
	EntryEmployer EntryMode = iota
	// EntryMaintain keeps whatever status the applicant holds.
	EntryMaintain
	// EntryTN enters or keeps TN status.
	EntryTN
)

// Template is one path definition. New paths are added as rows here.
type Template struct {
	ID           string
	Name         string
	GCStages     []string
	Entry        EntryMode
	SelfPetition bool
	// Category picks the green-card category and an optional variant label.
	Category func(p domain.Profile) (domain.Category, string)
	// Eligible reports admissibility and what unlocked the template.
	Eligible func(p domain.Profile) (bool, string)
}

var permStages = []string{"pwd", "recruitment", "perm", "i140", "i485"}

// petitionStages are omitted when an approved I-140 already covers the category.
var petitionStages = map[string]bool{
	"pwd": true, "recruitment": true, "perm": true,
	"i140": true, "i140_niw": true, "i140_eb1a": true, "i140_eb1b": true, "i140_eb1c": true,
}

func fixed(c domain.Category) func(domain.Profile) (domain.Category, string) {
	return func(domain.Profile) (domain.Category, string) { return c, "" }
}

func permCategory(p domain.Profile) (domain.Category, string) {
	if p.HasAdvancedDegree() {
		return domain.CategoryEB2, ""
	}
	return eb3Category(p)
}

func eb3Category(p domain.Profile) (domain.Category, string) {
	if p.HasSkilledBackground() {
		return domain.CategoryEB3, ""
	}
	return domain.CategoryEB3, "other worker"
}

// Templates is the full path table in listing order.
var Templates = []Template{
	{
		ID:       "perm-eb2",
		Name:     "EB-2 employer sponsorship (PERM)",
		GCStages: permStages,
		Entry:    EntryEmployer,
		Category: fixed(domain.CategoryEB2),
		Eligible: func(p domain.Profile) (bool, string) {
			return p.HasAdvancedDegree(), "advanced degree"
		},
	},
	{
		ID:       "perm-eb3",
		Name:     "EB-3 employer sponsorship (PERM)",
		GCStages: permStages,
		Entry:    EntryEmployer,
		Category: eb3Category,
		Eligible: func(p domain.Profile) (bool, string) {
			if p.HasSkilledBackground() {
				return true, "skilled background"
			}
			return true, "default employer route"
		},
	},
	{
		ID:       "tn-perm",
		Name:     "TN to green card (PERM)",
		GCStages: permStages,
		Entry:    EntryTN,
		Category: permCategory,
		Eligible: func(p domain.Profile) (bool, string) {
			return p.TNEligible(), "Canadian or Mexican citizenship"
		},
	},
	{
		ID:           "eb2-niw",
		Name:         "EB-2 national interest waiver",
		GCStages:     []string{"i140_niw", "i485"},
		Entry:        EntryMaintain,
		SelfPetition: true,
		Category:     fixed(domain.CategoryEB2),
		Eligible: func(p domain.Profile) (bool, string) {
			if p.HasAdvancedDegree() {
				return true, "advanced degree"
			}
			if p.Special.ExtraordinaryAbility || p.Special.OutstandingResearcher {
				return true, "exceptional ability"
			}
			return false, ""
		},
	},
	{
		ID:           "eb1a",
		Name:         "EB-1A extraordinary ability",
		GCStages:     []string{"i140_eb1a", "i485"},
		Entry:        EntryMaintain,
		SelfPetition: true,
		Category:     fixed(domain.CategoryEB1),
		Eligible: func(p domain.Profile) (bool, string) {
			return p.Special.ExtraordinaryAbility, "extraordinary ability"
		},
	},
	{
		ID:       "eb1b",
		Name:     "EB-1B outstanding researcher",
		GCStages: []string{"i140_eb1b", "i485"},
		Entry:    EntryEmployer,
		Category: fixed(domain.CategoryEB1),
		Eligible: func(p domain.Profile) (bool, string) {
			return p.Special.OutstandingResearcher, "outstanding researcher"
		},
	},
	{
		ID:       "eb1c",
		Name:     "EB-1C multinational executive or manager",
		GCStages: []string{"i140_eb1c", "i485"},
		Entry:    EntryEmployer,
		Category: fixed(domain.CategoryEB1),
		Eligible: func(p domain.Profile) (bool, string) {
			return p.Special.ExecutiveManager, "executive or manager"
		},
	},
	{
		ID:           "eb5",
		Name:         "EB-5 investor",
		GCStages:     []string{"i526e", "i485"},
		Entry:        EntryMaintain,
		SelfPetition: true,
		Category:     fixed(domain.CategoryEB5),
		Eligible: func(p domain.Profile) (bool, string) {
			return p.Special.InvestmentCapital, "investment capital"
		},
	},
	{
		ID:       "marriage",
		Name:     "Marriage to a US citizen",
		GCStages: []string{"i130", "i485"},
		Entry:    EntryMaintain,
		Category: fixed(domain.CategoryFamily),
		Eligible: func(p domain.Profile) (bool, string) {
			return p.Special.MarriedToUSCitizen, "married to a US citizen"
		},
	},
}

type entryRoute struct {
	employer []string
	maintain []string
}

var lotteryEntry = []string{"h1b_lottery", "h1b_petition"}

// entryByStatus lists status-track stages per current status.
var entryByStatus = map[domain.ImmigrationStatus]entryRoute{
	domain.StatusH1B:   {employer: []string{"h1b"}, maintain: []string{"h1b"}},
	domain.StatusL1:    {employer: []string{"l1"}, maintain: []string{"l1"}},
	domain.StatusO1:    {employer: []string{"o1"}, maintain: []string{"o1"}},
	domain.StatusTN:    {employer: []string{"tn"}, maintain: []string{"tn"}},
	domain.StatusF1:    {employer: lotteryEntry, maintain: []string{"opt"}},
	domain.StatusOPT:   {employer: lotteryEntry, maintain: []string{"opt"}},
	domain.StatusH4:    {employer: lotteryEntry},
	domain.StatusNone:  {employer: lotteryEntry},
	domain.StatusOther: {employer: lotteryEntry},
}

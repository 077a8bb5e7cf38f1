package domain

type Track string

const (
	TrackStatus Track = "status"
	TrackGC     Track = "gc"
)

type StageStatus string

const (
	StageDone       StageStatus = "done"
	StageInProgress StageStatus = "in_progress"
	StageNotStarted StageStatus = "not_started"
)

type MilestoneStatus string

const (
	MilestoneNotStarted MilestoneStatus = "not_started"
	MilestoneFiled      MilestoneStatus = "filed"
	MilestoneApproved   MilestoneStatus = "approved"
	MilestoneDenied     MilestoneStatus = "denied"
)

// ValidMilestoneStatuses is the canonical set of accepted milestone status strings.
var ValidMilestoneStatuses = map[string]bool{
	"not_started": true, "filed": true, "approved": true, "denied": true,
}

// MilestoneKey links a catalog stage to a real-world tracked milestone.
type MilestoneKey string

const (
	MilestonePWD         MilestoneKey = "pwd"
	MilestoneRecruitment MilestoneKey = "recruitment"
	MilestonePERM        MilestoneKey = "perm"
	MilestoneI140        MilestoneKey = "i140"
	MilestoneI485        MilestoneKey = "i485"
	MilestoneEADAP       MilestoneKey = "ead_ap"
)

// MilestoneKeys lists tracked milestones in filing order.
var MilestoneKeys = []MilestoneKey{
	MilestonePWD, MilestoneRecruitment, MilestonePERM, MilestoneI140, MilestoneI485, MilestoneEADAP,
}

// ValidMilestoneKey reports whether k names a tracked milestone.
func ValidMilestoneKey(k string) bool {
	for _, m := range MilestoneKeys {
		if string(m) == k {
			return true
		}
	}
	return false
}

// Category is the green-card category a path ends in.
type Category string

const (
	CategoryEB1    Category = "EB-1"
	CategoryEB2    Category = "EB-2"
	CategoryEB3    Category = "EB-3"
	CategoryEB5    Category = "EB-5"
	CategoryFamily Category = "IR-1"
)

// HasChart reports whether the visa bulletin tables carry cutoffs for c.
func (c Category) HasChart() bool {
	switch c {
	case CategoryEB1, CategoryEB2, CategoryEB3:
		return true
	}
	return false
}

// ParseCategory accepts "EB-2", "eb2", "EB2" and similar spellings.
func ParseCategory(s string) (Category, bool) {
	switch normalizeKey(s) {
	case "eb1":
		return CategoryEB1, true
	case "eb2":
		return CategoryEB2, true
	case "eb3":
		return CategoryEB3, true
	case "eb5":
		return CategoryEB5, true
	case "ir1", "family", "marriage":
		return CategoryFamily, true
	}
	return "", false
}

// Chargeability is the visa-bulletin column an applicant is counted against.
type Chargeability string

const (
	ChargeIndia    Chargeability = "india"
	ChargeChina    Chargeability = "china"
	ChargeAllOther Chargeability = "allOther"
)

// Chargeabilities lists the bulletin columns in table order.
var Chargeabilities = []Chargeability{ChargeIndia, ChargeChina, ChargeAllOther}

// ParseChargeability accepts column names and common country spellings.
func ParseChargeability(s string) (Chargeability, bool) {
	switch normalizeKey(s) {
	case "india", "in":
		return ChargeIndia, true
	case "china", "cn", "mainlandchina":
		return ChargeChina, true
	case "allother", "row", "other", "restofworld":
		return ChargeAllOther, true
	}
	return "", false
}

type ImmigrationStatus string

const (
	StatusNone  ImmigrationStatus = "none"
	StatusF1    ImmigrationStatus = "f1"
	StatusOPT   ImmigrationStatus = "opt"
	StatusH1B   ImmigrationStatus = "h1b"
	StatusH4    ImmigrationStatus = "h4"
	StatusL1    ImmigrationStatus = "l1"
	StatusTN    ImmigrationStatus = "tn"
	StatusO1    ImmigrationStatus = "o1"
	StatusOther ImmigrationStatus = "other"
)

// ValidStatuses is the canonical set of accepted immigration status strings.
var ValidStatuses = map[string]bool{
	"none": true, "f1": true, "opt": true, "h1b": true, "h4": true,
	"l1": true, "tn": true, "o1": true, "other": true,
}

type Education string

const (
	EducationNone      Education = "none"
	EducationBachelors Education = "bachelors"
	EducationMasters   Education = "masters"
	EducationDoctorate Education = "doctorate"
)

// ValidEducations is the canonical set of accepted education strings.
var ValidEducations = map[string]bool{
	"none": true, "bachelors": true, "masters": true, "doctorate": true,
}

type Experience string

const (
	ExperienceUnder2 Experience = "0-2"
	Experience2to5   Experience = "2-5"
	Experience5to10  Experience = "5-10"
	Experience10Plus Experience = "10+"
)

// ValidExperiences is the canonical set of accepted experience bands.
var ValidExperiences = map[string]bool{
	"0-2": true, "2-5": true, "5-10": true, "10+": true,
}

// AtLeastYears reports whether the band guarantees n years of experience.
func (e Experience) AtLeastYears(n int) bool {
	switch e {
	case Experience10Plus:
		return n <= 10
	case Experience5to10:
		return n <= 5
	case Experience2to5:
		return n <= 2
	}
	return n <= 0
}

// CaseStatus is the normalized result of an agency case-status lookup.
type CaseStatus string

const (
	CaseStatusPending          CaseStatus = "pending"
	CaseStatusApproved         CaseStatus = "approved"
	CaseStatusDenied           CaseStatus = "denied"
	CaseStatusRFEIssued        CaseStatus = "rfe_issued"
	CaseStatusRFEResponseFiled CaseStatus = "rfe_response_filed"
	CaseStatusOther            CaseStatus = "other"
)

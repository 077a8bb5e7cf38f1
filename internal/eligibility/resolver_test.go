package eligibility

import (
	"testing"
	"time"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(as []Admissible) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.TemplateID)
	}
	return out
}

func find(t *testing.T, as []Admissible, id string) Admissible {
	t.Helper()
	for _, a := range as {
		if a.TemplateID == id {
			return a
		}
	}
	require.Failf(t, "template not admissible", "%s not in %v", id, ids(as))
	return Admissible{}
}

func TestResolve_H1BMastersIndia(t *testing.T) {
	p := domain.Profile{
		Status:         domain.StatusH1B,
		Education:      domain.EducationMasters,
		Experience:     domain.Experience2to5,
		STEM:           true,
		CountryOfBirth: "India",
	}
	got := Resolve(p)

	assert.Equal(t, []string{"perm-eb2", "perm-eb3", "eb2-niw"}, ids(got))
	eb2 := find(t, got, "perm-eb2")
	assert.Equal(t, domain.CategoryEB2, eb2.Category)
	assert.Equal(t, []string{"h1b"}, eb2.EntryStages)
	assert.Equal(t, []string{"pwd", "recruitment", "perm", "i140", "i485"}, eb2.GCStages)
	assert.False(t, eb2.HasLottery)
	assert.Nil(t, eb2.PriorityDate)
}

func TestResolve_CanadianGetsTN(t *testing.T) {
	got := Resolve(domain.Profile{CountryOfBirth: "Canada", CanadianOrMexican: true})

	tn := find(t, got, "tn-perm")
	assert.Equal(t, []string{"tn_application", "tn"}, tn.EntryStages)
	assert.Equal(t, domain.CategoryEB3, tn.Category)
	assert.Equal(t, "other worker", tn.Variant)
}

func TestResolve_TNUsesEB2WhenQualified(t *testing.T) {
	got := Resolve(domain.Profile{Status: domain.StatusTN, CountryOfBirth: "Mexico", Education: domain.EducationDoctorate})

	tn := find(t, got, "tn-perm")
	assert.Equal(t, domain.CategoryEB2, tn.Category)
	assert.Equal(t, []string{"tn"}, tn.EntryStages)
}

func TestResolve_NoTNWithoutCitizenship(t *testing.T) {
	got := Resolve(domain.Profile{CountryOfBirth: "India", Education: domain.EducationMasters})
	assert.NotContains(t, ids(got), "tn-perm")
}

func TestResolve_PERMAlwaysAdmissible(t *testing.T) {
	got := Resolve(domain.Profile{})

	assert.Equal(t, []string{"perm-eb3"}, ids(got))
	eb3 := got[0]
	assert.Equal(t, "other worker", eb3.Variant)
	assert.True(t, eb3.HasLottery, "no status enters through the lottery")
	assert.Equal(t, []string{"h1b_lottery", "h1b_petition"}, eb3.EntryStages)
}

func TestResolve_SpecialCircumstances(t *testing.T) {
	p := domain.Profile{
		Status: domain.StatusO1,
		Special: domain.SpecialCircumstances{
			ExtraordinaryAbility:  true,
			OutstandingResearcher: true,
			ExecutiveManager:      true,
			MarriedToUSCitizen:    true,
			InvestmentCapital:     true,
		},
	}
	got := Resolve(p)

	assert.Equal(t, []string{"perm-eb3", "eb2-niw", "eb1a", "eb1b", "eb1c", "eb5", "marriage"}, ids(got))
	assert.Equal(t, "exceptional ability", find(t, got, "eb2-niw").UnlockedBy)

	eb1a := find(t, got, "eb1a")
	assert.True(t, eb1a.SelfPetition)
	assert.NotContains(t, eb1a.GCStages, "perm")
	assert.Equal(t, []string{"o1"}, eb1a.EntryStages)

	assert.Equal(t, domain.CategoryEB5, find(t, got, "eb5").Category)
	assert.Equal(t, domain.CategoryFamily, find(t, got, "marriage").Category)
}

func TestResolve_STEMStudentSelfPetitionKeepsOPT(t *testing.T) {
	p := domain.Profile{Status: domain.StatusF1, Education: domain.EducationDoctorate, STEM: true}
	niw := find(t, Resolve(p), "eb2-niw")
	assert.Equal(t, []string{"opt", "stem_opt"}, niw.EntryStages)
	assert.False(t, niw.HasLottery)
}

func TestResolve_ApprovedI140SuppressesPetitionStages(t *testing.T) {
	pd := domain.MonthAt(2015, time.March)
	p := domain.Profile{
		Status:               domain.StatusH1B,
		Education:            domain.EducationMasters,
		Experience:           domain.Experience5to10,
		ExistingPriorityDate: &domain.ExistingPriorityDate{Date: pd, Category: domain.CategoryEB2, I140Approved: true},
	}
	got := Resolve(p)

	eb2 := find(t, got, "perm-eb2")
	assert.True(t, eb2.SuppressPetition)
	assert.Equal(t, []string{"i485"}, eb2.GCStages)
	require.NotNil(t, eb2.PriorityDate)
	assert.Equal(t, pd, *eb2.PriorityDate)

	eb3 := find(t, got, "perm-eb3")
	assert.False(t, eb3.SuppressPetition, "other categories still file their own petition")
	assert.Contains(t, eb3.GCStages, "perm")
	require.NotNil(t, eb3.PriorityDate, "an approved I-140 date carries across categories")
	assert.Equal(t, pd, *eb3.PriorityDate)

	// The template table itself is never mutated.
	assert.Equal(t, permStages, Templates[0].GCStages)
}

func TestResolve_UnapprovedPriorityDateStaysInCategory(t *testing.T) {
	pd := domain.MonthAt(2019, time.June)
	p := domain.Profile{
		Education:            domain.EducationMasters,
		ExistingPriorityDate: &domain.ExistingPriorityDate{Date: pd, Category: domain.CategoryEB3},
	}
	got := Resolve(p)

	assert.Nil(t, find(t, got, "perm-eb2").PriorityDate)
	eb3 := find(t, got, "perm-eb3")
	require.NotNil(t, eb3.PriorityDate)
	assert.False(t, eb3.SuppressPetition)
}

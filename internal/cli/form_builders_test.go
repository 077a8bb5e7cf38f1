package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/testutil"
)

func TestProfileFormValues_RoundTrip(t *testing.T) {
	orig := testutil.NewTestProfile(
		testutil.WithStatus(domain.StatusH1B),
		testutil.WithEducation(domain.EducationMasters, domain.Experience5to10),
		testutil.WithCountry("India"),
		testutil.WithSTEM(),
		testutil.WithSpecial(domain.SpecialCircumstances{OutstandingResearcher: true, MarriedToUSCitizen: true}),
		testutil.WithExistingPriorityDate(domain.MonthAt(2019, time.May), domain.CategoryEB3, true),
	)

	v := profileFormValuesFrom(orig)
	assert.Equal(t, "2019-05", v.PDDate)
	assert.ElementsMatch(t, []string{specialResearcher, specialMarried}, v.Special)

	var got domain.Profile
	require.NoError(t, v.apply(&got))
	assert.Equal(t, orig.Status, got.Status)
	assert.Equal(t, orig.Education, got.Education)
	assert.Equal(t, orig.Experience, got.Experience)
	assert.Equal(t, orig.Special, got.Special)
	assert.True(t, got.STEM)
	require.NotNil(t, got.ExistingPriorityDate)
	assert.Equal(t, *orig.ExistingPriorityDate, *got.ExistingPriorityDate)
}

func TestProfileFormValues_ApplyNormalizesCategory(t *testing.T) {
	v := &profileFormValues{Status: "h1b", Education: "masters", Experience: "0-2", PDDate: "2020-01-15", PDCategory: "eb2"}
	var p domain.Profile
	require.NoError(t, v.apply(&p))
	require.NotNil(t, p.ExistingPriorityDate)
	assert.Equal(t, domain.CategoryEB2, p.ExistingPriorityDate.Category)
	assert.Equal(t, domain.MonthAt(2020, time.January), p.ExistingPriorityDate.Date)
}

func TestProfileFormValues_ApplyErrors(t *testing.T) {
	p := domain.Profile{ExistingPriorityDate: &domain.ExistingPriorityDate{}}

	require.NoError(t, (&profileFormValues{}).apply(&p))
	assert.Nil(t, p.ExistingPriorityDate, "blank date clears it")

	assert.Error(t, (&profileFormValues{PDDate: "someday", PDCategory: "EB-2"}).apply(&p))
	assert.Error(t, (&profileFormValues{PDDate: "2020-01"}).apply(&p))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateOptionalMonth(""))
	assert.NoError(t, validateOptionalMonth("2019-05"))
	assert.NoError(t, validateOptionalMonth("2019-05-01"))
	assert.Error(t, validateOptionalMonth("May"))

	assert.NoError(t, validateOptionalCategory(""))
	assert.NoError(t, validateOptionalCategory("eb-3"))
	assert.Error(t, validateOptionalCategory("H-1B"))
}

func TestEnumFlag(t *testing.T) {
	f := newEnumFlag("education", domain.ValidEducations)
	require.NoError(t, f.Set(" Masters "))
	assert.Equal(t, "masters", f.String())
	assert.Equal(t, "education", f.Type())

	err := f.Set("phd")
	require.Error(t, err)
	assert.Equal(t, "must be one of bachelors, doctorate, masters, none", err.Error())
	assert.Equal(t, "masters", f.String(), "rejected value leaves the flag unchanged")
}

func TestCategoryFlag(t *testing.T) {
	var f categoryFlag
	require.NoError(t, f.Set("EB2"))
	assert.Equal(t, "EB-2", f.String())
	assert.ErrorContains(t, f.Set("h1b"), "unknown category")
}

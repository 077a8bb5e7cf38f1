package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/greenpath/internal/domain"
)

// FormatProfile renders the stored applicant profile.
func FormatProfile(p *domain.Profile) string {
	country := p.CountryOfBirth
	if country == "" {
		country = Dim("--")
	}
	rows := [][]string{
		{"Status", string(p.Status)},
		{"Education", string(p.Education)},
		{"Experience", string(p.Experience) + " years"},
		{"STEM", yesNo(p.STEM)},
		{"Country of birth", fmt.Sprintf("%s %s", country, Dim("("+string(p.Chargeability())+")"))},
		{"Canadian or Mexican", yesNo(p.CanadianOrMexican)},
	}

	var special []string
	s := p.Special
	for _, f := range []struct {
		on   bool
		name string
	}{
		{s.ExtraordinaryAbility, "extraordinary ability"},
		{s.OutstandingResearcher, "outstanding researcher"},
		{s.ExecutiveManager, "executive or manager"},
		{s.MarriedToUSCitizen, "married to a US citizen"},
		{s.InvestmentCapital, "investment capital"},
	} {
		if f.on {
			special = append(special, f.name)
		}
	}
	if len(special) == 0 {
		rows = append(rows, []string{"Special", Dim("none")})
	} else {
		rows = append(rows, []string{"Special", strings.Join(special, ", ")})
	}

	if e := p.ExistingPriorityDate; e != nil {
		pd := fmt.Sprintf("%s %s", e.Date, e.Category)
		if e.I140Approved {
			pd += StyleGreen.Render(" (I-140 approved)")
		}
		rows = append(rows, []string{"Priority date", pd})
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(Dim(fmt.Sprintf("%-20s", r[0])) + " " + r[1] + "\n")
	}
	return RenderBox("Profile", b.String())
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return Dim("no")
}

package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMinimalImport() *CaseImport {
	return &CaseImport{
		Label: "Employer case",
		Milestones: []MilestoneImport{
			{Key: "perm", Status: "approved", FiledOn: "2023-02-10", ApprovedOn: "2024-01-05"},
		},
	}
}

func joined(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

func TestValidateCaseImport_ValidMinimal(t *testing.T) {
	assert.Empty(t, ValidateCaseImport(validMinimalImport()))
}

func TestValidateCaseImport_MalformedDatesAreNotErrors(t *testing.T) {
	doc := validMinimalImport()
	doc.Milestones[0].FiledOn = "sometime in spring"
	doc.Ports = []PortImport{{PriorityDate: "not a date", FromCategory: "EB-3"}}
	assert.Empty(t, ValidateCaseImport(doc))
}

func TestValidateCaseImport_InvalidEnums(t *testing.T) {
	doc := validMinimalImport()
	doc.Milestones = append(doc.Milestones,
		MilestoneImport{Key: "i131", Status: "filed"},
		MilestoneImport{Key: "i140", Status: "pending"},
	)
	errs := ValidateCaseImport(doc)
	require.Len(t, errs, 2)
	msg := joined(errs)
	assert.Contains(t, msg, `milestones[1].key: invalid value "i131"`)
	assert.Contains(t, msg, `milestones[2].status: invalid value "pending"`)
}

func TestValidateCaseImport_MissingAndDuplicateKeys(t *testing.T) {
	doc := validMinimalImport()
	doc.Milestones = append(doc.Milestones,
		MilestoneImport{Status: "filed"},
		MilestoneImport{Key: "PERM", Status: "filed"},
	)
	msg := joined(ValidateCaseImport(doc))
	assert.Contains(t, msg, "milestones[1].key is required")
	assert.Contains(t, msg, `duplicate milestone "perm"`)
}

func TestValidateCaseImport_Receipt(t *testing.T) {
	doc := validMinimalImport()
	doc.Milestones[0].Receipt = "ioe0912345678"
	assert.Empty(t, ValidateCaseImport(doc), "receipt check is case-insensitive")

	doc.Milestones[0].Receipt = "IOE12"
	msg := joined(ValidateCaseImport(doc))
	assert.Contains(t, msg, "milestones[0].receipt")
}

func TestValidateCaseImport_Ports(t *testing.T) {
	doc := validMinimalImport()
	doc.Ports = []PortImport{
		{FromCategory: "EB-3"},
		{PriorityDate: "2015-03", FromCategory: "H-1B"},
	}
	msg := joined(ValidateCaseImport(doc))
	assert.Contains(t, msg, "ports[0].priority_date is required")
	assert.Contains(t, msg, `ports[1].from_category: invalid value "H-1B"`)
}

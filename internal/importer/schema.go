package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// CaseImport is the top-level structure of a tracked-case import file.
type CaseImport struct {
	Label      string            `json:"label" yaml:"label"`
	Milestones []MilestoneImport `json:"milestones" yaml:"milestones"`
	Ports      []PortImport      `json:"ports,omitempty" yaml:"ports,omitempty"`
}

// MilestoneImport is one milestone row. Dates are kept as entered.
type MilestoneImport struct {
	Key          string `json:"key" yaml:"key"`
	Status       string `json:"status" yaml:"status"`
	FiledOn      string `json:"filed_on,omitempty" yaml:"filed_on,omitempty"`
	ApprovedOn   string `json:"approved_on,omitempty" yaml:"approved_on,omitempty"`
	Receipt      string `json:"receipt,omitempty" yaml:"receipt,omitempty"`
	PriorityDate string `json:"priority_date,omitempty" yaml:"priority_date,omitempty"`
}

// PortImport is a priority date carried over from an earlier petition.
type PortImport struct {
	PriorityDate   string `json:"priority_date" yaml:"priority_date"`
	FromCategory   string `json:"from_category" yaml:"from_category"`
	I140ApprovedOn string `json:"i140_approved_on,omitempty" yaml:"i140_approved_on,omitempty"`
	WithdrawnOn    string `json:"withdrawn_on,omitempty" yaml:"withdrawn_on,omitempty"`
}

// LoadCaseImport reads a case import file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func LoadCaseImport(path string) (*CaseImport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes a JSON case import.
func ParseJSON(data []byte) (*CaseImport, error) {
	var doc CaseImport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &doc, nil
}

// ParseYAML decodes a YAML case import.
func ParseYAML(data []byte) (*CaseImport, error) {
	var doc CaseImport
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &doc, nil
}

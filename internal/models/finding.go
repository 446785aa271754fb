package models

import "strings"

// Severity classifies a finding. Severe findings are issues; general findings
// are issues or suggestions depending on where they come from.
type Severity string

const (
	SeveritySevere  Severity = "severe"
	SeverityGeneral Severity = "general"
)

// ParseSeverity maps free-form severity labels (Chinese or English) onto the two
// supported levels. Anything unrecognised, including the empty string, is general.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "严重", "severe", "critical", "high":
		return SeveritySevere
	default:
		return SeverityGeneral
	}
}

// UnmarshalText lets JSON and YAML payloads use either label set.
func (s *Severity) UnmarshalText(text []byte) error {
	*s = ParseSeverity(string(text))
	return nil
}

// Label returns the label used in rendered reports.
func (s Severity) Label() string {
	if s == SeveritySevere {
		return "严重"
	}
	return "一般"
}

// Finding is a single detected problem or improvement note.
type Finding struct {
	Type        string   `json:"type"`
	Item        string   `json:"item,omitempty"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
}

// CountBySeverity returns the number of severe and general findings.
func CountBySeverity(findings []Finding) (severe, general int) {
	for _, f := range findings {
		switch f.Severity {
		case SeveritySevere:
			severe++
		case SeverityGeneral:
			general++
		}
	}
	return severe, general
}

package schema

import "strings"

// SectionReport scores one region of the document.
type SectionReport struct {
	Errors   int     `json:"errors"`
	Warnings int     `json:"warnings"`
	Score    float64 `json:"score"`
}

// ComplianceReport condenses a validation result into a 0-100 score with a
// per-section breakdown. Errors cost 10 points each, warnings 2.
type ComplianceReport struct {
	Score    float64                  `json:"score"`
	IsValid  bool                     `json:"isValid"`
	Errors   int                      `json:"errors"`
	Warnings int                      `json:"warnings"`
	Fixes    int                      `json:"fixesApplied"`
	Sections map[string]SectionReport `json:"sections"`
}

const (
	errorPenalty   = 10.0
	warningPenalty = 2.0
)

func BuildComplianceReport(result *Result) ComplianceReport {
	report := ComplianceReport{
		IsValid:  result.IsValid,
		Errors:   len(result.Errors),
		Warnings: len(result.Warnings),
		Fixes:    len(result.FixesApplied),
		Score:    score(len(result.Errors), len(result.Warnings)),
		Sections: map[string]SectionReport{},
	}

	sectionErrors := map[string]int{"metadata": 0, "slides": 0, "shapes": 0}
	sectionWarnings := map[string]int{"metadata": 0, "slides": 0, "shapes": 0}
	for _, violation := range result.Errors {
		sectionErrors[sectionOf(violation.Path)]++
	}
	for _, warning := range result.Warnings {
		sectionWarnings[sectionOf(warning.Path)]++
	}

	for _, name := range []string{"metadata", "slides", "shapes"} {
		report.Sections[name] = SectionReport{
			Errors:   sectionErrors[name],
			Warnings: sectionWarnings[name],
			Score:    score(sectionErrors[name], sectionWarnings[name]),
		}
	}
	return report
}

// sectionOf buckets a violation path. Anything under a shapes segment
// counts as shapes; other slide paths as slides; the rest as metadata.
func sectionOf(path string) string {
	if strings.Contains(path, "/shapes/") {
		return "shapes"
	}
	if strings.HasPrefix(path, "slides") {
		return "slides"
	}
	return "metadata"
}

func score(errors, warnings int) float64 {
	value := 100.0 - errorPenalty*float64(errors) - warningPenalty*float64(warnings)
	if value < 0 {
		return 0
	}
	return value
}

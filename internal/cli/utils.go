// Package cli formats command output for the planreview CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/planreview/internal/library"
	"github.com/hyperjump/planreview/internal/models"
	"github.com/hyperjump/planreview/internal/report"
	"github.com/hyperjump/planreview/pkg/utils"
)

// OutputFormat is the format for listing output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// issueWidth caps the issue descriptions printed in a review summary.
const issueWidth = 60

// ParseOutputFormat accepts "text" (or "") and "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WritePoints writes the review-point library: required chapters first, then
// the points of every chapter in library order.
func WritePoints(w io.Writer, lib *library.Library, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{
			"version":           lib.Version(),
			"required_chapters": lib.RequiredChapters(),
			"review_points":     lib.All(),
		})
	}
	fmt.Fprintf(w, "# review points (version %s)\n\n", lib.Version())
	fmt.Fprintln(w, "required chapters:")
	for _, rc := range lib.RequiredChapters() {
		fmt.Fprintf(w, "  %s  [%s]\n", rc.Title, strings.Join(rc.Keywords, ", "))
	}
	for _, ch := range lib.Chapters() {
		fmt.Fprintf(w, "\n%s:\n", ch.Key)
		for _, p := range ch.Points {
			fmt.Fprintf(w, "  - %s (%s): %s\n", p.Name, p.Severity.Label(), p.ReviewFocus)
			if len(p.RequiredContent) > 0 {
				fmt.Fprintf(w, "    required: %s\n", strings.Join(p.RequiredContent, ", "))
			}
		}
	}
	return nil
}

// WriteRules writes the active pattern rules.
func WriteRules(w io.Writer, list []models.PatternRule, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{"rules": list})
	}
	fmt.Fprintf(w, "active rules: %d\n", len(list))
	for _, r := range list {
		fmt.Fprintf(w, "  %s  [%s, %s]  %s\n", r.Name, r.Kind, r.Severity.Label(), r.Pattern)
	}
	return nil
}

// WriteReviewSummary writes a short verdict line for a report saved to dest,
// followed by the severe issues.
func WriteReviewSummary(w io.Writer, dest string, rep report.Report) {
	s := rep.Summary
	fmt.Fprintf(w, "%s: %d分 %s (严重 %d, 一般 %d, 建议 %d)\n",
		dest, s.Score, rep.Conclusion.Label, s.SevereIssues, s.GeneralIssues, s.Suggestions)
	for _, group := range rep.Issues {
		for _, f := range group.Items {
			if f.Severity != models.SeveritySevere {
				continue
			}
			fmt.Fprintf(w, "  ! %s\n", utils.Truncate(f.Description, issueWidth))
		}
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

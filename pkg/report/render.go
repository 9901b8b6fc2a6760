package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
	"github.com/Coder-Joe458/ios-review-checker/pkg/review"
)

// Format is an output format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatPDF  Format = "pdf"
)

// ParseFormat parses a format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text, json, yaml or pdf)", s)
	}
}

// Localizer renders message ids
type Localizer interface {
	T(id string, data ...map[string]interface{}) string
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as YAML. Field names and order follow the JSON encoding.
func WriteYAML(w io.Writer, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to convert to yaml: %w", err)
	}
	resetStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// resetStyle drops the flow and quoting style inherited from JSON
func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		resetStyle(child)
	}
}

// WriteCheckText writes a human-readable check report
func WriteCheckText(w io.Writer, resp *review.Response, tr Localizer) error {
	if !resp.Success {
		return writeFailureText(w, resp, tr)
	}
	r := resp.CheckResult

	fmt.Fprintf(w, "=== %s ===\n\n", tr.T("report.title"))
	fmt.Fprintf(w, "%s: %s\n", tr.T("report.app"), r.AppName)
	if r.BundleID != "" {
		fmt.Fprintf(w, "%s: %s\n", tr.T("report.bundleId"), r.BundleID)
	}
	if r.Version != "" {
		fmt.Fprintf(w, "%s: %s\n", tr.T("report.version"), r.Version)
	}
	if r.IPAInfo != nil && r.IPAInfo.MinimumOSVersion != "" {
		fmt.Fprintf(w, "%s: %s\n", tr.T("report.minimumOS"), r.IPAInfo.MinimumOSVersion)
	}
	fmt.Fprintf(w, "%s: %d/%d\n", tr.T("report.passed"), r.PassedRules, r.TotalRules)
	fmt.Fprintf(w, "%s: %.0f%%\n", tr.T("report.passRate"), r.PassRate()*100)

	if r.Facts != nil && len(r.Facts.Permissions) > 0 {
		fmt.Fprintf(w, "\n%s:\n", tr.T("report.permissions"))
		for _, p := range r.Facts.Permissions {
			desc := strings.TrimSpace(p.Description)
			if desc == "" {
				desc = tr.T("report.undescribed")
			}
			fmt.Fprintf(w, "  - %s: %s\n", p.Kind, desc)
		}
	}

	fmt.Fprintf(w, "\n=== %s ===\n\n", tr.T("report.issues"))
	if len(r.Issues) == 0 {
		fmt.Fprintln(w, tr.T("report.noIssues"))
	}
	for i, issue := range r.Issues {
		fmt.Fprintf(w, "%d. [%s] %s (%s %d)\n", i+1, severityLabel(issue.Severity, tr), issue.Message, tr.T("report.rule"), issue.RuleID)
		fmt.Fprintf(w, "   %s\n", issue.Details)
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintf(w, "\n=== %s ===\n\n", tr.T("report.recommendations"))
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  • %s\n", rec)
		}
	}
	return nil
}

func writeFailureText(w io.Writer, resp *review.Response, tr Localizer) error {
	fmt.Fprintf(w, "❌ %s: %s [%s/%s]\n", tr.T("report.failed"), resp.Error, resp.Type, resp.Code)
	for _, s := range resp.Suggestions {
		fmt.Fprintf(w, "  • %s\n", s)
	}
	return nil
}

func severityLabel(s models.Severity, tr Localizer) string {
	switch s {
	case models.SeverityHigh, models.SeverityMedium, models.SeverityLow:
		return tr.T("report.severity." + string(s))
	default:
		return string(s)
	}
}

// WriteStructureText writes a human-readable package structure report
func WriteStructureText(w io.Writer, resp *review.Response, tr Localizer) error {
	if !resp.Success {
		return writeFailureText(w, resp, tr)
	}
	inv := resp.Structure

	fmt.Fprintf(w, "=== %s ===\n\n", tr.T("report.structure.title"))
	fmt.Fprintf(w, "%s: %.2f MB\n", tr.T("report.structure.size"), float64(inv.FileSize)/(1024*1024))
	fmt.Fprintf(w, "%s: %d\n", tr.T("report.structure.files"), inv.Summary.TotalFiles)
	fmt.Fprintf(w, "%s: %s\n", tr.T("report.structure.metadata"), yesNo(inv.Summary.HasMetadata, tr))
	fmt.Fprintf(w, "%s: %s\n", tr.T("report.structure.executable"), yesNo(inv.Summary.HasExecutable, tr))
	if inv.MetadataPath != "" {
		fmt.Fprintf(w, "  %s\n", inv.MetadataPath)
	}

	if app := inv.AppInfo; app != nil {
		fmt.Fprintln(w)
		if app.Name != "" {
			fmt.Fprintf(w, "%s: %s\n", tr.T("report.app"), app.Name)
		}
		if app.BundleID != "" {
			fmt.Fprintf(w, "%s: %s\n", tr.T("report.bundleId"), app.BundleID)
		}
		if app.Version != "" {
			fmt.Fprintf(w, "%s: %s\n", tr.T("report.version"), app.Version)
		}
		if app.MinimumOSVersion != "" {
			fmt.Fprintf(w, "%s: %s\n", tr.T("report.minimumOS"), app.MinimumOSVersion)
		}
	}
	if inv.Note != "" {
		fmt.Fprintf(w, "\n⚠️  %s\n", inv.Note)
	}

	if len(inv.Summary.FileTypes) > 0 {
		fmt.Fprintf(w, "\n%s:\n", tr.T("report.structure.types"))
		exts := make([]string, 0, len(inv.Summary.FileTypes))
		for ext := range inv.Summary.FileTypes {
			exts = append(exts, ext)
		}
		// Most common first
		sort.Slice(exts, func(i, j int) bool {
			ci, cj := inv.Summary.FileTypes[exts[i]], inv.Summary.FileTypes[exts[j]]
			if ci != cj {
				return ci > cj
			}
			return exts[i] < exts[j]
		})
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, ext := range exts {
			fmt.Fprintf(tw, "  %s\t%d\n", ext, inv.Summary.FileTypes[ext])
		}
		tw.Flush()
	}

	if len(inv.Entries) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, e := range inv.Entries {
			fmt.Fprintf(tw, "  %s\t%d\n", e.Name, e.Size)
		}
		tw.Flush()
	}
	if inv.Truncated {
		fmt.Fprintf(w, "  … %s\n", tr.T("report.structure.truncated", map[string]interface{}{"Limit": len(inv.Entries)}))
	}
	return nil
}

func yesNo(b bool, tr Localizer) string {
	if b {
		return tr.T("report.yes")
	}
	return tr.T("report.no")
}

// WriteRulesText writes the rule catalog as a table
func WriteRulesText(w io.Writer, rules []models.Rule, tr Localizer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", tr.T("rules.id"), tr.T("rules.category"), tr.T("rules.rule"), tr.T("rules.checkMethod"))
	fmt.Fprintln(tw, "--\t--------\t----\t------------")
	for _, r := range rules {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Category, r.Rule, r.CheckMethod)
	}
	return tw.Flush()
}

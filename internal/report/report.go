// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders synthesis results for humans and for files.
// Implements: prd006-report (R1-R3); docs/ARCHITECTURE § Reports.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// FormatSummary writes a human-readable summary table to w (R1.1-R1.4).
func FormatSummary(res *types.SynthesisResult, w io.Writer) {
	fmt.Fprintf(w, "Molecule:       %s\n", res.Molecule)
	fmt.Fprintf(w, "Disease:        %s\n", res.Disease)
	fmt.Fprintf(w, "Confidence:     %.2f\n", res.AggregateConfidence)
	fmt.Fprintf(w, "Recommendation: %s\n", res.Recommendation)
	fmt.Fprintln(w)

	if len(res.Findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	fmt.Fprintf(w, "%-26s  %-8s  %-30s  %s\n", "Dimension", "Source", "Value", "Conf")
	fmt.Fprintln(w, strings.Repeat("-", 76))
	for _, f := range res.Findings {
		fmt.Fprintf(w, "%-26s  %-8s  %-30s  %.2f\n",
			truncate(f.Dimension, 26), f.Source, truncate(renderValue(f.Value), 30), f.Confidence)
	}

	if len(res.Conflicts) > 0 {
		fmt.Fprintf(w, "\n%d conflict(s):\n", len(res.Conflicts))
		for _, c := range res.Conflicts {
			fmt.Fprintf(w, "  %-26s  severity %.2f  (%s vs %s)\n",
				truncate(c.Dimension, 26), c.Severity, describeFinding(res, c.FindingA), describeFinding(res, c.FindingB))
		}
	}

	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

// FormatJSON writes the full result as indented JSON to w (R1.5).
func FormatJSON(res *types.SynthesisResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// RenderMarkdown produces the Markdown report document (R2.1-R2.5).
func RenderMarkdown(res *types.SynthesisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Repurposing Analysis: %s for %s\n\n", res.Molecule, res.Disease)
	fmt.Fprintf(&b, "Generated: %s\n\n", res.GeneratedAt.Format("2006-01-02 15:04 MST"))

	fmt.Fprintf(&b, "## Verdict\n\n")
	fmt.Fprintf(&b, "| Aggregate Confidence | Recommendation |\n")
	fmt.Fprintf(&b, "|---------------------:|:---------------|\n")
	fmt.Fprintf(&b, "| %.2f | %s |\n\n", res.AggregateConfidence, res.Recommendation)

	fmt.Fprintf(&b, "## Findings\n\n")
	if len(res.Findings) == 0 {
		fmt.Fprintf(&b, "No findings.\n\n")
	} else {
		fmt.Fprintf(&b, "| Dimension | Source | Value | Confidence |\n")
		fmt.Fprintf(&b, "|:----------|:-------|:------|-----------:|\n")
		for _, f := range res.Findings {
			fmt.Fprintf(&b, "| %s | %s | %s | %.2f |\n",
				f.Dimension, f.Source, escapePipes(renderValue(f.Value)), f.Confidence)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Conflicts\n\n")
	if len(res.Conflicts) == 0 {
		fmt.Fprintf(&b, "No conflicts detected.\n\n")
	} else {
		fmt.Fprintf(&b, "| Dimension | Severity | Finding A | Finding B |\n")
		fmt.Fprintf(&b, "|:----------|---------:|:----------|:----------|\n")
		for _, c := range res.Conflicts {
			fmt.Fprintf(&b, "| %s | %.2f | %s | %s |\n",
				c.Dimension, c.Severity,
				escapePipes(describeFinding(res, c.FindingA)),
				escapePipes(describeFinding(res, c.FindingB)))
		}
		b.WriteString("\n")
	}

	if len(res.Warnings) > 0 {
		fmt.Fprintf(&b, "## Warnings\n\n")
		for _, warning := range res.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// WriteReport renders the result in the configured format and writes it
// under cfg.OutputDir. It returns the written path (R3.1-R3.3).
func WriteReport(res *types.SynthesisResult, cfg types.ReportConfig) (string, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	stem := fmt.Sprintf("%s-%s-%s", slug(res.Molecule), slug(res.Disease),
		res.GeneratedAt.Format("2006-01-02"))

	var (
		path string
		data []byte
	)
	switch cfg.Format {
	case types.ReportJSON:
		path = filepath.Join(cfg.OutputDir, stem+".json")
		var err error
		data, err = json.MarshalIndent(res, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling report: %w", err)
		}
		data = append(data, '\n')
	case types.ReportMarkdown, "":
		path = filepath.Join(cfg.OutputDir, stem+".md")
		data = []byte(RenderMarkdown(res))
	default:
		return "", fmt.Errorf("unknown report format %q", cfg.Format)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

func renderValue(v types.Value) string {
	switch v.Kind {
	case types.ValueNumeric:
		return fmt.Sprintf("%g", v.Number)
	case types.ValueCategorical:
		return v.Label
	default:
		return v.Text
	}
}

// describeFinding renders a conflict participant as "source: value".
// Falls back to the raw ID when the finding is not in the result.
func describeFinding(res *types.SynthesisResult, id string) string {
	f := res.FindingByID(id)
	if f == nil {
		return id
	}
	return fmt.Sprintf("%s: %s", f.Source, renderValue(f.Value))
}

// slug returns a lowercased, hyphen-separated filename component.
func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else if unicode.IsSpace(r) || r == '-' || r == '_' {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "-")
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// truncate shortens s to at most max display runes. It counts runes,
// not bytes, so a multi-byte name is never cut mid-rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

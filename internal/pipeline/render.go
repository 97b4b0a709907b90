package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/labsense/internal/explain"
	"github.com/ppiankov/labsense/internal/model"
)

// Renderer writes reports as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown renders the report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Lab report summary\n\n")
	fmt.Fprintf(&b, "- **Source:** %s\n", report.Source)
	fmt.Fprintf(&b, "- **Processed:** %s\n", report.ProcessedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- **Tests:** %d (below %d, within %d, above %d, uninterpretable %d)\n\n",
		report.Counts.Total, report.Counts.Below, report.Counts.Within, report.Counts.Above, report.Counts.Unknown)

	b.WriteString("## Results\n\n")
	b.WriteString("| Test | Value | Unit | Printed range | Status |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, rec := range report.Records {
		unit := rec.Unit
		if rec.UnitSource == model.UnitDefault {
			unit += " (assumed)"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			escapeCell(rec.Name), rec.Value.String(), escapeCell(unit), escapeCell(rangeText(rec.Range)), statusLabel(rec.Status))
	}
	b.WriteString("\n")

	b.WriteString("## Explanation\n\n")
	b.WriteString(report.ExplanationEN + "\n\n")

	if loc := report.ExplanationLocalized; loc != nil {
		fmt.Fprintf(&b, "## Explanation (%s)\n\n", loc.Language)
		b.WriteString(loc.Text + "\n\n")
		for _, f := range loc.Flagged {
			fmt.Fprintf(&b, "> Sentence %d kept in English: translation lost %s\n", f.Index+1, strings.Join(f.Missing, ", "))
		}
		if len(loc.Flagged) > 0 {
			b.WriteString("\n")
		}
	}

	if len(report.Uninterpretable) > 0 {
		b.WriteString("## Could not interpret\n\n")
		for _, rec := range report.Uninterpretable {
			fmt.Fprintf(&b, "- %s: %s %s (no usable printed range)\n", rec.Name, rec.Value.String(), rec.Unit)
		}
		b.WriteString("\n")
	}

	if report.Speech != nil && len(report.Speech.AudioFiles) > 0 {
		b.WriteString("## Audio\n\n")
		for _, f := range report.Speech.AudioFiles {
			fmt.Fprintf(&b, "- %s\n", filepath.Base(f))
		}
		b.WriteString("\n")
	}

	if len(report.Stages) > 0 {
		b.WriteString("## Degraded stages\n\n")
		for _, s := range report.Stages {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", s.Stage, s.Kind, s.Detail)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("_" + explain.Disclaimer + "_\n")
	}

	return b.String()
}

// RenderSummary prints a short summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	r.WriteSummary(os.Stdout, report)
}

// WriteSummary writes a short summary to w
func (r *Renderer) WriteSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "\n%s\n", report.Source)
	fmt.Fprintf(w, "  Tests: %d  Below: %d  Within: %d  Above: %d  Uninterpretable: %d\n",
		report.Counts.Total, report.Counts.Below, report.Counts.Within, report.Counts.Above, report.Counts.Unknown)

	for _, rec := range report.Abnormal {
		fmt.Fprintf(w, "  %-8s %s %s %s (printed %s)\n",
			statusLabel(rec.Status), rec.Name, rec.Value.String(), rec.Unit, rangeText(rec.Range))
	}

	if report.ExplanationLocalized != nil {
		fmt.Fprintf(w, "  Translation: %s via %s", report.ExplanationLocalized.Language, report.ExplanationLocalized.Backend)
		if n := len(report.ExplanationLocalized.Flagged); n > 0 {
			fmt.Fprintf(w, " (%d sentence(s) kept in English)", n)
		}
		fmt.Fprintln(w)
	}
	if report.Speech != nil && len(report.Speech.AudioFiles) > 0 {
		fmt.Fprintf(w, "  Audio: %d file(s) via %s\n", len(report.Speech.AudioFiles), report.Speech.Provider)
	}
	if report.Delivery != nil {
		fmt.Fprintf(w, "  Delivery to %s: text=%t audio=%t\n", report.Delivery.To, report.Delivery.TextOK, report.Delivery.AudioOK)
	}
	for _, s := range report.Stages {
		fmt.Fprintf(w, "  ⚠ %s: %s\n", s.Stage, s.Detail)
	}
}

func rangeText(rr model.ReferenceRange) string {
	switch {
	case rr.Kind == model.RangeQualitative:
		return rr.Qualitative
	case rr.Low != nil && rr.High != nil:
		return rr.Low.String() + "–" + rr.High.String()
	case rr.Low != nil:
		return "≥ " + rr.Low.String()
	case rr.High != nil:
		return "≤ " + rr.High.String()
	}
	return "-"
}

func statusLabel(s model.Status) string {
	switch s {
	case model.StatusBelow:
		return "LOW"
	case model.StatusAbove:
		return "HIGH"
	case model.StatusWithin:
		return "normal"
	}
	return "unknown"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

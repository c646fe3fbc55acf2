package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/helmcode/gamemodel-ai/pkg/model"
	"github.com/helmcode/gamemodel-ai/pkg/pipeline"
	"github.com/helmcode/gamemodel-ai/pkg/validator"
)

// DisplayOutcome writes a pipeline outcome as human text, json or yaml.
func DisplayOutcome(w io.Writer, out *pipeline.Outcome, format string) error {
	switch format {
	case "json", "yaml":
		return encode(w, out, format)
	case "human":
		fallthrough
	default:
		displayOutcome(w, out)
	}
	return nil
}

// DisplayReport writes a validation result.
func DisplayReport(w io.Writer, res validator.Result, format string) error {
	switch format {
	case "json", "yaml":
		return encode(w, res, format)
	default:
		displayReport(w, res)
	}
	return nil
}

// DisplayAnalysis writes a bare analysis.
func DisplayAnalysis(w io.Writer, a *model.GameAnalysis, format string) error {
	switch format {
	case "json", "yaml":
		return encode(w, a, format)
	default:
		displayAnalysis(w, a)
	}
	return nil
}

func encode(w io.Writer, v interface{}, format string) error {
	if format == "yaml" {
		output, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(output)
		return err
	}
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func displayOutcome(w io.Writer, out *pipeline.Outcome) {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen, color.Bold)

	fmt.Fprintln(w)
	if out.Screening != nil && out.Screening.Rationale != "" {
		fmt.Fprintf(w, "🔎 Screening: %s\n\n", out.Screening.Rationale)
	}

	if !out.Accepted() {
		red.Fprintf(w, "❌ NO MODEL: %s\n", out.Rejection.Reason)
		fmt.Fprintf(w, "   %s\n", out.Rejection.Message)
		if out.Rejection.Cause != "" {
			fmt.Fprintf(w, "   Cause: %s\n", color.RedString(out.Rejection.Cause))
		}
		if len(out.Rejection.Violations) > 0 {
			fmt.Fprintln(w)
			displayViolations(w, out.Rejection.Violations)
		}
		fmt.Fprintf(w, "\n   Attempts: %d\n", out.Attempts)
		footer(w)
		return
	}

	status := fmt.Sprintf("✅ MODEL ACCEPTED after %d attempt(s)", out.Attempts)
	if out.Cached {
		status = "✅ MODEL ACCEPTED (cached)"
	}
	green.Fprintln(w, status)
	displayAnalysis(w, out.Analysis)

	if len(out.Warnings) > 0 {
		yellow.Fprintln(w, "⚠️  WARNINGS:")
		displayViolations(w, out.Warnings)
		fmt.Fprintln(w)
	}
	footer(w)
}

func displayAnalysis(w io.Writer, a *model.GameAnalysis) {
	cyan := color.New(color.FgCyan, color.Bold)
	white := color.New(color.FgWhite, color.Bold)

	fmt.Fprintln(w)
	white.Fprintf(w, "🎲 %s\n", a.Title)
	if a.StrategicSummary != "" {
		fmt.Fprintln(w, wrapText(a.StrategicSummary, 80, "   "))
	}
	fmt.Fprintf(w, "   Type: %s   Confidence: %d/100\n\n", a.GameType, a.ConfidenceScore)

	cyan.Fprintln(w, "👥 PLAYERS:")
	for i, p := range a.Players {
		fmt.Fprintf(w, "   %d. %s (%s)", i+1, p.Name, p.Role)
		if p.Description != "" {
			fmt.Fprintf(w, ": %s", p.Description)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	if a.GameType == model.NormalForm && a.NormalForm != nil {
		cyan.Fprintln(w, "📋 STRATEGY MATRIX:")
		RenderMatrix(w, a.NormalForm)
		fmt.Fprintln(w)
	} else if a.GameTree != nil {
		cyan.Fprintln(w, "🌳 GAME TREE:")
		RenderTree(w, a)
		fmt.Fprintln(w)
	}

	if a.NashEquilibriumExplanation != "" {
		white.Fprintln(w, "⚖️  NASH EQUILIBRIUM:")
		fmt.Fprintln(w, wrapText(a.NashEquilibriumExplanation, 80, "   "))
		fmt.Fprintln(w)
	}
	if a.ActualEventsComparison != "" {
		white.Fprintln(w, "📰 REALITY CHECK:")
		fmt.Fprintln(w, wrapText(a.ActualEventsComparison, 80, "   "))
		fmt.Fprintln(w)
	}
}

func displayReport(w io.Writer, res validator.Result) {
	fmt.Fprintln(w)
	if res.OK {
		color.New(color.FgGreen, color.Bold).Fprintln(w, "✅ VALID")
	} else {
		color.New(color.FgRed, color.Bold).Fprintf(w, "❌ INVALID: %d error(s)\n", len(res.Errors()))
	}
	if len(res.Violations) > 0 {
		fmt.Fprintln(w)
		displayViolations(w, res.Violations)
	}
}

func displayViolations(w io.Writer, vs []model.Violation) {
	for i, v := range vs {
		fmt.Fprintf(w, "   %d. %s %s\n", i+1, getSeverityIcon(v.Severity), v.Code)
		if v.Path != "" {
			fmt.Fprintf(w, "      at %s\n", color.YellowString(v.Path))
		}
		fmt.Fprintf(w, "      %s\n", v.Message)
	}
}

func footer(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("─", 80))
	fmt.Fprintf(w, "💡 %s\n", color.HiBlackString("Run with -o json or -o yaml for machine-readable output"))
}

func getSeverityIcon(severity model.Severity) string {
	switch severity {
	case model.SeverityError:
		return "🔴"
	case model.SeverityWarning:
		return "🟡"
	default:
		return "⚪"
	}
}

func wrapText(text string, width int, indent string) string {
	var result strings.Builder
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		currentLine := indent
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				result.WriteString(currentLine + "\n")
				currentLine = indent + word
			} else if currentLine == indent {
				currentLine += word
			} else {
				currentLine += " " + word
			}
		}

		if currentLine != indent {
			result.WriteString(currentLine + "\n")
		}
	}

	return strings.TrimSuffix(result.String(), "\n")
}

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/redactyl/promptscan/internal/stats"
	"github.com/redactyl/promptscan/internal/types"
)

type PrintOptions struct {
	NoColor bool
}

var (
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	lowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	blockStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	allowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

func colorSeverity(s string, noColor bool) string {
	if noColor {
		return s
	}
	switch types.Severity(s) {
	case types.SevCritical:
		return criticalStyle.Render(s)
	case types.SevHigh:
		return highStyle.Render(s)
	case types.SevMed:
		return mediumStyle.Render(s)
	default:
		return lowStyle.Render(s)
	}
}

func verdict(sum Summary, noColor bool) string {
	v := "allow"
	st := allowStyle
	if sum.ShouldBlock {
		v, st = "block", blockStyle
	}
	if noColor {
		return v
	}
	return st.Render(v)
}

// PrintTable renders the issues as a bordered table followed by the verdict.
func PrintTable(w io.Writer, sum Summary, opts PrintOptions) error {
	if len(sum.Issues) == 0 {
		fmt.Fprintln(w, "No sensitive content found ✅")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("Severity", "Detector", "Type", "Confidence", "Span", "Preview")
		for _, is := range sum.Issues {
			err := table.Append(
				colorSeverity(is.Severity, opts.NoColor),
				is.Detector,
				is.Type,
				strconv.FormatFloat(is.Confidence, 'f', 2, 64),
				fmt.Sprintf("%d-%d", is.Start, is.End),
				is.Preview,
			)
			if err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	printFooter(w, sum, opts)
	return nil
}

// PrintText renders one line per issue.
func PrintText(w io.Writer, sum Summary, opts PrintOptions) {
	if len(sum.Issues) == 0 {
		fmt.Fprintln(w, "No sensitive content found ✅")
	} else {
		maxDet := 8
		for _, is := range sum.Issues {
			maxDet = max(maxDet, len(is.Detector))
		}
		fmt.Fprintf(w, "Issues: %d\n", len(sum.Issues))
		for _, is := range sum.Issues {
			fmt.Fprintf(w, "%-8s %-*s %.2f  %d-%d  %s\n",
				colorSeverity(is.Severity, opts.NoColor), maxDet, is.Detector, is.Confidence, is.Start, is.End, is.Preview)
		}
	}
	printFooter(w, sum, opts)
}

func printFooter(w io.Writer, sum Summary, opts PrintOptions) {
	b := sum.SeverityBreakdown
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Issues: %d (critical: %d, high: %d, medium: %d, low: %d)\n",
		sum.TotalIssues, b["critical"], b["high"], b["medium"], b["low"])
	fmt.Fprintf(w, "Verdict: %s\n", verdict(sum, opts.NoColor))
	if sum.Degraded {
		fmt.Fprintln(w, "Recognizer unavailable: pattern results only")
	}
	if len(sum.Failures) > 0 {
		fmt.Fprintf(w, "Detector failures: %v\n", sum.Failures)
	}
	fmt.Fprintf(w, "Scan duration: %.2fms\n", sum.ScanTimeMs)
}

// PrintStats renders a stats snapshot as a two-column table.
func PrintStats(w io.Writer, s stats.Snapshot) error {
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")
	rows := [][]string{
		{"total_scans", strconv.FormatInt(s.TotalScans, 10)},
		{"issues_found", strconv.FormatInt(s.IssuesFound, 10)},
		{"blocked_requests", strconv.FormatInt(s.BlockedRequests, 10)},
		{"avg_scan_time_ms", strconv.FormatFloat(s.AvgScanTimeMs, 'f', 3, 64)},
		{"recognizer_fallbacks", strconv.FormatInt(s.RecognizerFallbacks, 10)},
		{"detector_failures", strconv.FormatInt(s.DetectorFailures, 10)},
		{"malformed_inputs", strconv.FormatInt(s.MalformedInputs, 10)},
		{"recognizer_state", s.RecognizerState},
		{"detector_count", strconv.Itoa(s.DetectorCount)},
	}
	for _, r := range rows {
		if err := table.Append(r); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

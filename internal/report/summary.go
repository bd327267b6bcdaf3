package report

import (
	"sort"

	"github.com/redactyl/promptscan/internal/types"
)

const contextLimit = 50

// Summary is the redacted, serializable view of a scan result.
type Summary struct {
	ScanID            string         `json:"scan_id"`
	Clean             bool           `json:"clean"`
	TotalIssues       int            `json:"total_issues"`
	SeverityBreakdown map[string]int `json:"severity_breakdown"`
	DetectorBreakdown map[string]int `json:"detector_breakdown"`
	IssueTypes        []string       `json:"issue_types"`
	MaxConfidence     float64        `json:"max_confidence"`
	ShouldBlock       bool           `json:"should_block"`
	Degraded          bool           `json:"degraded"`
	Failures          []string       `json:"failures,omitempty"`
	ScanTimeMs        float64        `json:"scan_time_ms"`
	Issues            []IssueSummary `json:"issues"`
}

// IssueSummary carries no raw matched text.
type IssueSummary struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Confidence  float64 `json:"confidence"`
	Detector    string  `json:"detector"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Preview     string  `json:"preview"`
	Context     string  `json:"context"`
}

// BuildSummary condenses a scan result. Issue order is preserved.
func BuildSummary(res types.ScanResult) Summary {
	s := Summary{
		ScanID:            res.ID,
		Clean:             len(res.Issues) == 0,
		TotalIssues:       len(res.Issues),
		SeverityBreakdown: make(map[string]int, len(types.Severities)),
		DetectorBreakdown: map[string]int{},
		IssueTypes:        []string{},
		MaxConfidence:     res.MaxConfidence,
		ShouldBlock:       res.ShouldBlock,
		Degraded:          res.Degraded,
		Failures:          res.Failures,
		ScanTimeMs:        float64(res.Duration.Microseconds()) / 1000,
		Issues:            make([]IssueSummary, 0, len(res.Issues)),
	}
	for _, sev := range types.Severities {
		s.SeverityBreakdown[string(sev)] = 0
	}
	seen := map[string]bool{}
	for _, is := range res.Issues {
		s.SeverityBreakdown[string(is.Severity)]++
		s.DetectorBreakdown[is.Detector]++
		if !seen[is.Type] {
			seen[is.Type] = true
			s.IssueTypes = append(s.IssueTypes, is.Type)
		}
		s.MaxConfidence = max(s.MaxConfidence, is.Confidence)
		s.Issues = append(s.Issues, IssueSummary{
			Type:        is.Type,
			Description: is.Description,
			Severity:    string(is.Severity),
			Confidence:  is.Confidence,
			Detector:    is.Detector,
			Start:       is.Span.Start,
			End:         is.Span.End,
			Preview:     is.Preview,
			Context:     truncate(is.Context, contextLimit),
		})
	}
	sort.Strings(s.IssueTypes)
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

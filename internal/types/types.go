package types

import "time"

// Severity is a coarse-grained risk tier for an issue.
type Severity string

const (
	SevLow      Severity = "low"
	SevMed      Severity = "medium"
	SevHigh     Severity = "high"
	SevCritical Severity = "critical"
)

// Severities lists every tier from least to most severe.
var Severities = []Severity{SevLow, SevMed, SevHigh, SevCritical}

// Rank orders severities; unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SevLow:
		return 1
	case SevMed:
		return 2
	case SevHigh:
		return 3
	case SevCritical:
		return 4
	}
	return 0
}

// Valid reports whether s is one of the four known tiers.
func (s Severity) Valid() bool { return s.Rank() > 0 }

// Span is a half-open byte range [Start, End) into the scanned text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return !(s.End <= o.Start || o.End <= s.Start)
}

// Issue describes one detected instance of sensitive content, including the
// detector ID, severity, and confidence in [0,1].
type Issue struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
	Severity    Severity `json:"severity"`
	Span        Span     `json:"span"`
	Detector    string   `json:"detector"`
	Context     string   `json:"context,omitempty"`
	Preview     string   `json:"preview,omitempty"` // masked form of the match
}

// ScanResult is the deduplicated outcome of one scan. Issues never overlap.
type ScanResult struct {
	ID             string           `json:"id"`
	Issues         []Issue          `json:"issues"`
	Clean          bool             `json:"clean"`
	MaxConfidence  float64          `json:"max_confidence"`
	ShouldBlock    bool             `json:"should_block"`
	SeverityCounts map[Severity]int `json:"severity_counts"`
	Degraded       bool             `json:"degraded,omitempty"` // recognizer skipped
	Failures       []string         `json:"failures,omitempty"` // detectors that failed this scan
	Duration       time.Duration    `json:"duration"`
}

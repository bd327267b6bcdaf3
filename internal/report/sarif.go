package report

import (
	"io"
	"sort"

	"github.com/redactyl/promptscan/internal/types"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	RuleIndex int          `json:"ruleIndex"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
}

func sevToLevel(s string) string {
	switch types.Severity(s) {
	case types.SevCritical, types.SevHigh:
		return "error"
	case types.SevMed:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF writes the summary as SARIF 2.1.0. uri names the scanned input.
func WriteSARIF(w io.Writer, uri, version string, sum Summary) error {
	ruleIdx := map[string]int{}
	var ruleIDs []string
	for _, is := range sum.Issues {
		if _, ok := ruleIdx[is.Detector]; !ok {
			ruleIdx[is.Detector] = 0
			ruleIDs = append(ruleIDs, is.Detector)
		}
	}
	sort.Strings(ruleIDs)
	rules := make([]sarifRule, 0, len(ruleIDs))
	for i, id := range ruleIDs {
		ruleIdx[id] = i
		rules = append(rules, sarifRule{ID: id, ShortDescription: sarifMessage{Text: id}})
	}

	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "promptscan", Version: version, Rules: rules}},
		Results: []sarifResult{},
		Properties: map[string]any{
			"scanId":      sum.ScanID,
			"shouldBlock": sum.ShouldBlock,
			"degraded":    sum.Degraded,
		},
	}
	for _, is := range sum.Issues {
		run.Results = append(run.Results, sarifResult{
			RuleID:    is.Detector,
			RuleIndex: ruleIdx[is.Detector],
			Level:     sevToLevel(is.Severity),
			Message:   sarifMessage{Text: is.Description + " (" + is.Preview + ")"},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: uri},
					Region:           sarifRegion{ByteOffset: is.Start, ByteLength: is.End - is.Start},
				},
			}},
		})
	}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	return WriteJSON(w, doc)
}

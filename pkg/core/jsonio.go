package core

import (
	"encoding/json"
	"io"

	"github.com/redactyl/promptscan/internal/report"
)

// MarshalSummary pretty-prints a summary as JSON for humans or pipelines.
func MarshalSummary(w io.Writer, sum Summary) error {
	return report.WriteJSON(w, sum)
}

// UnmarshalSummary decodes summary JSON, useful for ingestion tests.
func UnmarshalSummary(r io.Reader) (Summary, error) {
	var sum Summary
	if err := json.NewDecoder(r).Decode(&sum); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

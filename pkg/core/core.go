package core

import (
	"context"
	"sync"

	"github.com/redactyl/promptscan/internal/detectors"
	"github.com/redactyl/promptscan/internal/engine"
	"github.com/redactyl/promptscan/internal/report"
	"github.com/redactyl/promptscan/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	Config  = engine.Config
	Engine  = engine.Engine
	Result  = types.ScanResult
	Issue   = types.Issue
	Summary = report.Summary
)

// New builds a scan engine. Callers that scan repeatedly should keep one
// engine for the lifetime of the process.
func New(cfg Config) (*Engine, error) {
	return engine.New(cfg)
}

var (
	defaultOnce sync.Once
	defaultEng  *Engine
	defaultErr  error
)

// Scan runs text through a shared engine built from the default
// configuration: every built-in detector, no recognizer.
func Scan(ctx context.Context, text string, meta map[string]string) (Result, error) {
	defaultOnce.Do(func() {
		defaultEng, defaultErr = engine.New(engine.Config{})
	})
	if defaultErr != nil {
		return Result{}, defaultErr
	}
	return defaultEng.Scan(ctx, text, meta), nil
}

// Summarize turns a result into its redacted reporting form.
func Summarize(res Result) Summary { return report.BuildSummary(res) }

// DetectorIDs returns the list of built-in detector IDs.
// This is exposed for convenience to avoid importing internals directly.
func DetectorIDs() []string { return detectors.IDs() }

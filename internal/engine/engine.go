package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/redactyl/promptscan/internal/detectors"
	"github.com/redactyl/promptscan/internal/policy"
	"github.com/redactyl/promptscan/internal/recognizer"
	"github.com/redactyl/promptscan/internal/stats"
	"github.com/redactyl/promptscan/internal/types"
)

// DefaultContextWindow is the number of bytes kept either side of a match.
const DefaultContextWindow = 20

// Config controls the detector set, the block policy and the optional recognizer.
type Config struct {
	// Detectors is the starting catalog; nil selects detectors.Builtin().
	Detectors []detectors.Spec
	// EnableDetectors and DisableDetectors are comma-separated name globs
	// applied to the starting catalog.
	EnableDetectors  string
	DisableDetectors string

	// Policy nil selects policy.Default().
	Policy *policy.Policy
	// ContextWindow of zero selects DefaultContextWindow; negative disables snippets.
	ContextWindow int

	Recognizer *recognizer.Handle
	Logger     *zap.Logger
	Meter      metric.Meter
}

// Engine scans text. All methods are safe for concurrent use.
type Engine struct {
	reg    *detectors.Registry
	policy policy.Policy
	window int
	rec    *recognizer.Handle
	log    *zap.Logger
	stats  *stats.Aggregator
}

// New builds an engine and starts recognizer initialization in the background.
func New(cfg Config) (*Engine, error) {
	pol := policy.Default()
	if cfg.Policy != nil {
		pol = *cfg.Policy
	}
	if err := pol.Validate(); err != nil {
		return nil, err
	}
	specs := cfg.Detectors
	if specs == nil {
		specs = detectors.Builtin()
	}
	reg, err := detectors.NewRegistry(selectDetectors(specs, cfg.EnableDetectors, cfg.DisableDetectors)...)
	if err != nil {
		return nil, err
	}
	agg, err := stats.New(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	window := cfg.ContextWindow
	switch {
	case window == 0:
		window = DefaultContextWindow
	case window < 0:
		window = 0
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		reg:    reg,
		policy: pol,
		window: window,
		rec:    cfg.Recognizer,
		log:    log,
		stats:  agg,
	}
	if e.rec != nil {
		e.rec.Start(context.Background())
	}
	log.Debug("engine ready", zap.Int("detectors", reg.Len()), zap.Float64("block_threshold", pol.BlockThreshold))
	return e, nil
}

// Register adds or replaces a detector.
func (e *Engine) Register(s detectors.Spec) error { return e.reg.Register(s) }

// RegisterPattern adds or replaces a detector matching pattern case-insensitively.
func (e *Engine) RegisterPattern(s detectors.Spec, pattern string) error {
	return e.reg.RegisterPattern(s, pattern)
}

// Unregister removes a detector; unknown names are ignored.
func (e *Engine) Unregister(name string) { e.reg.Unregister(name) }

// DetectorNames lists the active detectors in name order.
func (e *Engine) DetectorNames() []string { return e.reg.Names() }

// Detector returns the active detector registered under name.
func (e *Engine) Detector(name string) (detectors.Spec, bool) { return e.reg.Get(name) }

// Policy returns the block policy in effect.
func (e *Engine) Policy() policy.Policy { return e.policy }

// WaitReady blocks until the recognizer is ready. Without a recognizer it
// returns recognizer.ErrNotReady immediately.
func (e *Engine) WaitReady(ctx context.Context) error {
	if e.rec == nil {
		return fmt.Errorf("%w: no recognizer configured", recognizer.ErrNotReady)
	}
	return e.rec.WaitReady(ctx)
}

// Stats returns a snapshot of the process-lifetime counters.
func (e *Engine) Stats() stats.Snapshot {
	snap := e.stats.Snapshot()
	snap.DetectorCount = e.reg.Len()
	snap.RecognizerState = recognizer.Unavailable.String()
	if e.rec != nil {
		snap.RecognizerState = e.rec.State().String()
	}
	return snap
}

// Scan inspects text and returns the deduplicated issues with the verdict.
// meta is only consulted by detectors that require request context.
func (e *Engine) Scan(ctx context.Context, text string, meta map[string]string) types.ScanResult {
	start := time.Now()
	res := types.ScanResult{
		ID:             uuid.NewString(),
		Clean:          true,
		SeverityCounts: zeroCounts(),
	}
	log := e.log.With(zap.String("scan_id", res.ID), zap.String("fingerprint", fastHash(text)))

	if !utf8.ValidString(text) {
		log.Warn("input is not valid UTF-8; skipping", zap.Int("bytes", len(text)))
		res.Duration = time.Since(start)
		e.stats.Record(ctx, stats.Sample{Duration: res.Duration, Malformed: true})
		return res
	}

	var cands []types.Issue
	e.reg.Each(func(s detectors.Spec) {
		ms, err := runDetector(s, text, meta)
		if err != nil {
			log.Error("detector failed", zap.String("detector", s.Name), zap.Error(err))
			res.Failures = append(res.Failures, s.Name)
			return
		}
		for _, m := range ms {
			cands = append(cands, e.issue(m.Span, m.Text, m.Confidence, s.Name, s.IssueType(), s.Description, s.Severity))
		}
	})

	if e.rec != nil {
		ents, err := detectEntities(ctx, e.rec, text)
		if err != nil {
			res.Degraded = true
			if !errors.Is(err, recognizer.ErrNotReady) {
				log.Warn("recognizer failed; using pattern results only", zap.Error(err))
			}
		}
		name := e.rec.Name()
		for _, ent := range ents {
			desc := fmt.Sprintf("%s detected %s", name, strings.ToUpper(ent.Type))
			span := types.Span{Start: ent.Start, End: ent.End}
			cands = append(cands, e.issue(span, ent.Text, ent.Score, name, ent.Type, desc, ""))
		}
	}

	res.Issues = Deduplicate(cands)
	slices.SortStableFunc(res.Issues, byConfidence)
	spans := make([]types.Span, len(res.Issues))
	for i, is := range res.Issues {
		spans[i] = is.Span
	}
	for i := range res.Issues {
		res.Issues[i].Context = detectors.RedactedSnippet(text, res.Issues[i].Span, e.window, spans...)
	}
	for _, is := range res.Issues {
		res.SeverityCounts[is.Severity]++
		res.MaxConfidence = max(res.MaxConfidence, is.Confidence)
	}
	res.Clean = len(res.Issues) == 0
	res.ShouldBlock = e.policy.ShouldBlock(res.Issues)
	res.Duration = time.Since(start)

	e.stats.Record(ctx, stats.Sample{
		Duration: res.Duration,
		Issues:   len(res.Issues),
		Blocked:  res.ShouldBlock,
		Fallback: res.Degraded,
		Failures: len(res.Failures),
	})
	log.Debug("scan complete",
		zap.Int("candidates", len(cands)),
		zap.Int("issues", len(res.Issues)),
		zap.Bool("block", res.ShouldBlock),
		zap.Bool("degraded", res.Degraded),
		zap.Duration("took", res.Duration))
	return res
}

func (e *Engine) issue(span types.Span, match string, conf float64, detector, kind, desc string, pinned types.Severity) types.Issue {
	return types.Issue{
		Type:        kind,
		Description: desc,
		Confidence:  conf,
		Severity:    e.policy.Resolve(detector, pinned, conf),
		Span:        span,
		Detector:    detector,
		Preview:     detectors.Mask(match),
	}
}

func runDetector(s detectors.Spec, text string, meta map[string]string) (ms []detectors.Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			ms, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Find(text, meta), nil
}

// detectEntities runs the recognizer, turning a panic into an error so the
// scan falls back to pattern results.
func detectEntities(ctx context.Context, h *recognizer.Handle, text string) (ents []recognizer.Entity, err error) {
	defer func() {
		if r := recover(); r != nil {
			ents, err = nil, fmt.Errorf("%s: panic: %v", h.Name(), r)
		}
	}()
	return h.Detect(ctx, text)
}

func zeroCounts() map[types.Severity]int {
	m := make(map[types.Severity]int, len(types.Severities))
	for _, s := range types.Severities {
		m[s] = 0
	}
	return m
}

func byConfidence(a, b types.Issue) int {
	switch {
	case a.Confidence > b.Confidence:
		return -1
	case a.Confidence < b.Confidence:
		return 1
	}
	return a.Span.Start - b.Span.Start
}

package promptscan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/redactyl/promptscan/internal/config"
	"github.com/redactyl/promptscan/internal/engine"
	"github.com/redactyl/promptscan/internal/logging"
	"github.com/redactyl/promptscan/internal/policy"
	"github.com/redactyl/promptscan/internal/recognizer"
	"github.com/redactyl/promptscan/internal/recognizer/presidio"
	"github.com/redactyl/promptscan/internal/report"
)

const defaultRecognizerURL = "http://localhost:5002"

// engineFlags are the per-command flags that shape the engine.
type engineFlags struct {
	enable        string
	disable       string
	threshold     float64
	pinned        string
	contextWindow int
	recognizerURL string
	waitReady     time.Duration
}

func addEngineFlags(cmd *cobra.Command, f *engineFlags) {
	cmd.Flags().StringVar(&f.enable, "enable", "", "only run these detectors (comma-separated globs)")
	cmd.Flags().StringVar(&f.disable, "disable", "", "disable these detectors (comma-separated globs)")
	cmd.Flags().Float64Var(&f.threshold, "threshold", policy.DefaultBlockThreshold, "confidence at which HIGH issues block (0-1)")
	cmd.Flags().StringVar(&f.pinned, "pinned", strings.Join(policy.DefaultPinnedCritical, ","), "detectors whose issues are always CRITICAL")
	cmd.Flags().IntVar(&f.contextWindow, "context-window", engine.DefaultContextWindow, "bytes of context kept around each match (negative disables)")
	cmd.Flags().StringVar(&f.recognizerURL, "recognizer-url", "", "entity recognizer base URL; enables the recognizer")
	cmd.Flags().DurationVar(&f.waitReady, "wait-ready", 10*time.Second, "how long to wait for the recognizer before scanning with patterns only")
}

// cliConfig turns explicitly set flags into the top configuration layer.
func cliConfig(cmd *cobra.Command, f *engineFlags) config.FileConfig {
	var fc config.FileConfig
	flags := cmd.Flags()
	if flags.Changed("enable") {
		fc.Enable = strPtr(f.enable)
	}
	if flags.Changed("disable") {
		fc.Disable = strPtr(f.disable)
	}
	if flags.Changed("threshold") {
		fc.BlockThreshold = floatPtr(f.threshold)
	}
	if flags.Changed("pinned") {
		fc.PinnedCritical = append([]string{}, splitCSV(f.pinned)...)
	}
	if flags.Changed("context-window") {
		fc.ContextWindow = intPtr(f.contextWindow)
	}
	if flags.Changed("recognizer-url") {
		fc.Recognizer = &config.RecognizerConfig{
			Enabled: boolPtr(f.recognizerURL != ""),
			URL:     strPtr(f.recognizerURL),
		}
	}
	fc.LogLevel = optStrPtr(flagLogLevel)
	fc.LogEnv = optStrPtr(flagLogEnv)
	if flagNoColor {
		fc.NoColor = boolPtr(true)
	}
	return fc
}

// loadLayers resolves configuration with precedence CLI > env > file, where
// file is --config or local merged over global.
func loadLayers(cli config.FileConfig) (config.FileConfig, error) {
	env, err := config.LoadEnv(flagEnvFile)
	if err != nil {
		return config.FileConfig{}, err
	}
	var file config.FileConfig
	if flagConfig != "" {
		if file, err = config.LoadFile(flagConfig); err != nil {
			return config.FileConfig{}, err
		}
	} else {
		wd, _ := os.Getwd()
		local, err := config.LoadLocal(wd)
		if err != nil && !errors.Is(err, config.ErrNoConfig) {
			return config.FileConfig{}, err
		}
		global, err := config.LoadGlobal()
		if err != nil && !errors.Is(err, config.ErrNoConfig) {
			return config.FileConfig{}, err
		}
		file = config.Merge(local, global)
	}
	return config.Merge(cli, config.Merge(env, file)), nil
}

func newLogger(fc config.FileConfig) (*zap.Logger, error) {
	logger, _, err := logging.New(logging.Config{
		Environment: logging.Environment(deref(fc.LogEnv)),
		Level:       deref(fc.LogLevel),
	})
	return logger, err
}

// buildEngine maps the merged configuration onto engine.Config.
func buildEngine(fc config.FileConfig, logger *zap.Logger) (*engine.Engine, error) {
	pol := policy.Default()
	if fc.BlockThreshold != nil {
		pol.BlockThreshold = *fc.BlockThreshold
	}
	if fc.PinnedCritical != nil {
		pol.PinnedCritical = fc.PinnedCritical
	}
	cfg := engine.Config{
		EnableDetectors:  deref(fc.Enable),
		DisableDetectors: deref(fc.Disable),
		Policy:           &pol,
		Logger:           logger,
	}
	if fc.ContextWindow != nil {
		cfg.ContextWindow = *fc.ContextWindow
	}
	rc := fc.GetRecognizer()
	if rc.IsEnabled() {
		timeout, err := rc.GetTimeout()
		if err != nil {
			return nil, err
		}
		url := rc.GetURL()
		if url == "" {
			url = defaultRecognizerURL
		}
		client := presidio.New(presidio.Config{URL: url, Timeout: timeout}, logger)
		cfg.Recognizer = recognizer.NewHandle(client, recognizer.Options{
			StopList:     fc.StopList,
			MinNameScore: rc.GetMinNameScore(),
			Logger:       logger,
		})
	}
	return engine.New(cfg)
}

// setup loads configuration and builds the logger and engine for a command.
func setup(cmd *cobra.Command, f *engineFlags) (*engine.Engine, config.FileConfig, *zap.Logger, error) {
	fc, err := loadLayers(cliConfig(cmd, f))
	if err != nil {
		return nil, fc, nil, fmt.Errorf("config: %w", err)
	}
	logger, err := newLogger(fc)
	if err != nil {
		return nil, fc, nil, err
	}
	eng, err := buildEngine(fc, logger)
	if err != nil {
		return nil, fc, logger, err
	}
	return eng, fc, logger, nil
}

// waitRecognizer gives the recognizer up to d to become ready. A timeout is
// not an error: scans fall back to pattern detection.
func waitRecognizer(cmd *cobra.Command, eng *engine.Engine, fc config.FileConfig, d time.Duration, logger *zap.Logger) {
	if !fc.GetRecognizer().IsEnabled() || d <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), d)
	defer cancel()
	if err := eng.WaitReady(ctx); err != nil {
		logger.Warn("recognizer not ready; scanning with patterns only", zap.Error(err))
	}
}

func parseMeta(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	meta := map[string]string{}
	for _, kv := range splitCSV(s) {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --meta entry %q (want key=value)", kv)
		}
		meta[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return meta, nil
}

// render writes the summary in the format selected by the output flags.
func render(w io.Writer, sum report.Summary, fc config.FileConfig, uri string) error {
	opts := report.PrintOptions{NoColor: !colorEnabled(w, deref(fc.NoColor))}
	switch {
	case flagSARIF:
		return report.WriteSARIF(w, uri, version, sum)
	case flagJSON:
		return report.WriteJSON(w, sum)
	case flagText:
		report.PrintText(w, sum, opts)
		return nil
	default:
		return report.PrintTable(w, sum, opts)
	}
}

// colorEnabled reports whether w is a terminal and colour was not disabled.
func colorEnabled(w io.Writer, disabled bool) bool {
	if disabled || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func strPtr(s string) *string { return &s }
func optStrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

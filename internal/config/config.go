package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	semver "github.com/blang/semver/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SchemaVersion is the version written by `config init`.
const SchemaVersion = "1.0.0"

// ErrUnsupportedSchema is returned for a schema_version outside the supported range.
var ErrUnsupportedSchema = errors.New("unsupported config schema_version")

// ErrNoConfig is returned by LoadLocal and LoadGlobal when no file exists.
var ErrNoConfig = errors.New("no config file")

var supportedSchema = semver.MustParseRange(">=1.0.0 <2.0.0")

// FileConfig is the on-disk YAML configuration shape. Nil fields are unset
// and fall through to the next layer.
type FileConfig struct {
	SchemaVersion  *string           `yaml:"schema_version,omitempty"`
	Enable         *string           `yaml:"enable,omitempty"`
	Disable        *string           `yaml:"disable,omitempty"`
	BlockThreshold *float64          `yaml:"block_threshold,omitempty"`
	PinnedCritical []string          `yaml:"pinned_critical,omitempty"`
	StopList       []string          `yaml:"stop_list,omitempty"`
	ContextWindow  *int              `yaml:"context_window,omitempty"`
	Recognizer     *RecognizerConfig `yaml:"recognizer,omitempty"`
	LogLevel       *string           `yaml:"log_level,omitempty"`
	LogEnv         *string           `yaml:"log_env,omitempty"`
	NoColor        *bool             `yaml:"no_color,omitempty"`
}

// RecognizerConfig configures the optional entity recognizer sidecar.
type RecognizerConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	URL          *string  `yaml:"url,omitempty"`
	Timeout      *string  `yaml:"timeout,omitempty"`
	MinNameScore *float64 `yaml:"min_name_score,omitempty"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.checkSchema(); err != nil {
		return FileConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (fc FileConfig) checkSchema() error {
	if fc.SchemaVersion == nil {
		return nil
	}
	v, err := semver.ParseTolerant(*fc.SchemaVersion)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedSchema, *fc.SchemaVersion, err)
	}
	if !supportedSchema(v) {
		return fmt.Errorf("%w: %s", ErrUnsupportedSchema, v)
	}
	return nil
}

// LoadLocal searches for a project-local config file in the given root.
// It supports .promptscan.yml/.yaml and promptscan.yml/.yaml.
func LoadLocal(root string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".promptscan.yml", ".promptscan.yaml", "promptscan.yml", "promptscan.yaml"} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, fmt.Errorf("%w in %s", ErrNoConfig, root)
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, fmt.Errorf("%w: no config dir", ErrNoConfig)
	}
	p := filepath.Join(base, "promptscan", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, fmt.Errorf("%w at %s", ErrNoConfig, p)
}

const envPrefix = "PROMPTSCAN_"

// LoadEnv reads PROMPTSCAN_* variables after loading the given .env files
// (default ".env"). Files are best-effort and never override variables that
// are already set.
func LoadEnv(files ...string) (FileConfig, error) {
	_ = godotenv.Load(files...)

	var (
		cfg  FileConfig
		errs []error
	)
	str := func(key string) *string {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		v = strings.TrimSpace(v)
		return &v
	}
	float := func(key string) *float64 {
		s := str(key)
		if s == nil {
			return nil
		}
		f, err := strconv.ParseFloat(*s, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
			return nil
		}
		return &f
	}
	boolean := func(key string) *bool {
		s := str(key)
		if s == nil {
			return nil
		}
		b, err := strconv.ParseBool(*s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
			return nil
		}
		return &b
	}
	list := func(key string) []string {
		s := str(key)
		if s == nil {
			return nil
		}
		return splitList(*s)
	}

	cfg.Enable = str("ENABLE")
	cfg.Disable = str("DISABLE")
	cfg.BlockThreshold = float("BLOCK_THRESHOLD")
	cfg.PinnedCritical = list("PINNED_CRITICAL")
	cfg.StopList = list("STOP_LIST")
	if s := str("CONTEXT_WINDOW"); s != nil {
		n, err := strconv.Atoi(*s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCONTEXT_WINDOW: %w", envPrefix, err))
		} else {
			cfg.ContextWindow = &n
		}
	}
	cfg.LogLevel = str("LOG_LEVEL")
	cfg.LogEnv = str("LOG_ENV")
	cfg.NoColor = boolean("NO_COLOR")

	rc := RecognizerConfig{
		Enabled:      boolean("RECOGNIZER"),
		URL:          str("RECOGNIZER_URL"),
		Timeout:      str("RECOGNIZER_TIMEOUT"),
		MinNameScore: float("MIN_NAME_SCORE"),
	}
	if rc != (RecognizerConfig{}) {
		cfg.Recognizer = &rc
	}
	return cfg, errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Merge returns hi with every unset field filled from lo.
func Merge(hi, lo FileConfig) FileConfig {
	out := hi
	if out.SchemaVersion == nil {
		out.SchemaVersion = lo.SchemaVersion
	}
	if out.Enable == nil {
		out.Enable = lo.Enable
	}
	if out.Disable == nil {
		out.Disable = lo.Disable
	}
	if out.BlockThreshold == nil {
		out.BlockThreshold = lo.BlockThreshold
	}
	if out.PinnedCritical == nil {
		out.PinnedCritical = lo.PinnedCritical
	}
	if out.StopList == nil {
		out.StopList = lo.StopList
	}
	if out.ContextWindow == nil {
		out.ContextWindow = lo.ContextWindow
	}
	if out.LogLevel == nil {
		out.LogLevel = lo.LogLevel
	}
	if out.LogEnv == nil {
		out.LogEnv = lo.LogEnv
	}
	if out.NoColor == nil {
		out.NoColor = lo.NoColor
	}
	switch {
	case out.Recognizer == nil:
		out.Recognizer = lo.Recognizer
	case lo.Recognizer != nil:
		rc := *out.Recognizer
		if rc.Enabled == nil {
			rc.Enabled = lo.Recognizer.Enabled
		}
		if rc.URL == nil {
			rc.URL = lo.Recognizer.URL
		}
		if rc.Timeout == nil {
			rc.Timeout = lo.Recognizer.Timeout
		}
		if rc.MinNameScore == nil {
			rc.MinNameScore = lo.Recognizer.MinNameScore
		}
		out.Recognizer = &rc
	}
	return out
}

// GetRecognizer returns the recognizer section, never nil.
func (fc FileConfig) GetRecognizer() RecognizerConfig {
	if fc.Recognizer == nil {
		return RecognizerConfig{}
	}
	return *fc.Recognizer
}

// IsEnabled reports whether the recognizer is switched on (default: false).
func (rc RecognizerConfig) IsEnabled() bool {
	return rc.Enabled != nil && *rc.Enabled
}

// GetURL returns the sidecar URL or empty string.
func (rc RecognizerConfig) GetURL() string {
	if rc.URL == nil {
		return ""
	}
	return *rc.URL
}

// GetTimeout parses the timeout; unset yields zero.
func (rc RecognizerConfig) GetTimeout() (time.Duration, error) {
	if rc.Timeout == nil || *rc.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(*rc.Timeout)
	if err != nil {
		return 0, fmt.Errorf("recognizer.timeout: %w", err)
	}
	return d, nil
}

// GetMinNameScore returns the configured score or zero for the default.
func (rc RecognizerConfig) GetMinNameScore() float64 {
	if rc.MinNameScore == nil {
		return 0
	}
	return *rc.MinNameScore
}

package promptscan

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/redactyl/promptscan/internal/config"
	"github.com/redactyl/promptscan/internal/engine"
	"github.com/redactyl/promptscan/internal/policy"
)

var (
	cfgOutput        string
	cfgForce         bool
	cfgEnable        string
	cfgDisable       string
	cfgThreshold     float64
	cfgPinned        string
	cfgContextWindow int
	cfgRecognizerURL string
	cfgNoColor       bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .promptscan.yml with the selected detectors and policy",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", ".promptscan.yml", "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVar(&cfgEnable, "enable", "", "comma-separated detector globs to enable (default: all)")
	initCmd.Flags().StringVar(&cfgDisable, "disable", "", "comma-separated detector globs to disable")
	initCmd.Flags().Float64Var(&cfgThreshold, "threshold", policy.DefaultBlockThreshold, "block threshold for HIGH issues (0-1)")
	initCmd.Flags().StringVar(&cfgPinned, "pinned", strings.Join(policy.DefaultPinnedCritical, ","), "detectors pinned to CRITICAL")
	initCmd.Flags().IntVar(&cfgContextWindow, "context-window", engine.DefaultContextWindow, "context bytes around each match")
	initCmd.Flags().StringVar(&cfgRecognizerURL, "recognizer-url", "", "entity recognizer base URL (empty leaves it disabled)")
	initCmd.Flags().BoolVar(&cfgNoColor, "no-color", false, "disable color output by default")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	pol := policy.Policy{BlockThreshold: cfgThreshold, PinnedCritical: splitCSV(cfgPinned)}
	if err := pol.Validate(); err != nil {
		return err
	}
	if !cfgForce {
		if _, err := os.Stat(cfgOutput); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
		}
	}

	fc := config.FileConfig{
		SchemaVersion:  strPtr(config.SchemaVersion),
		Enable:         optStrPtr(cfgEnable),
		Disable:        optStrPtr(cfgDisable),
		BlockThreshold: floatPtr(pol.BlockThreshold),
		PinnedCritical: pol.PinnedCritical,
		ContextWindow:  intPtr(cfgContextWindow),
		NoColor:        boolPtr(cfgNoColor),
	}
	if cfgRecognizerURL != "" {
		fc.Recognizer = &config.RecognizerConfig{
			Enabled: boolPtr(true),
			URL:     strPtr(cfgRecognizerURL),
			Timeout: strPtr("5s"),
		}
	}

	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)
	return nil
}

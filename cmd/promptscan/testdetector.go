package promptscan

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/redactyl/promptscan/internal/config"
	"github.com/redactyl/promptscan/internal/detectors"
	"github.com/redactyl/promptscan/internal/engine"
	"github.com/redactyl/promptscan/internal/policy"
	"github.com/redactyl/promptscan/internal/report"
)

var flagTestMeta string

func init() {
	cmd := &cobra.Command{
		Use:   "test-detector <id>",
		Short: "Run a single detector against provided text (stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runTestDetector,
	}
	cmd.Flags().StringVar(&flagTestMeta, "meta", "", "request metadata as comma-separated key=value pairs")
	// help message includes detector IDs
	cmd.Long = "Available detectors: " + strings.Join(detectors.IDs(), ", ")
	rootCmd.AddCommand(cmd)
}

func runTestDetector(cmd *cobra.Command, args []string) error {
	id := args[0]
	var spec detectors.Spec
	found := false
	for _, s := range detectors.Builtin() {
		if s.Name == id {
			spec, found = s, true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown detector id: %s (available: %s)", id, strings.Join(detectors.IDs(), ", "))
	}
	meta, err := parseMeta(flagTestMeta)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return err
	}

	pol := policy.Default()
	eng, err := engine.New(engine.Config{Detectors: []detectors.Spec{spec}, Policy: &pol})
	if err != nil {
		return err
	}
	res := eng.Scan(cmd.Context(), string(data), meta)
	return render(cmd.OutOrStdout(), report.BuildSummary(res), config.FileConfig{NoColor: boolPtr(flagNoColor)}, "stdin")
}

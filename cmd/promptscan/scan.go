package promptscan

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redactyl/promptscan/internal/payload"
	"github.com/redactyl/promptscan/internal/report"
)

var (
	flagFile     string
	flagMeta     string
	flagFormat   string
	scanEngFlags engineFlags
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan text from a file or stdin",
		Long:  "Scan reads one prompt from --file (or stdin), prints the redacted issue summary and exits 1 when the verdict is block.",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "file to scan (default: stdin)")
	cmd.Flags().StringVar(&flagMeta, "meta", "", "request metadata as comma-separated key=value pairs")
	cmd.Flags().StringVar(&flagFormat, "format", "auto", "input format: auto|raw|chat|yaml")
	addEngineFlags(cmd, &scanEngFlags)
}

func runScan(cmd *cobra.Command, _ []string) error {
	format, err := payload.ParseFormat(flagFormat)
	if err != nil {
		return err
	}
	cliMeta, err := parseMeta(flagMeta)
	if err != nil {
		return err
	}
	data, uri, err := readInput(cmd, flagFile)
	if err != nil {
		return err
	}
	req, err := payload.Extract(data, format)
	if err != nil {
		return err
	}
	meta := mergeMeta(cliMeta, req.Meta)

	eng, fc, logger, err := setup(cmd, &scanEngFlags)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	waitRecognizer(cmd, eng, fc, scanEngFlags.waitReady, logger)

	res := eng.Scan(cmd.Context(), req.Text, meta)
	logger.Info("scan complete",
		zap.String("scan_id", res.ID),
		zap.Int("issues", len(res.Issues)),
		zap.Bool("should_block", res.ShouldBlock))

	if err := render(cmd.OutOrStdout(), report.BuildSummary(res), fc, uri); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if res.ShouldBlock {
		return errBlocked
	}
	return nil
}

// readInput returns the bytes to scan and the URI reported in SARIF.
func readInput(cmd *cobra.Command, path string) ([]byte, string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return data, "stdin", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, path, nil
}

// mergeMeta overlays hi on lo; nil when both are empty.
func mergeMeta(hi, lo map[string]string) map[string]string {
	if len(hi) == 0 {
		return lo
	}
	out := make(map[string]string, len(hi)+len(lo))
	for k, v := range lo {
		out[k] = v
	}
	for k, v := range hi {
		out[k] = v
	}
	return out
}

package promptscan

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redactyl/promptscan/internal/report"
)

var statsEngFlags engineFlags

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Scan each stdin line and print aggregate statistics",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
	addEngineFlags(cmd, &statsEngFlags)
	rootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	eng, fc, logger, err := setup(cmd, &statsEngFlags)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	waitRecognizer(cmd, eng, fc, statsEngFlags.waitReady, logger)

	sc := bufio.NewScanner(cmd.InOrStdin())
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	lines := 0
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++
		res := eng.Scan(cmd.Context(), line, nil)
		logger.Debug("line scanned", zap.Int("line", lines), zap.Int("issues", len(res.Issues)))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	snap := eng.Stats()
	if flagJSON {
		return report.WriteJSON(cmd.OutOrStdout(), snap)
	}
	return report.PrintStats(cmd.OutOrStdout(), snap)
}

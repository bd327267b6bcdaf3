package promptscan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redactyl/promptscan/internal/report"
)

var detEngFlags engineFlags

func init() {
	cmd := &cobra.Command{
		Use:   "detectors",
		Short: "List enabled detectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, _, logger, err := setup(cmd, &detEngFlags)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			names := eng.DetectorNames()
			if flagJSON {
				return report.WriteJSON(cmd.OutOrStdout(), names)
			}
			for _, id := range names {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	addEngineFlags(cmd, &detEngFlags)
	rootCmd.AddCommand(cmd)
}

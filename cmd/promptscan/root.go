package promptscan

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagJSON     bool
	flagSARIF    bool
	flagText     bool
	flagNoColor  bool
	flagConfig   string
	flagEnvFile  string
	flagLogLevel string
	flagLogEnv   string

	version = "0.1.0"
)

// errBlocked signals a block verdict; Execute maps it to exit status 1.
var errBlocked = errors.New("content blocked")

// rootCmd is the base Cobra command for the promptscan CLI.
var rootCmd = &cobra.Command{
	Use:           "promptscan",
	Short:         "Scan prompts for secrets and personal data",
	Long:          "promptscan inspects text bound for a language model and reports credentials, personal identifiers and risky context with a block or allow verdict.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the promptscan CLI. It should be called by the main package.
// Exit status is 0 on allow, 1 on block and 2 on any other error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errBlocked) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit the summary as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	rootCmd.PersistentFlags().BoolVar(&flagText, "text", false, "output in plain text columnar format")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./.promptscan.yml, then $XDG_CONFIG_HOME/promptscan/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file read before PROMPTSCAN_* variables")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&flagLogEnv, "log-env", "", "log profile: production|development|local")
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/go-lynx/cute/log"
)

// release is the version reported by --version.
var release = "v0.1.0"

// rootCmd is the root command of the cute CLI.
var rootCmd = &cobra.Command{
	Use:     "cute",
	Short:   "cute: bean lifecycle and resolution engine",
	Long:    `cute creates the registered components of a program, wires them through resolvers and reports every failure.`,
	Version: release,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// --log-level > --quiet/--verbose > configuration
		logLevel, _ := cmd.Flags().GetString("log-level")
		quiet, _ := cmd.Flags().GetBool("quiet")
		verbose, _ := cmd.Flags().GetBool("verbose")
		switch {
		case logLevel != "":
			flagLevel = logLevel
		case quiet:
			flagLevel = "error"
		case verbose:
			flagLevel = "debug"
		}
	},
	SilenceUsage: true,
}

// flagLevel overrides the configured log level when set.
var flagLevel string

func init() {
	rootCmd.AddCommand(cmdRun)
	rootCmd.PersistentFlags().StringP("conf", "c", "", "configuration file or directory")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose logs")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-error logs")
	rootCmd.PersistentFlags().String("log-level", "", "log level: error|warn|info|debug (overrides --quiet/--verbose)")
	rootCmd.PersistentFlags().String("lang", "", "language of failure messages, e.g. en or zh")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fallback("ERROR", err.Error())
		os.Exit(1)
	}
}

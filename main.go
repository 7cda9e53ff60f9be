// Command jumbotrace rewrites Go packages so that their execution reports trace events.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is set at link time.
var version = "devel"

var rootCmd = &cobra.Command{
	Use:           "jumbotrace",
	Short:         "Execution tracer for Go sources",
	Long:          `jumbotrace instruments type checked packages with probes reporting returns, jumps, switches, declarations, panics and recoveries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(instrumentCmd)
	rootCmd.AddCommand(specializeCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log instrumentation decisions")
}

func main() {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		errorColor().Fprintln(os.Stderr, "jumbotrace:", err)
		os.Exit(1)
	}
}

// logger creates the logger of a command according to the persistent flags.
func logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

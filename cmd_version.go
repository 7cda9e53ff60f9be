package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show jumbotrace version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupColor(cmd); err != nil {
			return err
		}

		v := version
		if info, ok := debug.ReadBuildInfo(); ok && v == "devel" && info.Main.Version != "" {
			v = info.Main.Version
		}

		okColor().Fprint(cmd.OutOrStdout(), "jumbotrace ")
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

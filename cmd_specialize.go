package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sirkon/jumbotrace/internal/specialize"
)

var specializeOut string

func init() {
	specializeCmd.Flags().StringVarP(&specializeOut, "out", "o", "", "output directory, stdout when empty")
}

var specializeCmd = &cobra.Command{
	Use:   "specialize file...",
	Short: "Replicate marked functions of package raw for the fixed set of types",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupColor(cmd); err != nil {
			return err
		}
		log := logger(cmd)

		for _, name := range args {
			src, err := os.ReadFile(name)
			if err != nil {
				return fmt.Errorf("read source: %w", err)
			}

			res, err := specialize.Source(name, src)
			if err != nil {
				return err
			}
			log.Debug("file specialized", "file", name, "functions", res.Specialized)

			if specializeOut == "" {
				if _, err := os.Stdout.Write(res.Source); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				continue
			}

			if err := os.MkdirAll(specializeOut, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			path := filepath.Join(specializeOut, filepath.Base(name))
			if err := os.WriteFile(path, res.Source, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}

		return nil
	},
}

package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sirkon/jumbotrace/internal/diag"
)

func errorColor() *color.Color   { return color.New(color.FgRed, color.Bold) }
func warningColor() *color.Color { return color.New(color.FgYellow) }
func okColor() *color.Color      { return color.New(color.FgGreen) }

// setupColor applies the --color flag.
func setupColor(cmd *cobra.Command) error {
	mode, _ := cmd.Flags().GetString("color")
	switch strings.ToLower(mode) {
	case "auto", "":
		color.NoColor = !isTerminal(os.Stderr)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("unknown color mode %q", mode)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// printReports writes diagnostics, fatal ones first.
func printReports(w io.Writer, reports []diag.Report) {
	reports = slices.Clone(reports)
	slices.SortStableFunc(reports, func(a, b diag.Report) int {
		switch {
		case a.Code.Fatal() == b.Code.Fatal():
			return 0
		case a.Code.Fatal():
			return -1
		default:
			return 1
		}
	})

	for _, r := range reports {
		c := warningColor()
		if r.Code.Fatal() {
			c = errorColor()
		}
		c.Fprintln(w, r)
	}
}

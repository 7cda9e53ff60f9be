package main

import (
	"testing"

	"github.com/fatih/color"
)

func colorOff(t *testing.T) func() {
	t.Helper()

	prev := color.NoColor
	color.NoColor = true
	return func() { color.NoColor = prev }
}

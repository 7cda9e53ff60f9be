// Command jumbotrace-vet lists constructs jumbotrace would put probes at.
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/sirkon/jumbotrace/internal/sites"
)

func main() {
	singlechecker.Main(sites.Analyzer)
}

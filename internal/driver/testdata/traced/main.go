// Command traced runs a workload under a recorder and prints the trace,
// one event per line: id, parent, kind, start line and description.
package main

import (
	"fmt"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/probe"
)

//jumbotrace:skip
func main() {
	var rec events.Recorder
	restore := probe.SetSink(&rec)
	run()
	restore()

	for _, e := range rec.Events() {
		fmt.Printf("%d\t%d\t%s\t%d\t%s\n", e.EventID(), e.ParentID(), e.Kind(), e.Location().StartLine, e.Descr())
	}
}

package probe

import (
	"sync/atomic"

	"github.com/sirkon/jumbotrace/events"
)

// Sink receives events. It must tolerate concurrent calls and return promptly.
type Sink interface {
	Record(e events.Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(e events.Event)

func (f SinkFunc) Record(e events.Event) { f(e) }

type discard struct{}

func (discard) Record(events.Event) {}

type sinkHolder struct {
	sink Sink
}

var (
	current atomic.Pointer[sinkHolder]
	counter atomic.Uint64
)

func init() {
	current.Store(&sinkHolder{sink: discard{}})
}

// SetSink installs s as the event receiver. A nil s discards events.
// The returned function reinstalls the previous sink.
func SetSink(s Sink) (restore func()) {
	if s == nil {
		s = discard{}
	}
	prev := current.Swap(&sinkHolder{sink: s})
	return func() {
		current.Store(prev)
	}
}

// NextID allocates a fresh event id. Ids are never equal to [events.Sentinel].
func NextID() events.ID {
	return events.ID(counter.Add(1))
}

func emit(e events.Event) {
	current.Load().sink.Record(e)
}

func header(id, parent events.ID, file string, sl, sc, el, ec uint32) events.Header {
	return events.Header{
		ID:     id,
		Parent: parent,
		Loc: events.Location{
			Filename:  file,
			StartLine: sl,
			StartCol:  sc,
			EndLine:   el,
			EndCol:    ec,
		},
	}
}

package events

import "fmt"

// ID identifies a single event instance within a run.
type ID uint64

// Sentinel is the parent of events without an enclosing traced event.
const Sentinel ID = 0

// Location is a source span of a traced construct.
type Location struct {
	Filename  string
	StartLine uint32
	StartCol  uint32
	EndLine   uint32
	EndCol    uint32
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d-%d:%d", l.Filename, l.StartLine, l.StartCol, l.EndLine, l.EndCol)
}

// Header holds attributes common to every event.
type Header struct {
	ID     ID
	Parent ID
	Loc    Location
}

// EventID returns the id of the event.
func (h Header) EventID() ID { return h.ID }

// ParentID returns the id of the enclosing event or Sentinel.
func (h Header) ParentID() ID { return h.Parent }

// Location returns the source span of the event.
func (h Header) Location() Location { return h.Loc }

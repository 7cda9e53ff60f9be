// Package probe is the runtime side of instrumentation. Rewritten sources call its
// functions at every traced construct; each call builds one [events.Event] and hands
// it to the installed [Sink].
//
// Every probe takes the same leading header arguments: the event id obtained from
// [NextID], the enclosing event id and the construct source span. Probes that wrap
// a value return it unchanged.
package probe

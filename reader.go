package readadmit

import "context"

// SchemaID is an opaque, diagnostics-only identifier for the table a permit's
// operation runs against. Its only contract is that String() renders as
// "{keyspace}.{table}"; the engine never inspects it beyond that. Passing a
// nil SchemaID to [Semaphore.MakePermit] is valid and renders as "*" in
// diagnostics, matching the "schema absent" case.
type SchemaID interface {
	String() string
}

// Reader is the opaque handle a caller registers as inactive. Its own
// semantics (what it reads, how it closes) are not this engine's concern;
// the engine only needs to know which [Permit] it holds and how to close it
// asynchronously when evicted.
type Reader interface {
	// Permit returns the permit this reader was created under.
	Permit() *Permit
	// Close releases the reader. It is always invoked from a background
	// goroutine and its error, if any, is logged rather than propagated.
	Close(ctx context.Context) error
}

// NotifyHandler is invoked, best-effort, when an inactive read is evicted.
// A panic inside a handler is recovered and logged; it never propagates.
type NotifyHandler func(reason EvictionReason)

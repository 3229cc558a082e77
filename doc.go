// Package readadmit implements admission control and resource accounting for
// long-running read operations (scans) against a storage server.
//
// Reads compete for two scarce, process-local resources: a bounded count of
// concurrently active readers, and a bounded pool of memory attributable to
// read buffers. [Semaphore] arbitrates access to both so the server stays
// within its resource envelope under overload, while still making forward
// progress in the presence of readers that have voluntarily stepped aside.
//
// # Model
//
// A caller obtains a [Permit] from a [Semaphore] and calls [Permit.WaitAdmission]
// to start serving it. If resources are available the call returns immediately
// with a [ScopedUnits] value; otherwise the caller is queued FIFO and woken by
// a later release or by its own deadline. Readers that pause mid-scan register
// themselves with [Semaphore.RegisterInactiveRead]; when a waiter cannot be
// admitted, the semaphore evicts from this list to free resources.
//
// [ScopedUnits] is the safety mechanism: it guarantees the resources it holds
// are returned to the semaphore on every exit path, including panics recovered
// by the caller, by tying release to a single, idempotent Release call
// and to Go's ordinary defer discipline.
//
// # Concurrency model
//
// A Semaphore is intended to be used from one shard's worth of goroutines:
// internally it uses a mutex to serialize its own bookkeeping, but it does
// not serialize the reads it admits permission for. There is no cross-process
// or cross-machine coordination.
package readadmit

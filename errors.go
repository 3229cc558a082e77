package readadmit

import "errors"

// ErrTimeout is returned by a wait-admission call whose deadline elapsed
// before it could be admitted.
var ErrTimeout = errors.New("readadmit: admission timed out")

// ErrQueueOverload is returned when admitting a waiter would exceed the
// semaphore's configured maximum queue length.
var ErrQueueOverload = errors.New("readadmit: wait queue overloaded")

// ErrBroken is returned by every pending and future admission once a
// semaphore has entered its terminal broken state.
var ErrBroken = errors.New("readadmit: semaphore broken")

// ErrLeakDetected marks a permit that was closed with non-zero consumed
// resources. It is logged, not returned to any caller: the leaked resources
// are reclaimed and execution continues.
var ErrLeakDetected = errors.New("readadmit: permit leaked resources on close")

// ErrCrossSemaphoreUnregister marks an inactive-read handle presented to a
// semaphore other than the one that issued it. This is a programming error;
// the reader is still closed against its owning semaphore before this is
// reported so no resource is leaked.
var ErrCrossSemaphoreUnregister = errors.New("readadmit: inactive read handle used against wrong semaphore")

// ErrSemaphoreStopped is returned by Stop when called on an already-stopped
// semaphore. Stop is not idempotent; calling it twice is a programming error.
var ErrSemaphoreStopped = errors.New("readadmit: semaphore already stopped")

// EvictionReason classifies why an inactive read was evicted.
type EvictionReason int

const (
	// EvictionPermit means the reader was evicted to free resources for a
	// blocked waiter.
	EvictionPermit EvictionReason = iota
	// EvictionTime means the reader's TTL timer expired.
	EvictionTime
	// EvictionManual means the reader was evicted by an explicit operator
	// or caller request.
	EvictionManual
)

func (r EvictionReason) String() string {
	switch r {
	case EvictionPermit:
		return "permit"
	case EvictionTime:
		return "time"
	case EvictionManual:
		return "manual"
	default:
		return "unknown"
	}
}

// PermitState is the lifecycle state of a Permit.
type PermitState int

const (
	// StateActive is the initial state, and the state after admission or
	// after unregistering from the inactive list.
	StateActive PermitState = iota
	// StateWaiting means the permit's owner is enqueued on the wait list.
	StateWaiting
	// StateInactive means the permit's owner is parked in the inactive-read
	// registry.
	StateInactive
)

func (s PermitState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateWaiting:
		return "waiting"
	case StateInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

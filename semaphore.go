package readadmit

import (
	"container/list"
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// UnboundedResources is a resource vector at the type's maximum in both
// components, suitable for tests and other callers that want accounting
// without any admission gate.
var UnboundedResources = Resources{Count: math.MaxInt32, Memory: math.MaxInt64}

// Stats holds the running counters a Semaphore exposes for observability.
type Stats struct {
	InactiveReads              int64
	PermitBasedEvictions       int64
	TimeBasedEvictions         int64
	TotalReadsShedDueToOverload int64
	Waiters                    int64
}

type waitEntry struct {
	permit    *Permit
	requested Resources
	result    chan admissionResult
	done      bool
	elem      *list.Element
}

type admissionResult struct {
	units *ScopedUnits
	err   error
}

// Option configures a Semaphore at construction.
type Option func(*Semaphore)

// WithMaxQueueLength caps the number of waiters a semaphore will hold before
// shedding new admission requests with [ErrQueueOverload]. The default is
// unbounded.
func WithMaxQueueLength(n int) Option {
	return func(s *Semaphore) { s.maxQueueLength = n }
}

// WithPrethrow registers a callback invoked, synchronously and before the
// diagnostics dump, the moment a request is about to be shed for queue
// overload. It is typically used to bump an external metric.
func WithPrethrow(fn func()) Option {
	return func(s *Semaphore) { s.prethrow = fn }
}

// WithLogger attaches a structured logger. The default is [NoopLogger].
func WithLogger(l *Logger) Option {
	return func(s *Semaphore) { s.logger = l }
}

// WithDiagnosticsRateLimit overrides the default 30-second rate limit on
// internally triggered diagnostics dumps (timeout, overload). It has no
// effect on dumps requested explicitly via [Semaphore.DumpDiagnostics].
func WithDiagnosticsRateLimit(interval time.Duration) Option {
	return func(s *Semaphore) { s.dumpLimiter = rate.NewLimiter(rate.Every(interval), 1) }
}

// Semaphore is an admission gate over a (count, memory) resource vector. A
// Semaphore is safe for concurrent use by multiple goroutines; internally it
// serializes its own bookkeeping behind a single mutex, matching the
// single-owner accounting model described in [doc.go].
type Semaphore struct {
	name    string
	initial Resources

	mu             sync.Mutex
	current        Resources
	maxQueueLength int
	prethrow       func()
	stopped        bool
	brokenErr      error

	waitList     *list.List // of *waitEntry
	inactiveList *list.List // of *inactiveEntry
	registry     *list.List // of *Permit

	stats Stats

	gate        errgroup.Group
	logger      *Logger
	dumpLimiter *rate.Limiter
}

// NewSemaphore constructs a Semaphore with the given name and initial
// resource budget.
func NewSemaphore(name string, initial Resources, opts ...Option) *Semaphore {
	s := &Semaphore{
		name:           name,
		initial:        initial,
		current:        initial,
		maxQueueLength: math.MaxInt,
		waitList:       list.New(),
		inactiveList:   list.New(),
		registry:       list.New(),
		logger:         NoopLogger(),
		dumpLimiter:    rate.NewLimiter(rate.Every(30*time.Second), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = NoopLogger()
	}
	s.logger = s.logger.WithName(name)
	return s
}

// Name returns the semaphore's diagnostic name.
func (s *Semaphore) Name() string { return s.name }

// InitialResources returns the resource budget the semaphore was constructed
// with.
func (s *Semaphore) InitialResources() Resources { return s.initial }

// AvailableResources returns the resources not currently consumed by any
// live permit.
func (s *Semaphore) AvailableResources() Resources {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Waiters returns the number of admission requests currently queued.
func (s *Semaphore) Waiters() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitList.Len()
}

// Stats returns a snapshot of the semaphore's running counters.
func (s *Semaphore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.Waiters = int64(s.waitList.Len())
	return stats
}

// MakePermit constructs a Permit against this semaphore and inserts it into
// the permit registry. schemaID may be nil.
func (s *Semaphore) MakePermit(schemaID SchemaID, opName string) *Permit {
	p := &Permit{
		id:       uuid.New(),
		sem:      s,
		schemaID: schemaID,
		opName:   opName,
		state:    StateActive,
	}
	s.mu.Lock()
	p.regElem = s.registry.PushBack(p)
	s.mu.Unlock()
	return p
}

func (s *Semaphore) hasAvailableUnitsLocked(r Resources) bool {
	return (s.current.NonZero() && s.current.GreaterOrEqual(r)) || s.current.Count == s.initial.Count
}

// waitAdmission implements the admission decision described for
// [Permit.WaitAdmission].
func (s *Semaphore) waitAdmission(ctx context.Context, p *Permit, r Resources) (*ScopedUnits, error) {
	s.mu.Lock()
	if s.brokenErr != nil {
		err := s.brokenErr
		s.mu.Unlock()
		return nil, err
	}

	if s.waitList.Len() == 0 && s.hasAvailableUnitsLocked(r) {
		p.consumeLocked(r)
		p.state = StateActive
		s.mu.Unlock()
		return &ScopedUnits{permit: p, delta: r}, nil
	}

	if s.waitList.Len() >= s.maxQueueLength {
		s.stats.TotalReadsShedDueToOverload++
		prethrow := s.prethrow
		s.mu.Unlock()
		if prethrow != nil {
			prethrow()
		}
		s.maybeDumpDiagnostics()
		return nil, ErrQueueOverload
	}

	entry := &waitEntry{permit: p, requested: r, result: make(chan admissionResult, 1)}
	p.state = StateWaiting
	entry.elem = s.waitList.PushBack(entry)
	firstWaiter := s.waitList.Len() == 1
	inactiveNonEmpty := s.inactiveList.Len() > 0
	s.mu.Unlock()

	if firstWaiter && inactiveNonEmpty {
		s.kickBackgroundEviction()
	}

	select {
	case res := <-entry.result:
		return res.units, res.err
	case <-ctx.Done():
		s.mu.Lock()
		if entry.done {
			s.mu.Unlock()
			select {
			case res := <-entry.result:
				return res.units, res.err
			default:
				return nil, ctx.Err()
			}
		}
		entry.done = true
		s.waitList.Remove(entry.elem)
		p.state = StateActive
		s.mu.Unlock()
		s.maybeDumpDiagnostics()
		return nil, ErrTimeout
	}
}

// drainWaitListLocked admits waiters from the front of the queue for as long
// as the front entry's request is satisfiable, in strict FIFO order: a
// smaller request behind an unsatisfiable larger one is never served first.
func (s *Semaphore) drainWaitListLocked() {
	for {
		front := s.waitList.Front()
		if front == nil {
			return
		}
		entry := front.Value.(*waitEntry)
		if !s.hasAvailableUnitsLocked(entry.requested) {
			return
		}
		s.waitList.Remove(front)
		entry.done = true
		entry.permit.consumeLocked(entry.requested)
		entry.permit.state = StateActive
		entry.result <- admissionResult{units: &ScopedUnits{permit: entry.permit, delta: entry.requested}}
	}
}

// kickBackgroundEviction starts a task that evicts parked inactive reads,
// oldest first, for as long as the wait list and the inactive list are both
// nonempty. It runs under the semaphore's closing gate so [Semaphore.Stop]
// can await it. Each eviction's actual resource release happens later, when
// the evicted reader's own Close call releases its permit's units and
// re-enters the signal path; this task itself never calls signal.
func (s *Semaphore) kickBackgroundEviction() {
	s.gate.Go(func() error {
		for {
			s.mu.Lock()
			if s.waitList.Len() == 0 || s.inactiveList.Len() == 0 {
				s.mu.Unlock()
				return nil
			}
			front := s.inactiveList.Front()
			entry := front.Value.(*inactiveEntry)
			s.inactiveList.Remove(front)
			entry.detached.Store(true)
			entry.permit.state = StateActive
			s.stats.PermitBasedEvictions++
			s.mu.Unlock()

			s.invokeNotify(entry.notify, entry.permit.Description(), EvictionPermit)
			s.closeReader(entry.reader)
		}
	})
}

// closeReader invokes reader.Close synchronously within the calling
// goroutine of an errgroup task; callers that are not already inside such a
// task should schedule via s.gate.Go instead.
func (s *Semaphore) closeReader(r Reader) {
	if err := r.Close(context.Background()); err != nil {
		s.logger.WithPermit(r.Permit().Description()).LogCloseError(err)
	}
}

// invokeNotify calls handler, recovering and logging any panic rather than
// letting it propagate: a caller's notify handler misbehaving must never
// take down eviction bookkeeping.
func (s *Semaphore) invokeNotify(handler NotifyHandler, description string, reason EvictionReason) {
	if handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithPermit(description).LogNotifyPanic(r)
		}
	}()
	handler(reason)
}

// RegisterInactiveRead parks reader in the inactive registry, transitioning
// its permit to [StateInactive]. Registration is best-effort: if the wait
// queue is nonempty, or current memory is not strictly positive, the reader
// is rejected and closed asynchronously instead, and the returned handle is
// invalid.
func (s *Semaphore) RegisterInactiveRead(reader Reader) InactiveHandle {
	s.mu.Lock()
	if s.waitList.Len() != 0 || s.current.Memory <= 0 {
		s.stats.PermitBasedEvictions++
		s.mu.Unlock()
		s.gate.Go(func() error {
			s.closeReader(reader)
			return nil
		})
		return InactiveHandle{}
	}

	entry := &inactiveEntry{reader: reader, permit: reader.Permit(), sem: s}
	entry.elem = s.inactiveList.PushBack(entry)
	entry.permit.state = StateInactive
	s.stats.InactiveReads++
	s.mu.Unlock()
	return InactiveHandle{sem: s, entry: entry}
}

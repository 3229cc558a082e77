package readadmit

import (
	"container/list"
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Permit is a per-operation resource-accounting handle. A Permit is created
// by [Semaphore.MakePermit] and lives in that semaphore's permit registry
// until [Permit.Close] unlinks it.
//
// Permit.consumed, Permit.state and the registry link are all guarded by the
// owning semaphore's mutex rather than a mutex of their own: they are, in
// effect, part of the semaphore's shared bookkeeping, and giving them their
// own lock would just mean two locks to acquire in a fixed order on every
// hot path.
type Permit struct {
	id       uuid.UUID
	sem      *Semaphore
	schemaID SchemaID
	opName   string

	consumed Resources
	state    PermitState
	regElem  *list.Element
	closed   bool
}

// ID uniquely identifies this permit, primarily for diagnostics and logs
// where several permits share the same (schema, op) pair.
func (p *Permit) ID() uuid.UUID {
	return p.id
}

// Description renders as "{keyspace}.{table}:{op}", substituting "*" when
// the permit carries no SchemaID.
func (p *Permit) Description() string {
	schema := "*"
	if p.schemaID != nil {
		schema = p.schemaID.String()
	}
	return fmt.Sprintf("%s:%s", schema, p.opName)
}

// State reports the permit's current lifecycle state.
func (p *Permit) State() PermitState {
	p.sem.mu.Lock()
	defer p.sem.mu.Unlock()
	return p.state
}

// ConsumedResources reports the resources currently held via scoped-units
// objects constructed against this permit.
func (p *Permit) ConsumedResources() Resources {
	p.sem.mu.Lock()
	defer p.sem.mu.Unlock()
	return p.consumed
}

// WaitAdmission requests admission for a read of the given memory footprint,
// blocking until resources are available, ctx is done, or the owning
// semaphore breaks. On success it returns a [ScopedUnits] holding
// Resources{Count: 1, Memory: memoryBytes}; the caller must Release it when
// the read completes.
//
// ctx's deadline, if any, is this request's admission deadline: each wait
// entry carries its own expiry, served here by ctx's own deadline machinery
// rather than a hand-rolled per-entry timer.
func (p *Permit) WaitAdmission(ctx context.Context, memoryBytes int64) (*ScopedUnits, error) {
	return p.sem.waitAdmission(ctx, p, Resources{Count: 1, Memory: memoryBytes})
}

// ConsumeMemory directly allocates memoryBytes against this permit, without
// going through admission. Use this for buffers a reader acquires outside
// the count-gated admission path (e.g. residue that outlives a single
// admission cycle).
func (p *Permit) ConsumeMemory(memoryBytes int64) *ScopedUnits {
	return p.ConsumeResources(Resources{Memory: memoryBytes})
}

// ConsumeResources directly allocates delta against this permit, without
// going through admission. It never blocks and never fails: the semaphore's
// current resources are debited even if this drives them negative.
func (p *Permit) ConsumeResources(delta Resources) *ScopedUnits {
	p.consume(delta)
	return &ScopedUnits{permit: p, delta: delta}
}

// Close unlinks the permit from its semaphore's registry. If the permit
// still holds non-zero consumed resources, this is a leak: it is logged at
// error level and the resources are reclaimed into the semaphore's available
// pool (which may in turn admit waiters), but Close itself never fails.
func (p *Permit) Close() {
	s := p.sem
	s.mu.Lock()
	if p.closed {
		s.mu.Unlock()
		return
	}
	p.closed = true
	leaked := p.consumed
	drain := false
	if leaked.NonZero() {
		s.current = s.current.Add(leaked)
		p.consumed = Resources{}
		drain = true
	}
	if p.regElem != nil {
		s.registry.Remove(p.regElem)
		p.regElem = nil
	}
	if drain {
		s.drainWaitListLocked()
	}
	s.mu.Unlock()

	if leaked.NonZero() {
		s.logger.WithPermit(p.Description()).LogLeak(leaked)
	}
}

// consume debits delta from the owning semaphore's available resources and
// credits it to this permit's consumed total. It is the single choke point
// [ScopedUnits] construction goes through outside the admission fast path.
func (p *Permit) consume(delta Resources) {
	p.sem.mu.Lock()
	p.consumeLocked(delta)
	p.sem.mu.Unlock()
}

// consumeLocked assumes p.sem.mu is already held.
func (p *Permit) consumeLocked(delta Resources) {
	p.consumed = p.consumed.Add(delta)
	p.sem.current = p.sem.current.Sub(delta)
}

// signal returns delta from this permit's consumed total to the owning
// semaphore's available pool, then drains the semaphore's wait list, since
// any release can unblock a queued admission.
func (p *Permit) signal(delta Resources) {
	s := p.sem
	s.mu.Lock()
	p.consumed = p.consumed.Sub(delta)
	s.current = s.current.Add(delta)
	s.drainWaitListLocked()
	s.mu.Unlock()
}

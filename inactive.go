package readadmit

import (
	"container/list"
	"context"
	"sync/atomic"
	"time"
)

// inactiveEntry is one parked reader in a semaphore's inactive registry.
type inactiveEntry struct {
	reader Reader
	permit *Permit
	sem    *Semaphore
	notify NotifyHandler
	ttl    *time.Timer

	elem     *list.Element
	detached atomic.Bool
}

// InactiveHandle is an opaque token returned by [Semaphore.RegisterInactiveRead].
// Its zero value is a handle that failed to register: [InactiveHandle.Valid]
// reports false and every operation on it is a no-op.
type InactiveHandle struct {
	sem   *Semaphore
	entry *inactiveEntry
}

// Valid reports whether the handle still refers to a parked reader that has
// not yet been unregistered or evicted.
func (h InactiveHandle) Valid() bool {
	return h.entry != nil && !h.entry.detached.Load()
}

// Abandon is the destructor-equivalent path for a handle the caller no
// longer intends to unregister explicitly: it detaches the parked reader and
// closes it asynchronously. Unlike [Semaphore.TryEvictOneInactiveRead] and
// background eviction, Abandon does not fire the entry's notify handler or
// update either eviction counter — the caller already knows it is dropping
// the handle itself, so notifying it back would be redundant. Abandon on an
// already invalid handle is a no-op.
func (h InactiveHandle) Abandon() {
	entry := h.entry
	if entry == nil || !entry.detached.CompareAndSwap(false, true) {
		return
	}
	s := h.sem
	s.mu.Lock()
	s.inactiveList.Remove(entry.elem)
	entry.permit.state = StateActive
	s.mu.Unlock()

	if entry.ttl != nil {
		entry.ttl.Stop()
	}
	s.gate.Go(func() error {
		s.closeReader(entry.reader)
		return nil
	})
}

// SetNotifyHandler attaches an eviction-notify callback and, if ttl is
// positive, a time-to-live after which the reader is evicted with reason
// [EvictionTime]. Calling this on an invalid handle is a no-op.
func (s *Semaphore) SetNotifyHandler(h InactiveHandle, handler NotifyHandler, ttl time.Duration) {
	if !h.Valid() || h.sem != s {
		return
	}
	s.mu.Lock()
	h.entry.notify = handler
	if ttl > 0 {
		entry := h.entry
		entry.ttl = time.AfterFunc(ttl, func() {
			s.evictEntry(entry, EvictionTime)
		})
	}
	s.mu.Unlock()
}

// UnregisterInactiveRead retrieves the reader parked under h and clears the
// inactive entry, transitioning the permit back to [StateActive]. If h was
// issued by a different semaphore than s, the reader is still closed against
// its true owner so no resource leaks, and the second return value is false.
func (s *Semaphore) UnregisterInactiveRead(h InactiveHandle) (Reader, bool) {
	if h.entry == nil {
		return nil, false
	}
	if h.sem != s {
		owner := h.sem
		if owner != nil && h.entry.detached.CompareAndSwap(false, true) {
			owner.mu.Lock()
			owner.inactiveList.Remove(h.entry.elem)
			h.entry.permit.state = StateActive
			owner.mu.Unlock()
			if h.entry.ttl != nil {
				h.entry.ttl.Stop()
			}
			owner.gate.Go(func() error {
				owner.closeReader(h.entry.reader)
				return nil
			})
			owner.logger.WithPermit(h.entry.permit.Description()).LogCrossSemaphoreUnregister()
		}
		return nil, false
	}

	if !h.entry.detached.CompareAndSwap(false, true) {
		return nil, false
	}
	s.mu.Lock()
	s.inactiveList.Remove(h.entry.elem)
	h.entry.permit.state = StateActive
	s.mu.Unlock()
	if h.entry.ttl != nil {
		h.entry.ttl.Stop()
	}
	return h.entry.reader, true
}

// TryEvictOneInactiveRead evicts the oldest parked reader, if any, with the
// given reason, and reports whether an eviction occurred. Manual eviction
// does not update either eviction counter, matching automatic eviction's
// distinct bookkeeping.
func (s *Semaphore) TryEvictOneInactiveRead(reason EvictionReason) bool {
	s.mu.Lock()
	front := s.inactiveList.Front()
	if front == nil {
		s.mu.Unlock()
		return false
	}
	entry := front.Value.(*inactiveEntry)
	s.mu.Unlock()
	return s.evictEntry(entry, reason)
}

// evictEntry detaches entry from the inactive list, updates the appropriate
// counter, fires its notify handler best-effort, and schedules its reader
// for asynchronous close. It reports false if entry was already detached by
// a concurrent unregister or eviction.
func (s *Semaphore) evictEntry(entry *inactiveEntry, reason EvictionReason) bool {
	if !entry.detached.CompareAndSwap(false, true) {
		return false
	}
	s.mu.Lock()
	s.inactiveList.Remove(entry.elem)
	entry.permit.state = StateActive
	switch reason {
	case EvictionPermit:
		s.stats.PermitBasedEvictions++
	case EvictionTime:
		s.stats.TimeBasedEvictions++
	}
	s.mu.Unlock()

	if entry.ttl != nil {
		entry.ttl.Stop()
	}
	s.logger.WithPermit(entry.permit.Description()).LogEviction(context.Background(), reason)
	s.invokeNotify(entry.notify, entry.permit.Description(), reason)
	s.gate.Go(func() error {
		s.closeReader(entry.reader)
		return nil
	})
	return true
}

// ClearInactiveReads detaches every parked reader and schedules each for
// asynchronous close. Calling it again with nothing parked is a no-op.
func (s *Semaphore) ClearInactiveReads() {
	s.mu.Lock()
	var entries []*inactiveEntry
	for e := s.inactiveList.Front(); e != nil; e = e.Next() {
		entries = append(entries, e.Value.(*inactiveEntry))
	}
	s.inactiveList.Init()
	for _, entry := range entries {
		entry.detached.Store(true)
		entry.permit.state = StateActive
	}
	s.mu.Unlock()

	for _, entry := range entries {
		if entry.ttl != nil {
			entry.ttl.Stop()
		}
		entry := entry
		s.gate.Go(func() error {
			s.closeReader(entry.reader)
			return nil
		})
	}
}

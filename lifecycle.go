package readadmit

import "context"

// Stop clears every parked inactive read, awaits all of the semaphore's
// background close tasks, and then breaks the semaphore so that no further
// admission can succeed. Stop is not idempotent; calling it a second time
// returns [ErrSemaphoreStopped].
func (s *Semaphore) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSemaphoreStopped
	}
	s.stopped = true
	s.mu.Unlock()

	s.ClearInactiveReads()

	done := make(chan error, 1)
	go func() { done <- s.gate.Wait() }()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	s.Broken(nil)
	return waitErr
}

// Broken drains the wait list, rejecting every pending admission with err
// (or [ErrBroken] if err is nil), and marks the semaphore so that every
// future admission fails the same way. Broken is idempotent: only the first
// call has any effect.
func (s *Semaphore) Broken(err error) {
	if err == nil {
		err = ErrBroken
	}
	s.mu.Lock()
	if s.brokenErr != nil {
		s.mu.Unlock()
		return
	}
	s.brokenErr = err
	for e := s.waitList.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*waitEntry)
		entry.done = true
		entry.permit.state = StateActive
		entry.result <- admissionResult{err: err}
	}
	s.waitList.Init()
	s.mu.Unlock()

	s.logger.LogBroken(err)
}

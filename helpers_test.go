package readadmit

import (
	"context"
	"sync/atomic"
)

// fakeReader is a minimal Reader used across the test suite. closeCount lets
// tests assert a reader's Close was invoked exactly once, and closeFn, if
// set, runs inside Close (e.g. to release the units the reader held).
type fakeReader struct {
	permit    *Permit
	closeCount atomic.Int32
	closeFn   func(ctx context.Context) error
}

func newFakeReader(permit *Permit) *fakeReader {
	return &fakeReader{permit: permit}
}

func (r *fakeReader) Permit() *Permit { return r.permit }

func (r *fakeReader) Close(ctx context.Context) error {
	r.closeCount.Add(1)
	if r.closeFn != nil {
		return r.closeFn(ctx)
	}
	return nil
}

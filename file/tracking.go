package file

import (
	"fmt"

	"github.com/hupe1980/readadmit"
)

// TrackingFile decorates a [File], forwarding every operation verbatim
// except bulk reads: both [TrackingFile.ReadAt] and [TrackingFile.ReadRange]
// charge the read's size against the given permit's memory accounting before
// touching the underlying file. Charging is synchronous and never blocks or
// fails — it is direct consumption against the permit, not an admission
// wait — matching the memory accounting a permit already does for any other
// buffer a reader allocates outside the count-gated admission path.
//
// The underlying File may be closed and discarded while [TrackedBuffer]
// values it produced via ReadRange are still outstanding; their accounting
// belongs to the permit, not the file.
type TrackingFile struct {
	File
	permit *readadmit.Permit
}

// NewTrackingFile wraps f so that its bulk reads are charged against permit.
func NewTrackingFile(f File, permit *readadmit.Permit) *TrackingFile {
	return &TrackingFile{File: f, permit: permit}
}

// TrackedBuffer is a byte slice tied to a scoped resource unit. Release must
// be called at least once, typically via defer, to return the memory it
// represents to the owning permit's semaphore.
type TrackedBuffer struct {
	Bytes []byte
	units *readadmit.ScopedUnits
}

// Release returns the buffer's memory accounting. It is idempotent because
// the underlying ScopedUnits is.
func (b *TrackedBuffer) Release() {
	if b.units != nil {
		b.units.Release()
	}
}

// ReadAt overrides the embedded [File]'s ReadAt so that every call charges
// len(p) bytes against the tracking file's permit for the duration of the
// read, then releases it: the caller owns p and its lifetime is already its
// own concern, so accounting only needs to reflect the read while it is in
// flight.
func (t *TrackingFile) ReadAt(p []byte, off int64) (int, error) {
	units := t.permit.ConsumeMemory(int64(len(p)))
	defer units.Release()
	return t.File.ReadAt(p, off)
}

// ReadRange reads exactly n bytes starting at off, charging the read against
// the tracking file's permit before touching the underlying file. The
// returned [TrackedBuffer] keeps that charge live until Release is called,
// so the caller controls how long the memory is accounted for rather than
// it being released the instant the read completes.
func (t *TrackingFile) ReadRange(off int64, n int) (*TrackedBuffer, error) {
	units := t.permit.ConsumeMemory(int64(n))

	buf := make([]byte, n)
	read, err := t.File.ReadAt(buf, off)
	if err != nil {
		units.Release()
		return nil, fmt.Errorf("file: read range [%d,%d): %w", off, off+int64(n), err)
	}

	return &TrackedBuffer{Bytes: buf[:read], units: units}, nil
}

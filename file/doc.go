// Package file provides a read-only filesystem abstraction, fault
// injection for testing it, and a decorator that charges bulk reads
// against a permit's resource accounting.
//
// The package defines two key interfaces:
//
//   - [File]: an open file's random-access read surface plus Close and Stat
//   - [FileSystem]: opens a [File] by name and stats a path
//
// Both are deliberately read-only: this package exists to serve reads that
// compete for admission-controlled resources, not to manage file lifecycle
// or directory structure.
//
// # Implementations
//
//   - [LocalFS]: production implementation using the standard os package
//   - [FaultyFS]: test utility that injects read failures after a byte budget
//   - [TrackingFile]: decorator that charges bulk reads against a permit
//
// # Usage
//
// Production code should use file.Default (which is [LocalFS]):
//
//	f, err := file.Default.OpenFile(path, os.O_RDONLY, 0)
//
// Tests can inject [FaultyFS] to simulate read failures:
//
//	ffs := file.NewFaultyFS(nil)
//	ffs.SetLimit(1024) // fail once 1KB has been read
//	// inject ffs into the component under test
//
// Readers that want their bulk reads accounted against a permit's memory
// budget wrap an opened [File] with [NewTrackingFile]:
//
//	tf := file.NewTrackingFile(f, permit)
//	buf, err := tf.ReadRange(offset, n)
//	defer buf.Release()
//
// # Design Notes
//
// This package intentionally does NOT put context.Context on any operation.
// Filesystem reads are typically fast (microseconds for local NVMe) and
// non-interruptible at the syscall level, and [TrackingFile]'s accounting is
// direct memory consumption against a permit rather than an admission wait,
// so it never blocks either.
package file

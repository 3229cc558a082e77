package file

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Fault describes a read failure to inject: a ReadAt that would take the
// bytes read from the file past FailAfterBytes returns Err (or a generic
// injected error if Err is nil) and reads nothing. A negative
// FailAfterBytes disables the fault.
type Fault struct {
	FailAfterBytes int64
	Err            error
}

// FaultyFS wraps a FileSystem and injects read faults, letting tests assert
// that a failed bulk read through [TrackingFile] still releases the scoped
// units it charged before the read failed.
type FaultyFS struct {
	FS    FileSystem
	mu    sync.Mutex
	rules map[string]Fault // filename substring -> fault
	Default Fault

	Err         error
	read        int64
	globalLimit int64
}

// NewFaultyFS wraps fs (or Default if nil) with no faults configured until
// AddRule or SetLimit is called.
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:          fs,
		rules:       make(map[string]Fault),
		Default:     Fault{FailAfterBytes: -1},
		Err:         fmt.Errorf("injected fault error"),
		globalLimit: -1,
	}
}

// GetRead returns the total length requested by every ReadAt, across every
// file opened through this FaultyFS, that no injected fault rejected. It
// counts requested lengths, not the bytes the underlying file returned.
func (f *FaultyFS) GetRead() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read
}

// SetLimit caps total bytes read across every file opened through this
// FaultyFS; reads beyond it fail regardless of any per-file rule.
func (f *FaultyFS) SetLimit(limit int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.globalLimit = limit
}

// AddRule sets the fault applied to files whose name contains pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	fault := f.Default
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			fault = rule
		}
	}
	if fault.Err == nil {
		fault.Err = f.Err
	}
	f.mu.Unlock()

	return &faultyFile{File: file, fs: f, fault: fault}, nil
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}

type faultyFile struct {
	File
	fs    *FaultyFS
	fault Fault
	read  int64
}

func (ff *faultyFile) ReadAt(p []byte, off int64) (int, error) {
	if ff.fault.FailAfterBytes >= 0 && ff.read+int64(len(p)) > ff.fault.FailAfterBytes {
		return 0, injectedErr(ff.fault.Err)
	}

	ff.fs.mu.Lock()
	globalExceeded := ff.fs.globalLimit >= 0 && ff.fs.read+int64(len(p)) > ff.fs.globalLimit
	if !globalExceeded {
		ff.fs.read += int64(len(p))
	}
	ff.fs.mu.Unlock()

	if globalExceeded {
		return 0, injectedErr(ff.fs.Err)
	}

	n, err := ff.File.ReadAt(p, off)
	if n > 0 {
		ff.read += int64(n)
	}
	return n, err
}

func injectedErr(err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("injected fault error")
}

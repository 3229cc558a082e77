package file

import (
	"io"
	"os"
)

// File is the read surface a permit-tracked reader needs: random-access
// reads to service [TrackingFile.ReadRange]/[TrackingFile.ReadAt], Close to
// release the descriptor, and Stat so a caller can size a scan against the
// file's actual length before charging a read against a permit. This engine
// never writes through a File, so a broader read-write-seek surface is
// deliberately not exposed here.
type File interface {
	io.ReaderAt
	io.Closer
	Stat() (os.FileInfo, error)
}

// FileSystem abstracts opening files for testability.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Stat(name string) (os.FileInfo, error)
}

// LocalFS implements FileSystem using the local os package.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (LocalFS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

// Default is the default local file system.
var Default FileSystem = LocalFS{}

package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/readadmit"
)

func writeTempFile(t *testing.T, contents string) File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	f, err := Default.OpenFile(path, os.O_RDONLY, 0)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestTrackingFileReadRangeChargesPermit(t *testing.T) {
	f := writeTempFile(t, "0123456789")
	sem := readadmit.NewSemaphore("test", readadmit.Resources{Count: 10, Memory: 1024})
	permit := sem.MakePermit(nil, "scan")

	tf := NewTrackingFile(f, permit)
	buf, err := tf.ReadRange(2, 5)
	require.NoError(t, err)
	assert.Equal(t, "23456", string(buf.Bytes))
	assert.Equal(t, int64(5), permit.ConsumedResources().Memory)

	buf.Release()
	assert.Equal(t, int64(0), permit.ConsumedResources().Memory)
	assert.Equal(t, sem.InitialResources(), sem.AvailableResources())
}

func TestTrackingFileReadRangeNeverBlocksOnExhaustedMemory(t *testing.T) {
	f := writeTempFile(t, "0123456789")
	sem := readadmit.NewSemaphore("test", readadmit.Resources{Count: 1, Memory: 4})

	// Drain the semaphore's memory budget via a different permit. ReadRange
	// charges directly rather than waiting on admission, so it must still
	// succeed immediately even though no memory is nominally available.
	drainer := sem.MakePermit(nil, "drain")
	held := drainer.ConsumeMemory(4)
	defer held.Release()

	tf := NewTrackingFile(f, sem.MakePermit(nil, "scan"))
	buf, err := tf.ReadRange(0, 4)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(buf.Bytes))
	buf.Release()
}

func TestTrackingFileReadAtChargesAndReleasesAroundTheCall(t *testing.T) {
	f := writeTempFile(t, "hello world")
	sem := readadmit.NewSemaphore("test", readadmit.Resources{Count: 10, Memory: 1024})
	permit := sem.MakePermit(nil, "scan")

	tf := NewTrackingFile(f, permit)
	p := make([]byte, 5)
	n, err := tf.ReadAt(p, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(p))

	assert.Equal(t, int64(0), permit.ConsumedResources().Memory)
	assert.Equal(t, sem.InitialResources(), sem.AvailableResources())
}

func TestTrackingFileReadRangeReleasesUnitsOnReadFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0644))

	faulty := NewFaultyFS(nil)
	faulty.AddRule("data.bin", Fault{FailAfterBytes: 0})

	f, err := faulty.OpenFile(path, os.O_RDONLY, 0)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	sem := readadmit.NewSemaphore("test", readadmit.Resources{Count: 10, Memory: 1024})
	permit := sem.MakePermit(nil, "scan")

	tf := NewTrackingFile(f, permit)
	buf, err := tf.ReadRange(0, 5)
	require.Error(t, err)
	assert.Nil(t, buf)

	assert.Equal(t, int64(0), permit.ConsumedResources().Memory)
	assert.Equal(t, sem.InitialResources(), sem.AvailableResources())
}

func TestTrackedBufferReleaseIsIdempotent(t *testing.T) {
	f := writeTempFile(t, "hello world")
	sem := readadmit.NewSemaphore("test", readadmit.Resources{Count: 10, Memory: 1024})
	permit := sem.MakePermit(nil, "scan")

	tf := NewTrackingFile(f, permit)
	buf, err := tf.ReadRange(0, 5)
	require.NoError(t, err)

	buf.Release()
	buf.Release()
	assert.Equal(t, sem.InitialResources(), sem.AvailableResources())
}

package readadmit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringSchema string

func (s stringSchema) String() string { return string(s) }

func TestPermitDescriptionWithAndWithoutSchema(t *testing.T) {
	sem := NewSemaphore("test", Resources{Count: 1, Memory: 1024})

	withSchema := sem.MakePermit(stringSchema("ks.table"), "scan")
	assert.Equal(t, "ks.table:scan", withSchema.Description())

	withoutSchema := sem.MakePermit(nil, "scan")
	assert.Equal(t, "*:scan", withoutSchema.Description())
}

func TestPermitWaitAdmissionImmediate(t *testing.T) {
	sem := NewSemaphore("test", Resources{Count: 4, Memory: 1024})
	permit := sem.MakePermit(nil, "scan")

	units, err := permit.WaitAdmission(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, Resources{Count: 1, Memory: 100}, units.Resources())
	assert.Equal(t, Resources{Count: 3, Memory: 924}, sem.AvailableResources())
}

func TestPermitCloseReclaimsLeakedResources(t *testing.T) {
	sem := NewSemaphore("test", Resources{Count: 4, Memory: 1024})
	permit := sem.MakePermit(nil, "scan")

	permit.ConsumeMemory(200) // intentionally not released

	permit.Close()
	assert.Equal(t, sem.InitialResources(), sem.AvailableResources())
}

func TestPermitCloseIsIdempotent(t *testing.T) {
	sem := NewSemaphore("test", Resources{Count: 4, Memory: 1024})
	permit := sem.MakePermit(nil, "scan")
	permit.Close()
	assert.NotPanics(t, func() { permit.Close() })
}

func TestPermitConsumeResourcesBypassesAdmission(t *testing.T) {
	sem := NewSemaphore("test", Resources{Count: 1, Memory: 100})
	permit := sem.MakePermit(nil, "scan")

	units := permit.ConsumeResources(Resources{Memory: 5000})
	assert.Equal(t, Resources{Count: 1, Memory: -4900}, sem.AvailableResources())
	units.Release()
	assert.Equal(t, sem.InitialResources(), sem.AvailableResources())
}

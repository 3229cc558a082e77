package readadmit

import "fmt"

// Resources is a resource vector: a count of concurrently active readers and
// a quantity of memory attributable to their buffers, in bytes.
//
// Memory is signed because a single reader's buffer allocations can overshoot
// the configured pool (see the special-admission rule in [Permit.WaitAdmission]);
// count is expected to stay within [0, initial.Count] under normal operation
// but is not clamped by this type.
type Resources struct {
	Count  int32
	Memory int64
}

// Add returns the component-wise sum of r and other.
func (r Resources) Add(other Resources) Resources {
	return Resources{Count: r.Count + other.Count, Memory: r.Memory + other.Memory}
}

// Sub returns the component-wise difference r - other.
func (r Resources) Sub(other Resources) Resources {
	return Resources{Count: r.Count - other.Count, Memory: r.Memory - other.Memory}
}

// GreaterOrEqual reports whether both components of r are >= the
// corresponding components of other.
func (r Resources) GreaterOrEqual(other Resources) bool {
	return r.Count >= other.Count && r.Memory >= other.Memory
}

// NonZero reports whether either component of r is non-zero.
func (r Resources) NonZero() bool {
	return r.Count != 0 || r.Memory != 0
}

// IsZero reports whether both components of r are zero.
func (r Resources) IsZero() bool {
	return r.Count == 0 && r.Memory == 0
}

// String renders r for logs and diagnostics, e.g. "count=2 memory=1048576".
func (r Resources) String() string {
	return fmt.Sprintf("count=%d memory=%d", r.Count, r.Memory)
}

package readadmit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// diagnosticsGroup aggregates every permit sharing a (schema, op, state)
// key, the granularity operators care about when a semaphore is under
// pressure: which table, which operation, and whether it's actively holding
// resources or merely queued.
type diagnosticsGroup struct {
	description    string
	state          PermitState
	count          int   // number of permits in this group
	countResources int32 // summed consumed count-resource across those permits
	memory         int64
}

func (g diagnosticsGroup) key() string {
	return g.description + "\x00" + g.state.String()
}

// DumpDiagnostics renders a grouped snapshot of every live permit, sorted by
// descending memory, as a tab-separated table intended for logs and operator
// tools. At most maxLines data rows are printed; any remainder is folded
// into a single "omitted" row so the grand total always accounts for every
// live permit.
func (s *Semaphore) DumpDiagnostics(maxLines int) string {
	s.mu.Lock()
	groups := make(map[string]*diagnosticsGroup)
	for e := s.registry.Front(); e != nil; e = e.Next() {
		p := e.Value.(*Permit)
		key := p.Description() + "\x00" + p.state.String()
		g, ok := groups[key]
		if !ok {
			g = &diagnosticsGroup{description: p.Description(), state: p.state}
			groups[key] = g
		}
		g.count++
		g.countResources += p.consumed.Count
		g.memory += p.consumed.Memory
	}
	name := s.name
	s.mu.Unlock()

	sorted := make([]*diagnosticsGroup, 0, len(groups))
	for _, g := range groups {
		sorted = append(sorted, g)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].memory != sorted[j].memory {
			return sorted[i].memory > sorted[j].memory
		}
		return sorted[i].key() < sorted[j].key()
	})

	var buf strings.Builder
	fmt.Fprintf(&buf, "semaphore %q diagnostics\n", name)

	fmt.Fprintln(&buf, "permits\tcount\tmemory\ttable/description/state")

	shown := sorted
	var omitted []*diagnosticsGroup
	if maxLines >= 0 && len(sorted) > maxLines {
		shown = sorted[:maxLines]
		omitted = sorted[maxLines:]
	}

	var totalPermits int
	var totalCount, omittedCount int32
	var totalMemory, omittedMemory int64
	for _, g := range shown {
		fmt.Fprintf(&buf, "%d\t%d\t%s\t%s/%s\n", g.count, g.countResources, humanize.IBytes(clampNonNegative(g.memory)), g.description, g.state)
		totalPermits += g.count
		totalCount += g.countResources
		totalMemory += g.memory
	}
	var omittedPermits int
	for _, g := range omitted {
		omittedPermits += g.count
		omittedCount += g.countResources
		omittedMemory += g.memory
	}
	if len(omitted) > 0 {
		fmt.Fprintf(&buf, "%d\t%d\t%s\t%s\n", omittedPermits, omittedCount, humanize.IBytes(clampNonNegative(omittedMemory)), "(permits omitted for brevity)")
		totalPermits += omittedPermits
		totalCount += omittedCount
		totalMemory += omittedMemory
	}

	buf.WriteString("\n")
	fmt.Fprintf(&buf, "%d\t%d\t%s\t%s\n", totalPermits, totalCount, humanize.IBytes(clampNonNegative(totalMemory)), "total")
	return buf.String()
}

func clampNonNegative(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}

// maybeDumpDiagnostics emits a diagnostics dump through the logger, subject
// to the semaphore's rate limiter, from internal error paths (timeout,
// overload) where an unconditional dump could flood logs under sustained
// pressure.
func (s *Semaphore) maybeDumpDiagnostics() {
	if !s.dumpLimiter.Allow() {
		return
	}
	dump := s.DumpDiagnostics(20)
	s.logger.LogDiagnosticsDump(dump)
}

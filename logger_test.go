package readadmit

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler is a slog.Handler that appends every record it receives,
// letting tests assert on the fields a Logger attached without parsing text
// output.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &attrsHandler{base: h, attrs: attrs}
}

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) last() slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.records[len(h.records)-1]
}

// attrsHandler layers slog.Logger.With's attributes onto a shared
// recordingHandler, mirroring how slog.commonHandler composes WithAttrs.
type attrsHandler struct {
	base  *recordingHandler
	attrs []slog.Attr
}

func (h *attrsHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *attrsHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.attrs...)
	return h.base.Handle(ctx, r)
}

func (h *attrsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &attrsHandler{base: h.base, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func (h *attrsHandler) WithGroup(string) slog.Handler { return h }

func recordAttr(r slog.Record, key string) (string, bool) {
	var value string
	var found bool
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			value = a.Value.String()
			found = true
		}
		return true
	})
	return value, found
}

func TestNewLoggerConstructors(t *testing.T) {
	assert.NotNil(t, NewLogger(nil))
	assert.NotNil(t, NewJSONLogger(slog.LevelDebug))
	assert.NotNil(t, NewTextLogger(slog.LevelWarn))
	assert.NotNil(t, NoopLogger())
}

func TestWithNameAndWithPermitScopeFields(t *testing.T) {
	h := &recordingHandler{}
	l := NewLogger(h)

	scoped := l.WithName("catalog").WithPermit("ks.wide:scan")
	scoped.Error("boom")

	rec := h.last()
	name, ok := recordAttr(rec, "semaphore")
	require.True(t, ok)
	assert.Equal(t, "catalog", name)

	permit, ok := recordAttr(rec, "permit")
	require.True(t, ok)
	assert.Equal(t, "ks.wide:scan", permit)
}

func TestWithLoggerOptionIsUsed(t *testing.T) {
	h := &recordingHandler{}
	sem := NewSemaphore("catalog", UnboundedResources, WithLogger(NewLogger(h)))

	sem.Broken(ErrBroken)

	require.NotEmpty(t, h.records)
	rec := h.last()
	assert.Equal(t, "semaphore broken", rec.Message)
	name, ok := recordAttr(rec, "semaphore")
	require.True(t, ok)
	assert.Equal(t, "catalog", name)
}

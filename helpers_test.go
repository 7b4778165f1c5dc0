package logpipe

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recorder is a plugin that remembers every call it receives.
type recorder struct {
	identity  string
	err       error
	panicWith any
	mutate    bool

	mu    sync.Mutex
	calls []*Call
}

func newRecorder(identity string) *recorder {
	return &recorder{identity: identity}
}

func (r *recorder) Identity() string { return r.identity }

func (r *recorder) Execute(c *Call) error {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	if r.mutate {
		c.Context["mutated"] = r.identity
		c.Context[KeyName] = "changed-by-" + r.identity
	}
	if r.panicWith != nil {
		panic(r.panicWith)
	}
	return r.err
}

func (r *recorder) Calls() []*Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Call(nil), r.calls...)
}

// errorSink collects everything routed to the error handler.
type errorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errorSink) Handle(err error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

func (s *errorSink) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

// newSyncLogger returns a synchronous logger with diagnostics discarded.
func newSyncLogger(t testing.TB, opts ...Option) *Logger {
	t.Helper()
	base := []Option{WithSynchronous(), WithDiagnostics(io.Discard)}
	l, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

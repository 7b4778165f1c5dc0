package logpipe

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		l, err := New(WithDiagnostics(io.Discard))
		require.NoError(t, err)
		t.Cleanup(func() { _ = l.Close() })

		ctx := l.Context()
		assert.Equal(t, DefaultLoggerName, ctx.Name())
		assert.Equal(t, DefaultThreshold, ctx.ThresholdLevel())
		assert.NotNil(t, l.ErrorHandler())
		assert.False(t, l.synchronous)
		assert.Equal(t, DefaultShutdownTimeout, l.shutdownTimeout)
	})

	t.Run("options are applied", func(t *testing.T) {
		l, err := New(
			WithName("billing"),
			WithThreshold(LevelDebug),
			WithFields(Context{"env": "prod", "region": "eu"}),
			WithField("version", 3),
			WithShutdownTimeout(time.Second),
			WithShutdownTimeoutWarning(false),
			WithDiagnostics(nil),
			nil,
		)
		require.NoError(t, err)
		t.Cleanup(func() { _ = l.Close() })

		ctx := l.Context()
		assert.Equal(t, "billing", ctx.Name())
		assert.Equal(t, LevelDebug, ctx.ThresholdLevel())
		assert.Equal(t, "prod", ctx["env"])
		assert.Equal(t, 3, ctx["version"])
		assert.Equal(t, time.Second, l.shutdownTimeout)
		assert.False(t, l.timeoutWarning)
	})

	t.Run("threshold from fields", func(t *testing.T) {
		l, err := New(WithDiagnostics(io.Discard), WithFields(Context{KeyThresholdLevel: "verbose"}))
		require.NoError(t, err)
		t.Cleanup(func() { _ = l.Close() })
		assert.Equal(t, LevelVerbose, l.Context().ThresholdLevel())
	})

	decoded := map[string]any{
		"int64":   int64(3),
		"uint64":  uint64(3),
		"float64": float64(3),
	}
	for name, v := range decoded {
		t.Run("decoded threshold "+name, func(t *testing.T) {
			l, err := New(WithDiagnostics(io.Discard), WithFields(Context{KeyThresholdLevel: v}))
			require.NoError(t, err)
			t.Cleanup(func() { _ = l.Close() })
			assert.Equal(t, LevelDebug, l.Context().ThresholdLevel())
		})
	}

	t.Run("context accessor returns a copy", func(t *testing.T) {
		l := newSyncLogger(t, WithField("tags", []string{"a"}))
		ctx := l.Context()
		ctx["tags"].([]string)[0] = "changed"
		ctx[KeyName] = "changed"

		assert.Equal(t, []string{"a"}, l.Context()["tags"])
		assert.Equal(t, DefaultLoggerName, l.Context().Name())
	})

	invalid := []struct {
		name string
		opts []Option
	}{
		{"empty name", []Option{WithName("")}},
		{"threshold too high", []Option{WithThreshold(Level(9))}},
		{"negative threshold", []Option{WithThreshold(Level(-1))}},
		{"unknown threshold name", []Option{WithFields(Context{KeyThresholdLevel: "loud"})}},
		{"fractional threshold", []Option{WithFields(Context{KeyThresholdLevel: 2.5})}},
		{"oversized unsigned threshold", []Option{WithFields(Context{KeyThresholdLevel: uint64(1 << 63)})}},
		{"int64 threshold too high", []Option{WithFields(Context{KeyThresholdLevel: int64(7)})}},
		{"negative shutdown timeout", []Option{WithShutdownTimeout(-time.Second)}},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			l, err := New(tc.opts...)
			require.Error(t, err)
			assert.Nil(t, l)
			assert.Contains(t, err.Error(), errMsgOptionsInvalid)
		})
	}

	t.Run("must new panics on invalid options", func(t *testing.T) {
		assert.Panics(t, func() { MustNew(WithName("")) })
		assert.NotPanics(t, func() { _ = MustNew(WithDiagnostics(io.Discard)).Close() })
	})
}

func TestLogger_Async(t *testing.T) {
	t.Run("flush waits for every call", func(t *testing.T) {
		rec := newRecorder("slow")
		slow := Define("slow", func(c *Call) error {
			time.Sleep(2 * time.Millisecond)
			return rec.Execute(c)
		})
		l, err := New(WithDiagnostics(io.Discard), WithThreshold(LevelVerbose))
		require.NoError(t, err)
		t.Cleanup(func() { _ = l.Close() })
		log := l.Use(slow).Build()

		for i := 0; i < 20; i++ {
			log.Debug(i)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, l.Flush(ctx))
		assert.Len(t, rec.Calls(), 20)
		assert.Equal(t, int64(0), l.activeOps.Load())
	})

	t.Run("flush reports when ctx expires", func(t *testing.T) {
		release := make(chan struct{})
		blocked := Define("blocked", func(*Call) error {
			<-release
			return nil
		})
		l, err := New(WithDiagnostics(io.Discard))
		require.NoError(t, err)
		t.Cleanup(func() {
			close(release)
			_ = l.Close()
		})
		l.Use(blocked).Build().Info("x")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err = l.Flush(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), errMsgFlushTimeout)
	})

	t.Run("flush with nothing in flight", func(t *testing.T) {
		l := newSyncLogger(t)
		assert.NoError(t, l.Flush(context.Background()))
	})

	t.Run("per call stage order is kept", func(t *testing.T) {
		var mu sync.Mutex
		seen := map[string][]string{}
		mk := func(id string) Plugin {
			return Define(id, func(c *Call) error {
				mu.Lock()
				seen[c.ID] = append(seen[c.ID], id)
				mu.Unlock()
				return nil
			})
		}
		l, err := New(WithDiagnostics(io.Discard))
		require.NoError(t, err)
		t.Cleanup(func() { _ = l.Close() })
		log := l.Use(mk("a"), mk("b"), mk("c")).Build()
		for i := 0; i < 50; i++ {
			log.Error(i)
		}
		require.NoError(t, l.Flush(context.Background()))

		mu.Lock()
		defer mu.Unlock()
		assert.Len(t, seen, 50)
		for _, order := range seen {
			assert.Equal(t, []string{"a", "b", "c"}, order)
		}
	})
}

func TestLogger_NilReceiver(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("x")
		l.Log(LevelError, "x")
	})
	assert.Nil(t, l.Context())
	assert.Nil(t, l.ErrorHandler())
	assert.NoError(t, l.Close())
	err := l.Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), errMsgNilLogger)
}

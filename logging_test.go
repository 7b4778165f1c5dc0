package logpipe

import (
	"bytes"
	stderrs "errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LevelMethods(t *testing.T) {
	rec := newRecorder("console")
	l := newSyncLogger(t, WithThreshold(LevelVerbose))
	log := l.Use(rec).Build()

	log.Error("msg")
	log.Warn("msg")
	log.Info("msg")
	log.Debug("msg")
	log.Verbose("msg")

	calls := rec.Calls()
	require.Len(t, calls, 5)
	for i, want := range Levels() {
		assert.Equal(t, want, calls[i].Level)
		assert.Equal(t, Text("msg"), calls[i].Message)
		assert.Equal(t, LevelVerbose, calls[i].Context.ThresholdLevel())
	}
}

func TestLogger_MessageFunction(t *testing.T) {
	t.Run("derives message from context", func(t *testing.T) {
		rec := newRecorder("console")
		l := newSyncLogger(t, WithName("app"), WithField("env", "prod"))
		l.Use(rec).Build().Info(func(ctx Context) string {
			return fmt.Sprintf("%s-%v", ctx.Name(), ctx["env"])
		})

		calls := rec.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, Text("app-prod"), calls[0].Message)
	})

	t.Run("panicking function degrades to fallback", func(t *testing.T) {
		rec1, rec2 := newRecorder("a"), newRecorder("b")
		sink := &errorSink{}
		l := newSyncLogger(t, WithErrorHandling(sink.Handle))
		l.Use(rec1, rec2).Build().Warn(MessageFunc(func(Context) any {
			panic("cannot build message")
		}))

		for _, rec := range []*recorder{rec1, rec2} {
			calls := rec.Calls()
			require.Len(t, calls, 1)
			entry, ok := calls[0].Message.(Entry)
			require.True(t, ok)
			assert.Equal(t, ResolveFailedMessage, entry.Body)
			assert.Contains(t, entry.Stack, "cannot build message")
		}
		assert.Empty(t, sink.Errors())
	})

	t.Run("function sees setup result", func(t *testing.T) {
		rec := newRecorder("console")
		l := newSyncLogger(t, WithSetupValues(Context{"env": "staging"}))
		l.Use(rec).Build().Info(func(ctx Context) string {
			return fmt.Sprint(ctx["env"])
		})

		calls := rec.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, Text("staging"), calls[0].Message)
	})
}

func TestLogger_PluginIdentity(t *testing.T) {
	a, b := newRecorder("A"), newRecorder("B")
	a.mutate = true
	l := newSyncLogger(t)
	l.Use(a).Use(b).Build().Info("x")

	callsA, callsB := a.Calls(), b.Calls()
	require.Len(t, callsA, 1)
	require.Len(t, callsB, 1)

	assert.Equal(t, "A", callsA[0].Context.PluginIdentity())
	assert.Equal(t, "B", callsB[0].Context.PluginIdentity())
	assert.Equal(t, callsA[0].Message, callsB[0].Message)
	assert.Equal(t, Text("x"), callsB[0].Message)
	assert.Equal(t, callsA[0].ID, callsB[0].ID)

	// A's mutations stay in A's copy.
	_, seen := callsB[0].Context["mutated"]
	assert.False(t, seen)
	assert.Equal(t, DefaultLoggerName, callsB[0].Context.Name())
	assert.Equal(t, DefaultLoggerName, l.Context().Name())
	_, leaked := l.Context()[KeyPluginIdentity]
	assert.False(t, leaked)
}

func TestLogger_DispatchOrder(t *testing.T) {
	var order []string
	mk := func(id string) Plugin {
		return Define(id, func(*Call) error {
			order = append(order, id)
			return nil
		})
	}
	l := newSyncLogger(t)
	log := l.Use(mk("first"), mk("second")).Use(mk("third"), mk("second")).Build()

	log.Info("one")
	log.Debug("two")

	assert.Equal(t, []string{
		"first", "second", "third", "second",
		"first", "second", "third", "second",
	}, order)
}

func TestLogger_PluginFailure(t *testing.T) {
	t.Run("error short-circuits later plugins", func(t *testing.T) {
		before, failing, after := newRecorder("before"), newRecorder("failing"), newRecorder("after")
		failing.err = stderrs.New("sink unavailable")
		sink := &errorSink{}

		l := newSyncLogger(t, WithErrorHandling(sink.Handle))
		l.Use(before, failing, after).Build().Error("boom")

		assert.Len(t, before.Calls(), 1)
		assert.Len(t, failing.Calls(), 1)
		assert.Empty(t, after.Calls())

		errs := sink.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, "sink unavailable", errs[0].Error())
		assert.ErrorIs(t, errs[0], failing.err)

		var se *StageError
		require.ErrorAs(t, errs[0], &se)
		assert.Equal(t, StagePlugin, se.Stage)
		assert.Equal(t, "failing", se.Plugin)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		failing, after := newRecorder("failing"), newRecorder("after")
		failing.panicWith = "plugin exploded"
		sink := &errorSink{}

		l := newSyncLogger(t, WithErrorHandling(sink.Handle))
		assert.NotPanics(t, func() {
			l.Use(failing, after).Build().Info("x")
		})

		assert.Empty(t, after.Calls())
		errs := sink.Errors()
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "plugin exploded")
	})

	t.Run("each failed call reports once", func(t *testing.T) {
		failing := newRecorder("failing")
		failing.err = stderrs.New("nope")
		sink := &errorSink{}

		l := newSyncLogger(t, WithErrorHandling(sink.Handle))
		log := l.Use(failing).Build()
		log.Info("1")
		log.Info("2")
		log.Info("3")

		assert.Len(t, sink.Errors(), 3)
	})

	t.Run("panicking error handler is contained", func(t *testing.T) {
		failing := newRecorder("failing")
		failing.err = stderrs.New("nope")

		l := newSyncLogger(t, WithErrorHandling(func(error) { panic("handler") }))
		assert.NotPanics(t, func() {
			l.Use(failing).Build().Info("x")
		})
	})

	t.Run("default handler writes diagnostics", func(t *testing.T) {
		var buf bytes.Buffer
		failing := newRecorder("failing")
		failing.err = stderrs.New("disk full")

		l, err := New(WithSynchronous(), WithDiagnostics(&buf))
		require.NoError(t, err)
		l.Use(failing).Build().Info("x")
		require.NoError(t, l.Close())

		out := buf.String()
		assert.Contains(t, out, "log pipeline failure")
		assert.Contains(t, out, "disk full")
		assert.Contains(t, out, "failing")
	})
}

func TestLogger_Setup(t *testing.T) {
	t.Run("re-runs on every call", func(t *testing.T) {
		var n atomic.Int32
		rec := newRecorder("console")
		l := newSyncLogger(t, WithSetup(func() (Context, error) {
			return Context{"seq": n.Add(1)}, nil
		}))
		log := l.Use(rec).Build()
		log.Info("first")
		log.Info("second")

		calls := rec.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, int32(1), calls[0].Context["seq"])
		assert.Equal(t, int32(2), calls[1].Context["seq"])
		_, kept := l.Context()["seq"]
		assert.False(t, kept)
	})

	t.Run("asynchronous producer", func(t *testing.T) {
		rec := newRecorder("console")
		l := newSyncLogger(t, WithSetup(func() (Context, error) {
			ch := make(chan Context, 1)
			go func() { ch <- Context{"region": "eu"} }()
			return <-ch, nil
		}))
		l.Use(rec).Build().Info("x")

		calls := rec.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "eu", calls[0].Context["region"])
	})

	t.Run("nested values merge", func(t *testing.T) {
		rec := newRecorder("console")
		l := newSyncLogger(t,
			WithField("service", map[string]any{"name": "api", "version": "1"}),
			WithSetupValues(Context{"service": map[string]any{"version": "2"}}),
		)
		l.Use(rec).Build().Info("x")

		calls := rec.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, map[string]any{"name": "api", "version": "2"}, calls[0].Context["service"])
	})

	t.Run("failure skips plugins", func(t *testing.T) {
		rec := newRecorder("console")
		sink := &errorSink{}
		l := newSyncLogger(t,
			WithErrorHandling(sink.Handle),
			WithSetup(func() (Context, error) { return nil, stderrs.New("vault sealed") }),
		)
		l.Use(rec).Build().Info("x")

		assert.Empty(t, rec.Calls())
		errs := sink.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, "vault sealed", errs[0].Error())
		var se *StageError
		require.ErrorAs(t, errs[0], &se)
		assert.Equal(t, StageSetup, se.Stage)
	})
}

func TestLogger_Registration(t *testing.T) {
	t.Run("no plugins", func(t *testing.T) {
		sink := &errorSink{}
		l := newSyncLogger(t, WithErrorHandling(sink.Handle))
		log := l.Build()
		for _, lvl := range Levels() {
			l.Log(lvl, "x")
		}
		log.Info("x")
		assert.Empty(t, sink.Errors())
	})

	t.Run("use after build is rejected", func(t *testing.T) {
		early, late := newRecorder("early"), newRecorder("late")
		sink := &errorSink{}
		l := newSyncLogger(t, WithErrorHandling(sink.Handle))
		log := l.Use(early).Build()
		l.Use(late)
		log.Info("x")

		assert.Len(t, early.Calls(), 1)
		assert.Empty(t, late.Calls())
		errs := sink.Errors()
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrAlreadyBuilt)
	})

	t.Run("nil plugin is reported", func(t *testing.T) {
		sink := &errorSink{}
		l := newSyncLogger(t, WithErrorHandling(sink.Handle))
		l.Use(nil, Lazy(func() Plugin { return nil }))
		errs := sink.Errors()
		require.Len(t, errs, 2)
		assert.ErrorIs(t, errs[0], ErrNilPlugin)
	})

	t.Run("lazy plugin is constructed once", func(t *testing.T) {
		var built atomic.Int32
		rec := newRecorder("lazy")
		p := Lazy(func() Plugin {
			built.Add(1)
			return rec
		})
		l := newSyncLogger(t)
		log := l.Use(p).Build()
		log.Info("a")
		log.Info("b")

		assert.Equal(t, int32(1), built.Load())
		require.Len(t, rec.Calls(), 2)
		assert.Equal(t, "lazy", rec.Calls()[0].Context.PluginIdentity())
	})

	t.Run("build is idempotent", func(t *testing.T) {
		l := newSyncLogger(t)
		first := l.Build()
		second := l.Build()
		assert.Same(t, first, second)
	})
}

func TestLogger_AbsentMessage(t *testing.T) {
	rec := newRecorder("console")
	sink := &errorSink{}
	l := newSyncLogger(t, WithErrorHandling(sink.Handle))
	l.Use(rec).Build().Info(nil)

	assert.Empty(t, rec.Calls())
	assert.Empty(t, sink.Errors())
}

func TestLogger_Log(t *testing.T) {
	rec := newRecorder("console")
	sink := &errorSink{}
	l := newSyncLogger(t, WithErrorHandling(sink.Handle))
	l.Use(rec).Build()

	l.Log(LevelDebug, "x")
	l.Log(Level(42), "y")

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, LevelDebug, calls[0].Level)
	require.Len(t, sink.Errors(), 1)
	assert.Contains(t, sink.Errors()[0].Error(), errMsgUnknownLevel)
}

func TestCall_Loggable(t *testing.T) {
	rec := newRecorder("console")
	l := newSyncLogger(t, WithThreshold(LevelWarn))
	log := l.Use(rec).Build()
	log.Error("e")
	log.Warn("w")
	log.Info("i")

	var loggable []bool
	for _, c := range rec.Calls() {
		loggable = append(loggable, c.Loggable())
	}
	assert.Equal(t, []bool{true, true, false}, loggable)
}

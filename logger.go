package logpipe

import (
	"context"
	stderrs "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/logpipe/internal/term"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const flushPollInterval = 2 * time.Millisecond

// Logger owns the base context, the stage list and the in-flight call
// accounting. All methods are safe for concurrent use.
type Logger struct {
	ctx             Context
	setup           SetupFunc
	handler         ErrorHandler
	diag            zerolog.Logger
	pipeline        *pipeline
	synchronous     bool
	shutdownTimeout time.Duration
	timeoutWarning  bool

	plugins   []Plugin
	isClosed  atomic.Bool
	activeOps atomic.Int64
	wg        sync.WaitGroup
	mu        sync.RWMutex
}

var (
	_ Builder = (*Logger)(nil)
	_ Emitter = (*Logger)(nil)
)

// New builds a Logger from the supplied options. The returned Logger
// accepts plugins through Use until Build is called.
func New(opts ...Option) (*Logger, error) {
	const op errors.Op = "logpipe.New"
	o := makeOptions(opts...)
	if err := validateOptions(o); err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgOptionsInvalid)
	}

	l := &Logger{
		ctx:             o.context,
		setup:           o.setup,
		handler:         o.errorHandling,
		synchronous:     o.synchronous,
		shutdownTimeout: o.shutdownTimeout,
		timeoutWarning:  o.shutdownTimeoutWarning,
	}
	l.diag = zerolog.New(zerolog.ConsoleWriter{
		Out:     o.diagnostics,
		NoColor: !term.ColorEnabled(o.diagnostics),
	}).With().Timestamp().Str("logger", l.ctx.Name()).Logger()

	l.pipeline = newPipeline(l.terminal)
	if l.setup != nil {
		_ = l.pipeline.use(stage{kind: StageSetup, run: l.setupStage})
	}
	_ = l.pipeline.use(stage{kind: StageResolve, run: resolveStage})

	return l, nil
}

// MustNew is like New but panics on invalid options.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return l
}

// Use registers plugins in order. Each plugin gets its own dispatch stage.
// Nil plugins and registrations after Build are reported to the error
// handler and ignored.
func (l *Logger) Use(plugins ...Plugin) Builder {
	for _, p := range plugins {
		resolved, ok := unwrapPlugin(p)
		if !ok {
			l.handleError(ErrNilPlugin)
			continue
		}
		s := stage{
			kind:   StagePlugin,
			plugin: resolved.Identity(),
			run: func(rec *Record) error {
				return dispatch(resolved, rec)
			},
		}
		if err := l.pipeline.use(s); err != nil {
			l.handleError(err)
			continue
		}
		l.mu.Lock()
		l.plugins = append(l.plugins, resolved)
		l.mu.Unlock()
	}
	return l
}

// Build freezes the plugin list. Calling it again is a no-op.
func (l *Logger) Build() Emitter {
	l.pipeline.seal()
	return l
}

// Error logs msg at LevelError.
func (l *Logger) Error(msg any) { l.emit(LevelError, msg) }

// Warn logs msg at LevelWarn.
func (l *Logger) Warn(msg any) { l.emit(LevelWarn, msg) }

// Info logs msg at LevelInfo.
func (l *Logger) Info(msg any) { l.emit(LevelInfo, msg) }

// Debug logs msg at LevelDebug.
func (l *Logger) Debug(msg any) { l.emit(LevelDebug, msg) }

// Verbose logs msg at LevelVerbose.
func (l *Logger) Verbose(msg any) { l.emit(LevelVerbose, msg) }

// Log logs msg at level. Unknown levels are reported to the error handler.
func (l *Logger) Log(level Level, msg any) {
	const op errors.Op = "logpipe.Logger.Log"
	if l == nil {
		return
	}
	if !level.Valid() {
		l.handleError(errors.New(op).Msg(fmt.Sprintf("%s (%d)", errMsgUnknownLevel, int(level))))
		return
	}
	l.emit(level, msg)
}

// Context returns a deep copy of the logger's base context.
func (l *Logger) Context() Context {
	if l == nil {
		return nil
	}
	return Clone(l.ctx)
}

// ErrorHandler returns the handler pipeline failures are routed to.
func (l *Logger) ErrorHandler() ErrorHandler {
	if l == nil {
		return nil
	}
	if l.handler != nil {
		return l.handler
	}
	return defaultErrorHandler(&l.diag)
}

// Flush blocks until every call accepted so far has finished, or ctx is
// done.
func (l *Logger) Flush(ctx context.Context) error {
	const op errors.Op = "logpipe.Logger.Flush"
	if l == nil {
		return errors.New(op).Msg(errMsgNilLogger)
	}
	if l.activeOps.Load() == 0 {
		return nil
	}

	ticker := time.NewTicker(flushPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return errors.New(op).Err(ctx.Err()).Msg(fmt.Sprintf("%s (%d active)", errMsgFlushTimeout, l.activeOps.Load()))
		case <-ticker.C:
			if l.activeOps.Load() == 0 {
				return nil
			}
		}
	}
}

// Close stops accepting calls, waits for in-flight calls up to the shutdown
// timeout and closes every plugin implementing io.Closer. It is safe to
// call Close multiple times.
func (l *Logger) Close() error {
	const op errors.Op = "logpipe.Logger.Close"
	if l == nil {
		return nil
	}

	l.mu.Lock()
	if l.isClosed.Load() {
		l.mu.Unlock()
		return nil
	}
	l.isClosed.Store(true)
	plugins := append([]Plugin(nil), l.plugins...)
	l.mu.Unlock()
	l.pipeline.seal()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	if l.shutdownTimeout > 0 {
		select {
		case <-done:
		case <-time.After(l.shutdownTimeout):
			if l.timeoutWarning {
				l.diag.Warn().
					Int64("active_operations", l.activeOps.Load()).
					Dur("timeout", l.shutdownTimeout).
					Msg("Logger shutdown timeout exceeded")
			}
		}
	} else {
		<-done
	}

	var errs []error
	for _, p := range plugins {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return errors.New(op).Err(stderrs.Join(errs...)).Msg(errMsgPluginClose)
	}
	return nil
}

// emit packages one call and runs it, on its own goroutine unless the
// logger is synchronous. Calls after Close are dropped.
func (l *Logger) emit(level Level, raw any) {
	if l == nil {
		return
	}

	l.mu.RLock()
	if l.isClosed.Load() {
		l.mu.RUnlock()
		return
	}
	l.activeOps.Inc()
	l.wg.Add(1)
	l.mu.RUnlock()

	rec := &Record{
		ID:      newRecordID(),
		Context: l.ctx,
		Raw:     raw,
		Level:   level,
	}
	if l.synchronous {
		l.run(rec)
		return
	}
	go l.run(rec)
}

func (l *Logger) run(rec *Record) {
	defer func() {
		l.activeOps.Dec()
		l.wg.Done()
	}()
	_ = l.pipeline.execute(rec)
}

// setupStage merges the setup result into the call's context. The logger's
// base context is left untouched, so every call sees a fresh merge.
func (l *Logger) setupStage(rec *Record) error {
	patch, err := l.setup()
	if err != nil {
		return err
	}
	rec.Context = Merge(rec.Context, patch)
	return nil
}

func resolveStage(rec *Record) error {
	rec.Message = Resolve(rec.Raw, rec.Context)
	return nil
}

func (l *Logger) terminal(_ *Record, err error) {
	if err != nil {
		l.handleError(err)
	}
}

// handleError routes err to the configured handler. A panicking handler is
// reported on the diagnostics logger and otherwise ignored.
func (l *Logger) handleError(err error) {
	if err == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.diag.Error().Interface("panic", r).Msg("error handler panicked")
		}
	}()
	l.ErrorHandler()(err)
}

func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

package logpipe

import (
	"io"
	"os"
	"time"
)

// SetupFunc produces a context patch that is merged into the call context
// at the start of every pipeline run.
type SetupFunc func() (Context, error)

// DefaultShutdownTimeout bounds how long Close waits for in-flight calls.
const DefaultShutdownTimeout = 2 * time.Second

// Option applies a configuration option to options.
type Option func(options) options

// options holds the configuration of a Logger.
type options struct {
	context                Context
	setup                  SetupFunc
	errorHandling          ErrorHandler
	diagnostics            io.Writer
	shutdownTimeout        time.Duration
	synchronous            bool
	shutdownTimeoutWarning bool
}

func makeOptions(opts ...Option) options {
	o := options{
		context:                NewContext(),
		diagnostics:            os.Stderr,
		shutdownTimeout:        DefaultShutdownTimeout,
		shutdownTimeoutWarning: true,
	}
	return apply(o, opts...)
}

// apply applies multiple options to o.
func apply(o options, opts ...Option) options {
	for _, opt := range opts {
		if opt != nil {
			o = opt(o)
		}
	}
	return o
}

// WithName sets the logger name.
func WithName(name string) Option {
	return func(o options) options {
		o.context = o.context.With(KeyName, name)
		return o
	}
}

// WithThreshold sets the threshold level plugins compare calls against.
func WithThreshold(level Level) Option {
	return func(o options) options {
		o.context = o.context.With(KeyThresholdLevel, level)
		return o
	}
}

// WithFields merges caller fields into the logger context. The reserved
// keys name and thresholdLevel may be set this way too.
func WithFields(fields Context) Option {
	return func(o options) options {
		o.context = Merge(o.context, fields)
		return o
	}
}

// WithField sets a single caller field.
func WithField(key string, value any) Option {
	return WithFields(Context{key: value})
}

// WithSetup registers a setup callback. It runs at the start of every log
// call and its result is merged into that call's context only.
func WithSetup(fn SetupFunc) Option {
	return func(o options) options {
		o.setup = fn
		return o
	}
}

// WithSetupValues is the literal form of WithSetup: patch is merged into
// every call's context.
func WithSetupValues(patch Context) Option {
	frozen := Clone(patch)
	return WithSetup(func() (Context, error) {
		return frozen, nil
	})
}

// WithErrorHandling sets the handler that receives pipeline failures. When
// unset, failures are written as warnings to the diagnostics writer.
func WithErrorHandling(fn ErrorHandler) Option {
	return func(o options) options {
		o.errorHandling = fn
		return o
	}
}

// WithDiagnostics sets where the logger reports its own problems
// (default os.Stderr). A nil writer discards them.
func WithDiagnostics(w io.Writer) Option {
	return func(o options) options {
		if w == nil {
			w = io.Discard
		}
		o.diagnostics = w
		return o
	}
}

// WithSynchronous runs the pipeline on the calling goroutine. Level methods
// then return only after every plugin has finished.
func WithSynchronous() Option {
	return func(o options) options {
		o.synchronous = true
		return o
	}
}

// WithShutdownTimeout bounds how long Close waits for in-flight calls.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o options) options {
		o.shutdownTimeout = d
		return o
	}
}

// WithShutdownTimeoutWarning toggles the diagnostics warning emitted when
// Close gives up waiting.
func WithShutdownTimeoutWarning(enabled bool) Option {
	return func(o options) options {
		o.shutdownTimeoutWarning = enabled
		return o
	}
}

package main

import (
	"io"

	"github.com/Station-Manager/logpipe"
	"github.com/Station-Manager/logpipe/plugins/console"
	"github.com/Station-Manager/logpipe/plugins/filter"
	"github.com/Station-Manager/logpipe/plugins/rolling"
	"github.com/Station-Manager/logpipe/plugins/stdout"
)

// newLogger builds a logger with one plugin per configured sink, each
// wrapped in the filter when one is set.
func newLogger(cfg Config, s *streams) (*logpipe.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := cfg.level()
	timeout, _ := cfg.shutdownTimeout()

	opts := []logpipe.Option{
		logpipe.WithName(cfg.Name),
		logpipe.WithThreshold(level),
		logpipe.WithFields(logpipe.Context(cfg.Fields)),
		logpipe.WithShutdownTimeout(timeout),
		logpipe.WithDiagnostics(s.stderr),
	}
	if !cfg.Async {
		opts = append(opts, logpipe.WithSynchronous())
	}

	plugins, err := sinks(cfg, s)
	if err != nil {
		return nil, err
	}
	if cfg.Filter != "" {
		for i, p := range plugins {
			f, err := filter.New(cfg.Filter, p)
			if err != nil {
				closeAll(plugins)
				return nil, err
			}
			plugins[i] = f
		}
	}

	l, err := logpipe.New(opts...)
	if err != nil {
		closeAll(plugins)
		return nil, err
	}
	l.Use(plugins...).Build()
	return l, nil
}

func sinks(cfg Config, s *streams) ([]logpipe.Plugin, error) {
	var plugins []logpipe.Plugin
	if c := cfg.Console; c != nil {
		plugins = append(plugins, console.New(
			console.WithWriter(s.stdout),
			console.WithNoColor(c.NoColor),
			console.WithLoggerName(!c.HideLoggerName),
			console.WithTimestamp(!c.HideTimestamp),
		))
	}
	if c := cfg.Stdout; c != nil {
		p, err := stdout.New(stdout.WithConfig(*c), stdout.WithOutput(s.stdout))
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, p)
	}
	if c := cfg.Rolling; c != nil {
		p, err := rolling.New(*c)
		if err != nil {
			closeAll(plugins)
			return nil, err
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

func closeAll(plugins []logpipe.Plugin) {
	for _, p := range plugins {
		if c, ok := p.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

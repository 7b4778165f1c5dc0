// Package filter forwards calls to another plugin only when a boolean
// expression over the call holds, for example
//
//	level <= Warn || context.component == "cat"
//
// Expressions use the expr language (https://expr-lang.org) and are
// compiled once, in New.
package filter

import (
	"io"
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/logpipe"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

const (
	errMsgNilPlugin   = "Filter needs a plugin to forward to."
	errMsgEmptyExpr   = "Filter expression is empty."
	errMsgCompile     = "Filter expression does not compile."
	errMsgEvaluate    = "Filter expression failed."
	errMsgNotBoolean  = "Filter expression did not return a boolean."
	errMsgClosingNext = "Closing the filtered plugin failed."
)

// Env is the evaluation environment of a filter expression. The level
// constants let expressions compare against names: level <= Warn.
type Env struct {
	Level     int            `expr:"level"`
	LevelName string         `expr:"levelName"`
	Threshold int            `expr:"threshold"`
	Name      string         `expr:"name"`
	Plugin    string         `expr:"plugin"`
	Prefix    string         `expr:"prefix"`
	Message   string         `expr:"message"`
	Context   map[string]any `expr:"context"`

	Error   int `expr:"Error"`
	Warn    int `expr:"Warn"`
	Info    int `expr:"Info"`
	Debug   int `expr:"Debug"`
	Verbose int `expr:"Verbose"`
}

// NewEnv builds the environment for call.
func NewEnv(call *logpipe.Call) Env {
	entry := logpipe.AsEntry(call.Message)
	return Env{
		Level:     int(call.Level),
		LevelName: call.Level.String(),
		Threshold: int(call.Context.ThresholdLevel()),
		Name:      call.Context.Name(),
		Plugin:    call.Context.PluginIdentity(),
		Prefix:    entry.Prefix,
		Message:   entry.BodyString(),
		Context:   call.Context,
		Error:     int(logpipe.LevelError),
		Warn:      int(logpipe.LevelWarn),
		Info:      int(logpipe.LevelInfo),
		Debug:     int(logpipe.LevelDebug),
		Verbose:   int(logpipe.LevelVerbose),
	}
}

// Plugin wraps another plugin. It reports the wrapped plugin's identity.
type Plugin struct {
	source  string
	program *vm.Program
	next    logpipe.Plugin
}

var _ logpipe.Plugin = (*Plugin)(nil)

// New compiles expression and wraps next.
func New(expression string, next logpipe.Plugin) (*Plugin, error) {
	const op errors.Op = "filter.New"
	if next == nil {
		return nil, errors.New(op).Msg(errMsgNilPlugin)
	}
	source := strings.TrimSpace(expression)
	if source == "" {
		return nil, errors.New(op).Msg(errMsgEmptyExpr)
	}
	program, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgCompile)
	}
	return &Plugin{source: source, program: program, next: next}, nil
}

// MustNew is like New but panics if the expression does not compile.
func MustNew(expression string, next logpipe.Plugin) *Plugin {
	p, err := New(expression, next)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Plugin) Identity() string { return p.next.Identity() }

// Expression returns the compiled source.
func (p *Plugin) Expression() string { return p.source }

// Match evaluates the expression for call.
func (p *Plugin) Match(call *logpipe.Call) (bool, error) {
	const op errors.Op = "filter.Plugin.Match"
	out, err := expr.Run(p.program, NewEnv(call))
	if err != nil {
		return false, errors.New(op).Err(err).Msg(errMsgEvaluate)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, errors.New(op).Msg(errMsgNotBoolean)
	}
	return ok, nil
}

// Execute forwards call when the expression holds.
func (p *Plugin) Execute(call *logpipe.Call) error {
	ok, err := p.Match(call)
	if err != nil || !ok {
		return err
	}
	return p.next.Execute(call)
}

// Close closes the wrapped plugin if it holds resources.
func (p *Plugin) Close() error {
	const op errors.Op = "filter.Plugin.Close"
	c, ok := p.next.(io.Closer)
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		return errors.New(op).Err(err).Msg(errMsgClosingNext)
	}
	return nil
}

// Package rolling writes calls as zerolog JSON lines to a size-rotated
// log file.
package rolling

import (
	"os"
	"sync"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/logpipe"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Identity is the plugin identity injected into call contexts.
const Identity = "logpipe-plugin-rolling"

const (
	errMsgConfigInvalid = "Rolling file configuration is invalid."
	errMsgLogDir        = "Failed to create logs directory."
	errMsgClose         = "Failed to close log file."
)

// Field names written on every line besides zerolog's level and time.
const (
	FieldID      = "id"
	FieldPrefix  = "prefix"
	FieldName    = "name"
	FieldBody    = "body"
	FieldStack   = "stack"
	FieldContext = "context"
)

// Plugin appends one JSON object per loggable call to a rotated file.
type Plugin struct {
	cfg    Config
	file   *lumberjack.Logger
	logger zerolog.Logger

	// mu orders writes against Close; lumberjack reopens a closed file on
	// the next write.
	mu     sync.Mutex
	closed atomic.Bool
}

var _ logpipe.Plugin = (*Plugin)(nil)

// New validates cfg, creates the log directory and opens the rotating writer.
func New(cfg Config) (*Plugin, error) {
	const op errors.Op = "rolling.New"
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, os.ModePerm); err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgLogDir)
	}

	file := &lumberjack.Logger{
		Filename:   cfg.Path(),
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		MaxSize:    cfg.MaxSizeMB,
		Compress:   cfg.Compress,
	}

	logger := zerolog.New(file)
	if cfg.WithTimestamp {
		logger = logger.With().Timestamp().Logger()
	}

	return &Plugin{cfg: cfg, file: file, logger: logger}, nil
}

func (p *Plugin) Identity() string { return Identity }

// Path returns the active log file.
func (p *Plugin) Path() string { return p.file.Filename }

// Execute writes the call when it passes the context threshold.
func (p *Plugin) Execute(call *logpipe.Call) error {
	if p.closed.Load() || !call.Loggable() {
		return nil
	}
	entry := logpipe.AsEntry(call.Message)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return nil
	}

	// Log() carries no level of its own, so zerolog's global level never
	// drops verbose calls.
	e := p.logger.Log().Str(zerolog.LevelFieldName, zerologLevel(call.Level).String())
	if call.ID != "" {
		e = e.Str(FieldID, call.ID)
	}
	if entry.Prefix != "" {
		e = e.Str(FieldPrefix, entry.Prefix)
	}
	if entry.Name != "" {
		e = e.Str(FieldName, entry.Name)
	}
	var msg string
	switch body := entry.Body.(type) {
	case nil:
	case string:
		msg = body
	case logpipe.Text:
		msg = string(body)
	default:
		e = appendField(e, FieldBody, body, 0)
	}
	if entry.Stack != "" {
		e = e.Str(FieldStack, entry.Stack)
	}
	if len(call.Context) > 0 {
		e = e.Dict(FieldContext, dict(call.Context, 0))
	}
	e.Msg(msg)
	return nil
}

// Close closes the log file. Calls after Close are dropped.
func (p *Plugin) Close() error {
	const op errors.Op = "rolling.Plugin.Close"
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.file.Close(); err != nil {
		return errors.New(op).Err(err).Msg(errMsgClose)
	}
	return nil
}

// Rotate closes the current file and starts a new one. It does nothing
// after Close.
func (p *Plugin) Rotate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return nil
	}
	return p.file.Rotate()
}

func zerologLevel(l logpipe.Level) zerolog.Level {
	switch l {
	case logpipe.LevelError:
		return zerolog.ErrorLevel
	case logpipe.LevelWarn:
		return zerolog.WarnLevel
	case logpipe.LevelInfo:
		return zerolog.InfoLevel
	case logpipe.LevelDebug:
		return zerolog.DebugLevel
	case logpipe.LevelVerbose:
		return zerolog.TraceLevel
	default:
		return zerolog.NoLevel
	}
}

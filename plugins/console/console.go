// Package console is a minimal line printer: optional logger name and
// timestamp, then the message name, the JSON encoded body and the stack,
// coloured by level.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Station-Manager/logpipe"
	"github.com/Station-Manager/logpipe/internal/render"
	"github.com/Station-Manager/logpipe/internal/term"
	"github.com/goccy/go-json"
)

// Identity is the plugin identity injected into call contexts.
const Identity = "console"

// Target receives one formatted line without a trailing newline.
type Target func(line string) error

type config struct {
	target         Target
	out            io.Writer
	showLoggerName bool
	showTimestamp  bool
	noColor        bool
	now            func() time.Time
}

// Option configures the console plugin.
type Option func(config) config

// WithTarget sends lines to fn instead of a writer.
func WithTarget(fn Target) Option {
	return func(c config) config {
		c.target = fn
		return c
	}
}

// WithWriter writes lines to w (default os.Stdout).
func WithWriter(w io.Writer) Option {
	return func(c config) config {
		c.out = w
		return c
	}
}

// WithLoggerName toggles the "[name]" column (default on).
func WithLoggerName(show bool) Option {
	return func(c config) config {
		c.showLoggerName = show
		return c
	}
}

// WithTimestamp toggles the RFC 3339 timestamp column (default on).
func WithTimestamp(show bool) Option {
	return func(c config) config {
		c.showTimestamp = show
		return c
	}
}

// WithNoColor disables colours even on a terminal.
func WithNoColor(noColor bool) Option {
	return func(c config) config {
		c.noColor = noColor
		return c
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c config) config {
		if now != nil {
			c.now = now
		}
		return c
	}
}

// Plugin prints calls accepted by the context threshold.
type Plugin struct {
	cfg   config
	color bool
	mu    sync.Mutex
}

var _ logpipe.Plugin = (*Plugin)(nil)

// New returns a console plugin.
func New(opts ...Option) *Plugin {
	cfg := config{
		out:            os.Stdout,
		showLoggerName: true,
		showTimestamp:  true,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			cfg = opt(cfg)
		}
	}

	p := &Plugin{cfg: cfg}
	if cfg.target == nil {
		p.color = !cfg.noColor && term.ColorEnabled(cfg.out)
		p.cfg.target = p.writeLine
	} else {
		p.color = !cfg.noColor
	}
	return p
}

func (p *Plugin) Identity() string { return Identity }

func (p *Plugin) Execute(call *logpipe.Call) error {
	if !call.Loggable() {
		return nil
	}
	return p.cfg.target(p.Format(call))
}

// Format renders call as a single line (the stack, when present, adds
// indented lines below it).
func (p *Plugin) Format(call *logpipe.Call) string {
	paint := render.LevelPainter(call.Level, nil, p.color)
	entry := logpipe.AsEntry(call.Message)

	var b strings.Builder
	if p.cfg.showLoggerName {
		fmt.Fprintf(&b, "[%s] ", call.Context.Name())
	}
	if p.cfg.showTimestamp {
		b.WriteString(p.cfg.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
		b.WriteByte(' ')
	}
	if entry.Name != "" {
		b.WriteString(paint.Paint(entry.Name))
		b.WriteString(": ")
	}
	if entry.Body != nil && entry.Body != "" {
		b.WriteString(paint.Paint(encodeBody(entry.Body)))
		b.WriteByte(' ')
	}
	if entry.Stack != "" {
		b.WriteString(paint.Paint(render.FormatStack(entry.Stack)))
	}
	return strings.TrimRight(b.String(), " ")
}

func (p *Plugin) writeLine(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.cfg.out, line+"\n")
	return err
}

func encodeBody(body any) string {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Sprint(body)
	}
	return string(data)
}

// Package stdout is the rich terminal formatter: date and clock columns,
// relative time since the previous line, level badge, bracketed prefix and
// names, an optional arrow, then the message. Every line ends in a newline.
package stdout

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Station-Manager/logpipe"
	"github.com/Station-Manager/logpipe/internal/render"
	"github.com/Station-Manager/logpipe/internal/term"
	"github.com/Station-Manager/logpipe/pipe"
)

// Identity is the plugin identity injected into call contexts.
const Identity = "logpipe-plugin-stdout"

const (
	errMsgConfigInvalid = "Stdout plugin configuration is invalid."

	reasonNotWritable = "output is not writable"
	reasonFiltered    = "level is too low"
)

// Option configures the stdout plugin.
type Option func(settings) settings

type settings struct {
	cfg Config
	out io.Writer
	now func() time.Time
}

// WithConfig replaces the whole formatter configuration.
func WithConfig(cfg Config) Option {
	return func(s settings) settings {
		s.cfg = cfg
		return s
	}
}

// WithOutput writes to w instead of os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(s settings) settings {
		s.out = w
		return s
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s settings) settings {
		if now != nil {
			s.now = now
		}
		return s
	}
}

// Update edits the current configuration in place.
func Update(fn func(*Config)) Option {
	return func(s settings) settings {
		if fn != nil {
			fn(&s.cfg)
		}
		return s
	}
}

// Plugin formats calls for a terminal.
type Plugin struct {
	cfg         Config
	out         io.Writer
	now         func() time.Time
	color       bool
	levelColors map[logpipe.Level][]string
	mu          sync.Mutex

	lastMu sync.Mutex
	last   time.Time
}

var _ logpipe.Plugin = (*Plugin)(nil)

// New builds the plugin from DefaultConfig and opts.
func New(opts ...Option) (*Plugin, error) {
	s := settings{cfg: DefaultConfig(), out: os.Stdout, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			s = opt(s)
		}
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	return &Plugin{
		cfg:         s.cfg,
		out:         s.out,
		now:         s.now,
		color:       !s.cfg.NoColor && term.ColorEnabled(s.out),
		levelColors: s.cfg.levelColors(),
		last:        s.now(),
	}, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(opts ...Option) *Plugin {
	p, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Plugin) Identity() string { return Identity }

// Execute runs three steps: gate (output and threshold), format, write.
// The first step exits the pipe for calls that should not be printed.
func (p *Plugin) Execute(call *logpipe.Call) error {
	h := call.Pipe
	_, err := h.Pipe(
		func(any) (pipe.Result, error) {
			if !term.Writable(p.out) {
				return h.Exit(reasonNotWritable), nil
			}
			if p.cfg.Disable || !call.Loggable() {
				return h.Exit(reasonFiltered), nil
			}
			return h.Continue(logpipe.AsEntry(call.Message)), nil
		},
		func(v any) (pipe.Result, error) {
			return h.Continue(p.Format(call, v.(logpipe.Entry))), nil
		},
		func(v any) (pipe.Result, error) {
			p.mu.Lock()
			defer p.mu.Unlock()
			_, err := io.WriteString(p.out, v.(string))
			return h.Continue(nil), err
		},
	)(nil)
	return err
}

// advance reads the clock and returns the time since the previous line.
func (p *Plugin) advance() (time.Time, time.Duration) {
	p.lastMu.Lock()
	defer p.lastMu.Unlock()
	now := p.now()
	elapsed := now.Sub(p.last)
	p.last = now
	return now, elapsed
}

// Format renders one entry. The result always ends in a newline.
func (p *Plugin) Format(call *logpipe.Call, entry logpipe.Entry) string {
	cfg := p.cfg
	var now time.Time
	var elapsed time.Duration
	if cfg.ShowRelativeTimestamp {
		now, elapsed = p.advance()
	} else {
		now = p.now()
	}
	level := render.LevelPainter(call.Level, p.levelColors, p.color)
	var out strings.Builder

	if cfg.ShowDate || cfg.ShowTimestamp {
		out.WriteString("[")
		if cfg.ShowDate {
			out.WriteString(" " + level.Paint(formatDate(now)) + " ")
		}
		if cfg.ShowDate && cfg.ShowTimestamp {
			out.WriteString("|")
		}
		if cfg.ShowTimestamp {
			out.WriteString(" " + level.Paint(formatClock(now, cfg.Use24HourClock)) + " ")
		}
		out.WriteString("] ")
	}

	if cfg.ShowRelativeTimestamp {
		out.WriteString("[" + level.Paint(FormatRelative(elapsed, "+")) + "] ")
	}

	if cfg.ShowLevelName {
		name := call.Level.String()
		if cfg.CapitalizeLevelName {
			name = strings.ToUpper(name)
		}
		out.WriteString("[ " + level.Paint(name) + " ] ")
	}

	var context []string
	if cfg.ShowPrefix && entry.Prefix != "" {
		c := render.NewPainter(cfg.PrefixColor, p.color)
		context = append(context, " "+c.Paint(strings.ToUpper(entry.Prefix))+" ")
	}
	if name := call.Context.Name(); cfg.ShowLoggerName && name != "" {
		if cfg.CapitalizeLoggerName {
			name = strings.ToUpper(name)
		}
		c := render.NewPainter(cfg.LoggerNameColor, p.color)
		context = append(context, " "+c.Paint(name)+" ")
	}
	if name := call.Context.PluginIdentity(); cfg.ShowPluginName && name != "" {
		if cfg.CapitalizePluginName {
			name = strings.ToUpper(name)
		}
		c := render.NewPainter(cfg.PluginNameColor, p.color)
		context = append(context, " "+c.Paint(name)+" ")
	}
	if len(context) > 0 {
		out.WriteString("[" + strings.Join(context, ":") + "] ")
	}

	if cfg.ShowArrow {
		out.WriteString(" " + render.NewPainter([]string{"bold"}, p.color).Paint(">>") + " ")
	}
	if entry.Name != "" {
		out.WriteString(entry.Name + " ")
	}
	if body := entry.BodyString(); body != "" {
		out.WriteString(body + " ")
	}
	if entry.Stack != "" {
		out.WriteString(render.FormatStack(entry.Stack))
	}

	s := out.String()
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}

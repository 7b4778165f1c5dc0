package main

import (
	"context"
	"io"
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/logpipe/plugins/rolling"
	"github.com/Station-Manager/logpipe/plugins/stdout"
	"github.com/alecthomas/kong"
)

const (
	appName        = "logpipe"
	appDescription = "Write log messages through logpipe plugins."

	errMsgUnknownSink = "Unknown sink."
)

// Sink names accepted by --sink.
const (
	sinkConsole = "console"
	sinkStdout  = "stdout"
	sinkRolling = "rolling"
)

type streams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// CLI is the command line. Flags override the configuration file.
type CLI struct {
	profiling `embed:"" group:"profile" prefix:"profile-"`

	Config string   `help:"YAML configuration file."                                short:"c" type:"existingfile"`
	Name   string   `help:"Logger name."                                            short:"n"`
	Level  string   `help:"Threshold level (error, warn, info, debug, verbose)."   short:"l"`
	Filter string   `help:"Expression a call must satisfy, e.g. 'level <= Warn'." short:"f"`
	Sink   []string `help:"Output plugins: console, stdout, rolling."               short:"s"`
	LogDir string   `default:"logs"                                                 help:"Directory of the rolling sink." type:"path"`

	Emit Emit `cmd:"" help:"Log one message."`
	Pipe Pipe `cmd:"" help:"Log each line read from standard input."`
}

// Run parses args and runs the selected command.
func Run(ctx context.Context, s *streams, exit func(code int), args ...string) error {
	var cli CLI

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	parser, err := kong.New(&cli,
		kong.Name(appName),
		kong.Description(appDescription),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(s.stdout, s.stderr),
		kong.ExplicitGroups([]kong.Group{cli.profiling.group()}),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.Bind(&cli, s),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		cli.profiling.vars(),
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	defer cli.profiling.start()()

	return kongCtx.Run()
}

// config loads the configuration file, or the defaults, and applies the
// flags on top of it.
func (c *CLI) config() (Config, error) {
	const op errors.Op = "main.CLI.config"
	cfg := DefaultConfig()
	if c.Config != "" {
		var err error
		if cfg, err = LoadConfig(c.Config); err != nil {
			return Config{}, err
		}
	}

	if c.Name != "" {
		cfg.Name = c.Name
	}
	if c.Level != "" {
		cfg.Threshold = c.Level
	}
	if c.Filter != "" {
		cfg.Filter = c.Filter
	}

	if len(c.Sink) > 0 {
		selected := map[string]bool{}
		for _, name := range c.Sink {
			for _, n := range strings.Split(name, ",") {
				n = strings.ToLower(strings.TrimSpace(n))
				switch n {
				case sinkConsole, sinkStdout, sinkRolling:
					selected[n] = true
				default:
					return Config{}, errors.New(op).Msg(errMsgUnknownSink + " (" + n + ")")
				}
			}
		}
		if !selected[sinkConsole] {
			cfg.Console = nil
		} else if cfg.Console == nil {
			cfg.Console = &ConsoleConfig{}
		}
		if !selected[sinkStdout] {
			cfg.Stdout = nil
		} else if cfg.Stdout == nil {
			std := stdout.DefaultConfig()
			cfg.Stdout = &std
		}
		if !selected[sinkRolling] {
			cfg.Rolling = nil
		} else if cfg.Rolling == nil {
			cfg.Rolling = &rolling.Config{Dir: c.LogDir, MaxSizeMB: 10, MaxBackups: 3, WithTimestamp: true}
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

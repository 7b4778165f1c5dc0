package main

import (
	"bufio"
	"context"
	stderrs "errors"
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/logpipe"
	"github.com/goccy/go-json"
)

const (
	errMsgBadJSON = "Message is not valid JSON."
	errMsgRead    = "Reading standard input failed."
)

// Emit logs a single message.
type Emit struct {
	Prefix    string `help:"Entry prefix."                          short:"p"`
	EntryName string `help:"Entry name."                            name:"entry-name"`
	JSON      bool   `help:"Decode the message as a JSON body."     short:"j"`
	Stack     string `help:"Stack trace attached to the entry."`

	Level   string   `arg:"" help:"Message level."`
	Message []string `arg:"" help:"Message text."`
}

// Run executes the emit command.
func (e *Emit) Run(ctx context.Context, cli *CLI, s *streams) error {
	const op errors.Op = "main.Emit.Run"
	level, err := logpipe.ParseLevel(e.Level)
	if err != nil {
		return err
	}
	text := strings.Join(e.Message, " ")

	var msg any = text
	if e.Prefix != "" || e.EntryName != "" || e.JSON || e.Stack != "" {
		entry := logpipe.Entry{Prefix: e.Prefix, Name: e.EntryName, Stack: e.Stack, Body: text}
		if e.JSON {
			var body any
			if err = json.Unmarshal([]byte(text), &body); err != nil {
				return errors.New(op).Err(err).Msg(errMsgBadJSON)
			}
			entry.Body = body
		}
		msg = entry
	}

	return withLogger(ctx, cli, s, func(l *logpipe.Logger) error {
		l.Log(level, msg)
		return nil
	})
}

// Pipe logs each non-empty line of standard input.
type Pipe struct {
	Detect bool `help:"Take the level from a leading 'level:' on each line." short:"d"`

	Level string `arg:"" default:"info" help:"Level of lines without a detected level." optional:""`
}

// Run executes the pipe command.
func (p *Pipe) Run(ctx context.Context, cli *CLI, s *streams) error {
	const op errors.Op = "main.Pipe.Run"
	level, err := logpipe.ParseLevel(p.Level)
	if err != nil {
		return err
	}

	return withLogger(ctx, cli, s, func(l *logpipe.Logger) error {
		sc := bufio.NewScanner(s.stdin)
		for sc.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}
			line := strings.TrimRight(sc.Text(), "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			lineLevel := level
			if p.Detect {
				lineLevel, line = detectLevel(line, level)
			}
			l.Log(lineLevel, line)
		}
		if err := sc.Err(); err != nil {
			return errors.New(op).Err(err).Msg(errMsgRead)
		}
		return nil
	})
}

// detectLevel splits "warn: disk low" into LevelWarn and "disk low". Lines
// without a recognised level keep fallback and their full text.
func detectLevel(line string, fallback logpipe.Level) (logpipe.Level, string) {
	head, rest, ok := strings.Cut(line, ":")
	if !ok || strings.ContainsAny(strings.TrimSpace(head), " \t") {
		return fallback, line
	}
	level, err := logpipe.ParseLevel(head)
	if err != nil {
		return fallback, line
	}
	return level, strings.TrimSpace(rest)
}

// withLogger builds the logger from the command line, runs fn, then
// flushes and closes it.
func withLogger(ctx context.Context, cli *CLI, s *streams, fn func(*logpipe.Logger) error) error {
	cfg, err := cli.config()
	if err != nil {
		return err
	}
	l, err := newLogger(cfg, s)
	if err != nil {
		return err
	}

	runErr := fn(l)
	flushErr := l.Flush(ctx)
	closeErr := l.Close()
	return stderrs.Join(runErr, flushErr, closeErr)
}

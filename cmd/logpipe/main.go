// Command logpipe writes log messages through the logpipe plugins. It is
// useful for trying out plugin configurations and for piping the output of
// other programs into a rotated log file:
//
//	logpipe --sink stdout,rolling emit warn "antenna SWR high"
//	some-daemon 2>&1 | logpipe -c logpipe.yaml pipe --detect info
package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	s := &streams{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := Run(context.Background(), s, os.Exit, os.Args[1:]...); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError writes a failed run to w.
func reportError(w io.Writer, err error) {
	l := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()
	l.Error().Err(err).Msg("run failed")
}

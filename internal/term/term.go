// Package term answers environment questions the output plugins need:
// whether a writer is an interactive terminal and whether colour output
// should be used for it.
package term

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// fder is implemented by *os.File and other file-backed writers.
type fder interface {
	Fd() uintptr
}

// IsTerminal reports whether w is backed by a terminal (including Cygwin
// and MSYS pseudo terminals).
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ColorEnabled reports whether coloured output should be written to w.
// NO_COLOR disables colour; otherwise colour is used for terminals only.
func ColorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return IsTerminal(w)
}

// Writable reports whether w can be used as an output at all. A nil writer
// or a closed standard stream is not writable.
func Writable(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		if f == nil {
			return false
		}
		if _, err := f.Stat(); err != nil {
			return false
		}
	}
	return true
}

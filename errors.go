package logpipe

import (
	stderrs "errors"
	"strings"

	smerrors "github.com/Station-Manager/errors"
	"github.com/rs/zerolog"
)

// Stage names reported in StageError.
const (
	StageSetup   = "setup"
	StageResolve = "resolve"
	StagePlugin  = "plugin"
)

var (
	// ErrAlreadyBuilt is reported when Use is called after Build.
	ErrAlreadyBuilt = stderrs.New(errMsgAlreadyBuilt)
	// ErrNilPlugin is reported when Use receives a nil plugin.
	ErrNilPlugin = stderrs.New(errMsgNilPlugin)
)

// StageError is handed to the error handler when a pipeline stage fails.
// Its message is the message of the underlying error.
type StageError struct {
	Stage  string
	Plugin string
	Err    error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Stage + " stage failed"
	}
	return e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

// ErrorHandler receives pipeline failures, once per failed call.
type ErrorHandler func(err error)

// buildErrorChain walks an error's cause chain and returns:
//   - chain: outermost -> innermost error messages
//   - ops: operation identifiers for detailed errors ("" if not available)
//   - root: the innermost error message
//   - rootOp: the innermost operation identifier if available
//
// Detailed errors are unwrapped through Cause(), everything else through
// errors.Unwrap. Depth is bounded and repeated messages stop the walk.
func buildErrorChain(err error) (chain []string, ops []string, root string, rootOp string) {
	const maxDepth = 50
	visited := 0
	seen := map[string]bool{}

	for err != nil && visited < maxDepth {
		visited++

		if se, ok := err.(*StageError); ok {
			if se.Err == nil {
				chain = append(chain, se.Error())
				ops = append(ops, emptyString)
				break
			}
			err = se.Err
			continue
		}

		if dErr, ok := smerrors.AsDetailedError(err); ok && dErr != nil {
			chain = append(chain, dErr.Error())
			ops = append(ops, string(dErr.Op()))
			err = dErr.Cause()
			continue
		}

		msg := err.Error()
		if seen[msg] {
			break
		}
		seen[msg] = true
		chain = append(chain, msg)
		ops = append(ops, emptyString)
		err = stderrs.Unwrap(err)
	}

	if len(chain) > 0 {
		root = chain[len(chain)-1]
	}
	if len(ops) > 0 {
		rootOp = ops[len(ops)-1]
	}
	return
}

// joinChain returns a single string for the error chain separated by " -> ".
func joinChain(chain []string) string {
	if len(chain) == 0 {
		return emptyString
	}
	return strings.Join(chain, " -> ")
}

// withErrorChain adds the error and its cause chain to a zerolog event.
func withErrorChain(e *zerolog.Event, err error) *zerolog.Event {
	e = e.Err(err)
	var se *StageError
	if stderrs.As(err, &se) {
		e = e.Str("stage", se.Stage)
		if se.Plugin != emptyString {
			e = e.Str("plugin", se.Plugin)
		}
	}
	chain, ops, root, rootOp := buildErrorChain(err)
	if len(chain) > 0 {
		e = e.Strs("error_chain", chain).
			Str("error_root", root).
			Str("error_history", joinChain(chain)).
			Strs("error_ops", ops)
		if rootOp != emptyString {
			e = e.Str("error_root_op", rootOp)
		}
	}
	return e
}

// defaultErrorHandler reports failures as warnings on the diagnostics
// logger when the caller did not supply a handler.
func defaultErrorHandler(diag *zerolog.Logger) ErrorHandler {
	return func(err error) {
		withErrorChain(diag.Warn(), err).Msg("log pipeline failure")
	}
}

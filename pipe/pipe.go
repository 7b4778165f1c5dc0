// Package pipe provides a small step-composition helper for plugins.
//
// A plugin chains Steps; each step receives the previous step's value and
// returns a Result that either continues with a new value or exits the
// pipe early with a reason. Exiting is a value, not a panic, so callers can
// inspect why a pipe stopped.
//
//	out, err := pipe.Pipe(
//		func(any) (pipe.Result, error) {
//			if !loggable {
//				return pipe.Exit("level too low"), nil
//			}
//			return pipe.Continue(entry), nil
//		},
//		func(v any) (pipe.Result, error) { return pipe.Continue(format(v)), nil },
//	)(nil)
package pipe

// Result is the tagged outcome of a Step.
type Result struct {
	value  any
	reason any
	exited bool
}

// Continue passes v to the next step.
func Continue(v any) Result {
	return Result{value: v}
}

// Exit stops the pipe; remaining steps are skipped.
func Exit(reason any) Result {
	return Result{reason: reason, exited: true}
}

// Exited reports whether the pipe stopped early.
func (r Result) Exited() bool { return r.exited }

// Value is the carried value of a continuing result, nil after Exit.
func (r Result) Value() any { return r.value }

// Reason is the argument given to Exit.
func (r Result) Reason() any { return r.reason }

// IsExit reports whether r came from Exit.
func IsExit(r Result) bool { return r.exited }

// Step is one stage of a pipe.
type Step func(in any) (Result, error)

// Func runs a composed pipe on an initial value.
type Func func(in any) (Result, error)

// Pipe composes steps left to right. The composed function stops at the
// first Exit or error and returns it; otherwise it returns the last step's
// result. An empty pipe continues with its input.
func Pipe(steps ...Step) Func {
	return func(in any) (Result, error) {
		res := Continue(in)
		for _, step := range steps {
			if step == nil {
				continue
			}
			next, err := step(res.value)
			if err != nil {
				return next, err
			}
			if next.exited {
				return next, nil
			}
			res = next
		}
		return res, nil
	}
}

// Helpers bundles the pipe functions so they can be handed to plugins as a
// single value.
type Helpers struct{}

func (Helpers) Pipe(steps ...Step) Func { return Pipe(steps...) }
func (Helpers) Continue(v any) Result   { return Continue(v) }
func (Helpers) Exit(reason any) Result  { return Exit(reason) }
func (Helpers) IsExit(r Result) bool    { return IsExit(r) }

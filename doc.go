// Package logpipe provides an extensible, plugin-driven logging façade.
//
// A Logger owns a base context (name, threshold level and any caller
// fields) and an ordered pipeline of stages. Every log call runs the same
// pipeline on a fresh record:
//
//   - setup: an optional callback whose result is merged into the call's
//     copy of the context (re-run on every call)
//   - resolve: the raw message (literal or a function of the context) is
//     turned into a Message; failing message functions degrade to a
//     fallback Entry instead of aborting the call
//   - dispatch: each registered Plugin, in registration order, receives a
//     deep clone of the context tagged with its identity
//   - terminal: if any stage failed, the error handler receives the error
//
// Plugins decide for themselves whether a level is loggable by comparing
// the context threshold with the call level (see IsLoggable). A failing
// plugin short-circuits the plugins registered after it for that call.
//
// Typical usage
//
//	l, err := logpipe.New(
//		logpipe.WithName("api"),
//		logpipe.WithThreshold(logpipe.LevelDebug),
//		logpipe.WithErrorHandling(func(err error) { ... }),
//	)
//	if err != nil { panic(err) }
//	defer l.Close()
//
//	log := l.Use(stdout.MustNew()).Build()
//	log.Info("started")
//	log.Debug(func(ctx logpipe.Context) string { return ctx.Name() + " ready" })
//
// Level methods are fire-and-forget: each call runs on its own goroutine
// and returns immediately. Flush waits for in-flight calls; WithSynchronous
// runs the pipeline inline instead.
package logpipe

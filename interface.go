package logpipe

// Builder is the registration view of a Logger. Use appends plugins in
// order; Build seals the pipeline and returns the logging surface.
type Builder interface {
	Use(plugins ...Plugin) Builder
	Build() Emitter
}

// Emitter provides the five level methods. A message is a string, a Text,
// an Entry, or a function of the context returning one of those.
// For example: log.Debug(func(ctx logpipe.Context) string { return ctx.Name() })
type Emitter interface {
	Error(msg any)
	Warn(msg any)
	Info(msg any)
	Debug(msg any)
	Verbose(msg any)
}

// Plugin receives every resolved log call. Execute may block; an error or
// panic is reported to the logger's error handler and stops the plugins
// registered after this one for the same call.
type Plugin interface {
	Identity() string
	Execute(call *Call) error
}

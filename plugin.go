package logpipe

import (
	"sync"

	"github.com/Station-Manager/logpipe/pipe"
)

// Call is what a plugin receives for one log call.
type Call struct {
	// ID identifies the log call; every plugin of one call sees the same ID.
	ID string
	// Context is a private deep copy of the call context carrying the
	// plugin's identity under KeyPluginIdentity.
	Context Context
	Level   Level
	Message Message
	// Pipe lets a plugin compose its own formatting steps.
	Pipe pipe.Helpers
}

// Loggable reports whether the call's level passes the context threshold.
func (c *Call) Loggable() bool {
	return IsLoggable(c.Context.ThresholdLevel(), c.Level)
}

// PluginFunc is the execute half of a plugin defined with Define.
type PluginFunc func(call *Call) error

type definedPlugin struct {
	identity string
	execute  PluginFunc
}

// Define builds a Plugin from an identity and an execute function.
func Define(identity string, fn PluginFunc) Plugin {
	return &definedPlugin{identity: identity, execute: fn}
}

func (p *definedPlugin) Identity() string { return p.identity }

func (p *definedPlugin) Execute(call *Call) error {
	if p.execute == nil {
		return nil
	}
	return p.execute(call)
}

// lazyPlugin defers plugin construction until registration.
type lazyPlugin struct {
	once    sync.Once
	factory func() Plugin
	plugin  Plugin
}

// Lazy returns a Plugin whose construction is deferred to the moment it is
// registered with Use.
func Lazy(factory func() Plugin) Plugin {
	return &lazyPlugin{factory: factory}
}

func (p *lazyPlugin) resolve() Plugin {
	p.once.Do(func() {
		if p.factory != nil {
			p.plugin = p.factory()
		}
	})
	return p.plugin
}

func (p *lazyPlugin) Identity() string {
	if r := p.resolve(); r != nil {
		return r.Identity()
	}
	return emptyString
}

func (p *lazyPlugin) Execute(call *Call) error {
	if r := p.resolve(); r != nil {
		return r.Execute(call)
	}
	return nil
}

// unwrapPlugin resolves lazy plugins; nil results report false.
func unwrapPlugin(p Plugin) (Plugin, bool) {
	if lz, ok := p.(*lazyPlugin); ok {
		p = lz.resolve()
	}
	if p == nil {
		return nil, false
	}
	return p, true
}

// dispatch runs one plugin for rec. Calls without a resolved message are
// skipped. The plugin gets its own clone of the call context so nothing it
// does is visible to other plugins or later calls.
func dispatch(p Plugin, rec *Record) error {
	if rec.Message == nil {
		return nil
	}
	identity := p.Identity()
	ctx := Clone(rec.Context)
	if ctx == nil {
		ctx = Context{}
	}
	ctx[KeyPluginIdentity] = identity

	return p.Execute(&Call{
		ID:      rec.ID,
		Context: ctx,
		Level:   rec.Level,
		Message: rec.Message,
	})
}

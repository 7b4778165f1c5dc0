package logpipe

// Context is the logger context: the library keys (name, thresholdLevel)
// plus any caller-defined fields. Stages never mutate a Context in place;
// changes produce a new merged value.
type Context map[string]any

// NewContext returns a context carrying the library defaults.
func NewContext() Context {
	return Context{
		KeyName:           DefaultLoggerName,
		KeyThresholdLevel: DefaultThreshold,
	}
}

// Name returns the logger name or "" when unset.
func (c Context) Name() string {
	s, _ := c[KeyName].(string)
	return s
}

// ThresholdLevel returns the configured threshold. Integer values (as
// decoded from configuration files) and level names are accepted.
func (c Context) ThresholdLevel() Level {
	if l, ok := levelFromValue(c[KeyThresholdLevel]); ok {
		return l
	}
	return DefaultThreshold
}

// levelFromValue converts a threshold stored in a context. Signed values are
// not range checked; fractional floats and oversized unsigned values fail.
func levelFromValue(v any) (Level, bool) {
	switch v := v.(type) {
	case Level:
		return v, true
	case int:
		return Level(v), true
	case int64:
		return Level(v), true
	case uint64:
		if v > uint64(LevelVerbose) {
			return 0, false
		}
		return Level(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return Level(int(v)), true
	case string:
		if l, err := ParseLevel(v); err == nil {
			return l, true
		}
	}
	return 0, false
}

// PluginIdentity returns the identity injected by the dispatcher, or "" on
// contexts that were not handed to a plugin.
func (c Context) PluginIdentity() string {
	s, _ := c[KeyPluginIdentity].(string)
	return s
}

// Get returns the value stored under key.
func (c Context) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// With returns a copy of c with key set to value.
func (c Context) With(key string, value any) Context {
	return Merge(c, Context{key: value})
}

// Merge combines base and patch into a new Context. Nested records (maps
// with string keys) are merged recursively; any other patch value replaces
// the base value. Neither input is modified and the result shares no
// mutable state with them. A nil patch yields a clone of base.
func Merge(base, patch Context) Context {
	out := Clone(base)
	if out == nil {
		out = Context{}
	}
	for k, pv := range patch {
		out[k] = mergeValue(out[k], pv)
	}
	return out
}

func mergeValue(base, patch any) any {
	pm, ok := asRecord(patch)
	if !ok {
		return cloneAny(patch)
	}
	bm, ok := asRecord(base)
	if !ok {
		return cloneAny(patch)
	}

	merged := make(map[string]any, len(bm)+len(pm))
	for k, v := range bm {
		merged[k] = v
	}
	for k, v := range pm {
		merged[k] = mergeValue(merged[k], v)
	}
	if _, isCtx := base.(Context); isCtx {
		return Context(merged)
	}
	return merged
}

func asRecord(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Context:
		return m, m != nil
	case map[string]any:
		return m, m != nil
	}
	return nil, false
}

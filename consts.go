package logpipe

const (
	// DefaultLoggerName is used when no name option is supplied.
	DefaultLoggerName = "logpipe"
	// DefaultThreshold is the threshold used when none is supplied.
	DefaultThreshold = LevelInfo
	// ResolveFailedMessage is the body of the fallback entry produced when
	// a message function panics or returns an unusable value.
	ResolveFailedMessage = "message function execution failed"

	emptyString = ""
)

// Well-known context keys.
const (
	KeyName           = "name"
	KeyThresholdLevel = "thresholdLevel"
	KeyPluginIdentity = "pluginIdentity"
)

const (
	errMsgNilLogger       = "Logger is nil."
	errMsgOptionsInvalid  = "Logger options are invalid."
	errMsgUnknownLevel    = "Unknown log level."
	errMsgAlreadyBuilt    = "Logger already built; plugin registration is closed."
	errMsgNilPlugin       = "Plugin is nil."
	errMsgFlushTimeout    = "Logger flush did not complete."
	errMsgPluginClose     = "Closing plugins failed."
	errMsgInvalidMessage  = "Message function returned an unusable value."
	errMsgUnsupportedType = "Unsupported raw message type."
)

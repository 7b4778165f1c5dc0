package stdout

import (
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/logpipe"
)

// Config is the formatter configuration. It can be decoded from YAML.
// Colours are attribute names such as "bold" or "red".
type Config struct {
	Disable               bool                `yaml:"disable"`
	ShowLoggerName        bool                `yaml:"showLoggerName"`
	CapitalizeLoggerName  bool                `yaml:"capitalizeLoggerName"`
	ShowPluginName        bool                `yaml:"showPluginName"`
	CapitalizePluginName  bool                `yaml:"capitalizePluginName"`
	ShowPrefix            bool                `yaml:"showPrefix"`
	ShowLevelName         bool                `yaml:"showLevelName"`
	CapitalizeLevelName   bool                `yaml:"capitalizeLevelName"`
	ShowDate              bool                `yaml:"showDate"`
	ShowTimestamp         bool                `yaml:"showTimestamp"`
	Use24HourClock        bool                `yaml:"use24HourClock"`
	ShowArrow             bool                `yaml:"showArrow"`
	NoColor               bool                `yaml:"noColor"`
	ShowRelativeTimestamp bool                `yaml:"showRelativeTimestamp"`
	LevelColor            map[string][]string `yaml:"levelColor" validate:"dive,keys,oneof=error warn info debug verbose,endkeys,dive,oneof=bold faint italic underline black red green yellow blue magenta cyan white gray"`
	PrefixColor           []string            `yaml:"prefixColor" validate:"dive,oneof=bold faint italic underline black red green yellow blue magenta cyan white gray"`
	LoggerNameColor       []string            `yaml:"loggerNameColor" validate:"dive,oneof=bold faint italic underline black red green yellow blue magenta cyan white gray"`
	PluginNameColor       []string            `yaml:"pluginNameColor" validate:"dive,oneof=bold faint italic underline black red green yellow blue magenta cyan white gray"`
}

// DefaultConfig returns the defaults: only the prefix is shown.
func DefaultConfig() Config {
	return Config{
		ShowPrefix:      true,
		PrefixColor:     []string{"bold", "magenta"},
		LoggerNameColor: []string{"bold", "magenta"},
		PluginNameColor: []string{"bold", "magenta"},
	}
}

// Validate checks colour names and level keys.
func (c Config) Validate() error {
	const op errors.Op = "stdout.Config.Validate"
	if err := logpipe.Validator().Struct(c); err != nil {
		return errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}
	return nil
}

// levelColors converts the name-keyed colour map into a level-keyed one.
func (c Config) levelColors() map[logpipe.Level][]string {
	if len(c.LevelColor) == 0 {
		return nil
	}
	out := make(map[logpipe.Level][]string, len(c.LevelColor))
	for name, colors := range c.LevelColor {
		l, err := logpipe.ParseLevel(strings.TrimSpace(name))
		if err != nil {
			continue
		}
		out[l] = colors
	}
	return out
}

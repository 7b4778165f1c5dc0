package main

import (
	"os"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/logpipe"
	"github.com/Station-Manager/logpipe/plugins/rolling"
	"github.com/Station-Manager/logpipe/plugins/stdout"
	"github.com/goccy/go-yaml"
)

const (
	errMsgConfigRead    = "Failed to read configuration file."
	errMsgConfigDecode  = "Configuration file is not valid YAML."
	errMsgConfigInvalid = "Configuration is invalid."
	errMsgNoSinks       = "No output plugin is enabled."
)

// Config is the YAML configuration of the command. A sink section that is
// absent disables that sink.
//
//	name: station
//	threshold: debug
//	filter: level <= Warn || context.component == "cat"
//	fields:
//	  callsign: M0ABC
//	stdout:
//	  showLevelName: true
//	rolling:
//	  dir: ./logs
type Config struct {
	Name            string         `yaml:"name" validate:"required"`
	Threshold       string         `yaml:"threshold"`
	Filter          string         `yaml:"filter"`
	Fields          map[string]any `yaml:"fields"`
	ShutdownTimeout string         `yaml:"shutdownTimeout"`
	Async           bool           `yaml:"async"`

	Console *ConsoleConfig  `yaml:"console"`
	Stdout  *stdout.Config  `yaml:"stdout"`
	Rolling *rolling.Config `yaml:"rolling"`
}

// ConsoleConfig configures the plain console sink.
type ConsoleConfig struct {
	NoColor        bool `yaml:"noColor"`
	HideLoggerName bool `yaml:"hideLoggerName"`
	HideTimestamp  bool `yaml:"hideTimestamp"`
}

// DefaultConfig logs at info to the stdout sink.
func DefaultConfig() Config {
	std := stdout.DefaultConfig()
	return Config{
		Name:      logpipe.DefaultLoggerName,
		Threshold: logpipe.DefaultThreshold.String(),
		Stdout:    &std,
	}
}

// LoadConfig reads and validates a YAML configuration file. Unknown keys
// are rejected.
func LoadConfig(path string) (Config, error) {
	const op errors.Op = "main.LoadConfig"
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.New(op).Err(err).Msg(errMsgConfigRead)
	}
	cfg := Config{Name: logpipe.DefaultLoggerName}
	if err = yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
		return Config{}, errors.New(op).Err(err).Msg(errMsgConfigDecode)
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags of every section, then the values that
// need parsing.
func (c Config) Validate() error {
	const op errors.Op = "main.Config.Validate"
	if err := logpipe.Validator().Struct(c); err != nil {
		return errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}
	if _, err := c.level(); err != nil {
		return errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}
	if _, err := c.shutdownTimeout(); err != nil {
		return errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}
	if c.Console == nil && c.Stdout == nil && c.Rolling == nil {
		return errors.New(op).Msg(errMsgNoSinks)
	}
	return nil
}

func (c Config) level() (logpipe.Level, error) {
	if c.Threshold == "" {
		return logpipe.DefaultThreshold, nil
	}
	return logpipe.ParseLevel(c.Threshold)
}

func (c Config) shutdownTimeout() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		return logpipe.DefaultShutdownTimeout, nil
	}
	return time.ParseDuration(c.ShutdownTimeout)
}

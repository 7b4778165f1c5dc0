package rolling

import (
	"path/filepath"
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/logpipe"
	"github.com/Station-Manager/types"
	"github.com/Station-Manager/utils"
)

// Config describes the log file and its rotation policy.
type Config struct {
	// Dir is the directory holding the log file. It is created on New.
	Dir string `yaml:"dir" validate:"required"`
	// Filename defaults to the executable name with a ".log" extension.
	Filename      string `yaml:"filename" validate:"omitempty,excludesall=/\\"`
	MaxSizeMB     int    `yaml:"maxSizeMB" validate:"gte=0"`
	MaxBackups    int    `yaml:"maxBackups" validate:"gte=0"`
	MaxAgeDays    int    `yaml:"maxAgeDays" validate:"gte=0"`
	Compress      bool   `yaml:"compress"`
	WithTimestamp bool   `yaml:"withTimestamp"`
}

// FromLoggingConfig maps a Station-Manager logging configuration onto a
// rolling file configuration. RelLogFileDir is resolved against workingDir.
func FromLoggingConfig(cfg types.LoggingConfig, workingDir string) Config {
	return Config{
		Dir:           filepath.Join(workingDir, cfg.RelLogFileDir),
		MaxSizeMB:     cfg.LogFileMaxSizeMB,
		MaxBackups:    cfg.LogFileMaxBackups,
		MaxAgeDays:    cfg.LogFileMaxAgeDays,
		Compress:      cfg.LogFileCompress,
		WithTimestamp: cfg.WithTimestamp,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	const op errors.Op = "rolling.Config.Validate"
	if err := logpipe.Validator().Struct(c); err != nil {
		return errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}
	return nil
}

// Path returns the full path of the active log file.
func (c Config) Path() string {
	name := c.Filename
	if name == "" {
		name = defaultFilename()
	}
	return filepath.Join(c.Dir, name)
}

func defaultFilename() string {
	exeName, err := utils.ExecName(true)
	if err != nil || strings.TrimSpace(exeName) == "" {
		exeName = "app"
	}
	return exeName + ".log"
}

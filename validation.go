package logpipe

import (
	"sync"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate
var once sync.Once

// Validator returns the shared validator used for logger and plugin
// options.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// settings is the validated view of options.
type settings struct {
	Name            string        `validate:"required"`
	Threshold       Level         `validate:"gte=0,lte=4"`
	ShutdownTimeout time.Duration `validate:"gte=0"`
}

func validateOptions(o options) error {
	const op errors.Op = "logpipe.validateOptions"
	s := settings{
		Name:            o.context.Name(),
		Threshold:       Level(-1),
		ShutdownTimeout: o.shutdownTimeout,
	}
	raw := o.context[KeyThresholdLevel]
	if l, ok := levelFromValue(raw); ok {
		s.Threshold = l
	} else if name, isName := raw.(string); isName {
		_, err := ParseLevel(name)
		return errors.New(op).Err(err).Msg(errMsgOptionsInvalid)
	}

	if err := Validator().Struct(s); err != nil {
		return errors.New(op).Err(err).Msg(errMsgOptionsInvalid)
	}
	return nil
}

package config

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/wzqhbustb/igzbench/codec"
	berrors "github.com/wzqhbustb/igzbench/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("engine", validateEngine)
}

func validateEngine(fl validator.FieldLevel) bool {
	_, ok := codec.Lookup(fl.Field().String())
	return ok
}

// Validate checks the whole configuration and reports every violation, not
// just the first. The returned error is an errors.Join of coded errors.
func (c *BenchmarkConfig) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return berrors.Unknown("validate_config", err)
		}
		for _, fe := range verrs {
			errs = append(errs, c.fieldError(fe))
		}
	}

	if c.Mode != Stateless && c.Mode != Stateful {
		errs = append(errs, berrors.InvalidMode(c.Mode.String()))
	}
	if c.Type != Latency && c.Type != Throughput {
		errs = append(errs, berrors.InvalidBenchmarkType(c.Type.String()))
	}
	if len(errs) == 0 {
		if _, err := c.LevelBufSize(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c *BenchmarkConfig) fieldError(fe validator.FieldError) error {
	switch fe.StructField() {
	case "Level":
		return berrors.InvalidLevel(strconv.Itoa(c.Level), codec.MaxLevel, fe)
	case "WindowBits":
		return berrors.InvalidWindowSize(strconv.Itoa(c.WindowBits), codec.MinWindowBits, codec.MaxWindowBits, fe)
	case "InputSize":
		return berrors.InvalidInputSize(strconv.Itoa(c.InputSize), MaxInputSize, fe)
	case "Iterations":
		return berrors.InvalidIterations(strconv.Itoa(c.Iterations), fe)
	case "Engine":
		return berrors.InvalidEngine(c.Engine, codec.Engines())
	default:
		return berrors.New(berrors.ErrInvalidArgument).
			Op("validate_config").
			Context("field", fe.Field()).
			Context("tag", fe.Tag()).
			Wrap(fe).
			Build()
	}
}

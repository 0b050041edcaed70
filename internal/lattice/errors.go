package lattice

import (
	"errors"
	"fmt"
)

// ErrInvalidContract is the sentinel every contract validation failure wraps.
var ErrInvalidContract = errors.New("invalid contract")

// ConfigError reports which contract parameter broke which constraint.
type ConfigError struct {
	Param      string
	Value      float64
	Constraint string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s=%g %s", ErrInvalidContract, e.Param, e.Value, e.Constraint)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidContract }

// Package lattice prices American-style options by backward induction on a
// recombining Cox–Ross–Rubinstein binomial lattice and extracts the
// early-exercise boundary from the resulting optimal-stopping policy.
//
// The package is pure and synchronous: every call owns its tables and
// nothing is shared between calls.
package lattice

import (
	"fmt"
	"math"
	"strings"
)

// OptionType selects the payoff direction.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call" and "put", case-insensitive.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call":
		return Call, nil
	case "put":
		return Put, nil
	}
	return "", fmt.Errorf("%w: option type %q (want call or put)", ErrInvalidContract, s)
}

// IsCall reports whether the option pays off above the strike.
func (o OptionType) IsCall() bool { return o == Call }

// Payoff maps (time, underlying price) to the reward collected by
// exercising at that point. Implementations must return finite,
// non-negative values.
type Payoff func(t, s float64) float64

// VanillaPayoff returns max(s-K, 0) for a call and max(K-s, 0) for a put.
func VanillaPayoff(optType OptionType, strike float64) Payoff {
	if optType.IsCall() {
		return func(_ float64, s float64) float64 {
			return math.Max(s-strike, 0)
		}
	}
	return func(_ float64, s float64) float64 {
		return math.Max(strike-s, 0)
	}
}

// Contract holds the scalars of one pricing run. It is treated as
// immutable for the lifetime of that run.
type Contract struct {
	Spot   float64 // S0, > 0
	Expiry float64 // T in years, > 0
	Rate   float64 // continuously compounded risk-free rate
	Vol    float64 // sigma, > 0
	Steps  int     // N, >= 1
	Payoff Payoff
}

// Params are the per-step lattice constants derived from a Contract.
type Params struct {
	Dt       float64 // T / N
	Discount float64 // exp(-r*dt)
	Up       float64 // exp(sigma*sqrt(dt))
	UpProb   float64 // risk-neutral probability of an up move
}

// Dt is the length of one lattice step.
func (c Contract) Dt() float64 {
	return c.Expiry / float64(c.Steps)
}

// Params computes the lattice constants. The result is only meaningful for
// a contract that passes Validate.
func (c Contract) Params() Params {
	dt := c.Dt()
	up := math.Exp(c.Vol * math.Sqrt(dt))
	return Params{
		Dt:       dt,
		Discount: math.Exp(-c.Rate * dt),
		Up:       up,
		UpProb:   (math.Exp(c.Rate*dt)*up - 1) / (up*up - 1),
	}
}

// Validate checks every precondition of the lattice and returns a
// *ConfigError naming the first violated parameter.
func (c Contract) Validate() error {
	checks := []struct {
		param      string
		value      float64
		ok         bool
		constraint string
	}{
		{"spot", c.Spot, c.Spot > 0 && !math.IsInf(c.Spot, 0), "must be finite and > 0"},
		{"expiry", c.Expiry, c.Expiry > 0 && !math.IsInf(c.Expiry, 0), "must be finite and > 0"},
		{"rate", c.Rate, !math.IsNaN(c.Rate) && !math.IsInf(c.Rate, 0), "must be finite"},
		{"vol", c.Vol, c.Vol > 0 && !math.IsInf(c.Vol, 0), "must be finite and > 0"},
		{"steps", float64(c.Steps), c.Steps >= 1, "must be >= 1"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return &ConfigError{Param: chk.param, Value: chk.value, Constraint: chk.constraint}
		}
	}

	if c.Payoff == nil {
		return &ConfigError{Param: "payoff", Value: math.NaN(), Constraint: "must not be nil"}
	}

	p := c.Params().UpProb
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return &ConfigError{
			Param:      "up_prob",
			Value:      p,
			Constraint: "risk-neutral probability must lie in (0,1); increase vol or steps, or lower |rate|",
		}
	}
	return nil
}

package lattice

import (
	"github.com/contactkeval/option-lattice/internal/logger"
)

// Tables is the output of backward induction, indexed by step 0..N.
// Values[i] and Policy[i] both have i+1 entries, one per up-count.
type Tables struct {
	Values [][]float64 // fair value under the optimal policy
	Policy [][]bool    // true when exercising now is optimal
}

// Price is the value at the root node, i.e. the American option price.
func (t *Tables) Price() float64 {
	return t.Values[0][0]
}

// Steps is N, the index of the terminal row.
func (t *Tables) Steps() int {
	return len(t.Values) - 1
}

// Solve runs backward induction from expiry to time zero and returns the
// value and exercise-policy tables.
//
// The contract is validated first; an invalid contract yields a
// *ConfigError and no tables. The recursion itself cannot fail.
func Solve(c Contract) (*Tables, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	n := c.Steps
	prm := c.Params()
	p := prm.UpProb
	logger.Debugf("lattice: steps=%d dt=%.6g discount=%.10f up=%.10f p=%.10f",
		n, prm.Dt, prm.Discount, prm.Up, p)

	tables := &Tables{
		Values: make([][]float64, n+1),
		Policy: make([][]bool, n+1),
	}

	// next is the finalized row i+1; curr is the row being built.
	var next []float64
	for i := n; i >= 0; i-- {
		t := c.StepTime(i)
		curr := make([]float64, i+1)
		policy := make([]bool, i+1)

		for j := 0; j <= i; j++ {
			exercise := c.Payoff(t, c.StatePrice(i, j))
			continuation := 0.0
			if i < n {
				continuation = prm.Discount * (p*next[j+1] + (1-p)*next[j])
			}
			curr[j], policy[j] = decide(exercise, continuation)
		}

		tables.Values[i] = curr
		tables.Policy[i] = policy
		next = curr
		logger.Tracef("lattice: step %d finalized (%d nodes)", i, i+1)
	}

	return tables, nil
}

// decide picks the larger of the exercise and continuation values.
// Exercise wins ties.
func decide(exercise, continuation float64) (value float64, exercised bool) {
	if exercise >= continuation {
		return exercise, true
	}
	return continuation, false
}

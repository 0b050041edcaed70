package lattice

import "math"

// StatePrice returns the underlying price at node (i, j): step i with j
// up-moves and i-j down-moves, S0 * exp((2j-i) * sigma * sqrt(dt)).
//
// Callers must keep 0 <= j <= i <= Steps; other indices are a programming
// error and are not checked.
func (c Contract) StatePrice(i, j int) float64 {
	return c.Spot * math.Exp(float64(2*j-i)*c.Vol*math.Sqrt(c.Dt()))
}

// StepTime is the calendar time of step i.
func (c Contract) StepTime(i int) float64 {
	return float64(i) * c.Dt()
}

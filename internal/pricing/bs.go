// Package pricing holds closed-form reference prices used to sanity-check
// the lattice.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// BlackScholesPrice calculates the price of a European option using the Black-Scholes model.
//
// Parameters:
//   - isCall: true for call option, false for put option
//   - S: spot price of the underlying asset
//   - K: strike price of the option
//   - T: time to expiry in years
//   - r: risk-free interest rate (annual, continuously compounded)
//   - sigma: volatility of the underlying asset (annual, as a decimal)
//
// Returns:
//
//	The theoretical price of the option. If time to expiry or volatility is zero or negative,
//	returns the intrinsic value of the requested side.
//
// The American price of the same contract on a non-dividend asset is never below this value.
func BlackScholesPrice(
	isCall bool,
	S float64, // spot
	K float64, // strike
	T float64, // time to expiry in years
	r float64, // risk-free rate
	sigma float64, // volatility
) float64 {

	if T <= 0 || sigma <= 0 {
		return Intrinsic(isCall, S, K)
	}

	sigmaSqrtT := sigma * math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / sigmaSqrtT
	d2 := d1 - sigmaSqrtT
	deflater := math.Exp(-r * T)

	if isCall {
		return S*normCDF(d1) - K*deflater*normCDF(d2)
	}
	return K*deflater*normCDF(-d2) - S*normCDF(-d1)
}

// Intrinsic is the immediate-exercise value max(S-K, 0) or max(K-S, 0).
func Intrinsic(isCall bool, S, K float64) float64 {
	if isCall {
		return math.Max(S-K, 0)
	}
	return math.Max(K-S, 0)
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

package data

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/contactkeval/option-lattice/internal/logger"
)

// TradingDaysPerYear annualizes daily return volatility.
const TradingDaysPerYear = 252.0

// MarketInputs are the contract scalars observed from market data.
type MarketInputs struct {
	Underlying   string    `json:"underlying"`
	AsOf         time.Time `json:"as_of"`
	Spot         float64   `json:"spot"`
	RealizedVol  float64   `json:"realized_vol"`
	Observations int       `json:"observations"`
}

// ResolveMarketInputs fetches daily bars for the lookback window ending at
// asOf and derives the spot price (last close) and annualized realized
// volatility of daily log returns.
func ResolveMarketInputs(ctx context.Context, prov Provider, underlying string, asOf time.Time, lookbackDays int) (*MarketInputs, error) {
	if prov == nil {
		return nil, fmt.Errorf("resolve market inputs for %s: no data provider", underlying)
	}
	if lookbackDays <= 0 {
		return nil, fmt.Errorf("resolve market inputs for %s: lookback must be positive, got %d", underlying, lookbackDays)
	}

	from := asOf.AddDate(0, 0, -lookbackDays)
	bars, err := prov.GetBars(ctx, underlying, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("resolve market inputs for %s: %w", underlying, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("resolve market inputs for %s: %w", underlying, ErrNoBars)
	}

	closes := extractCloses(bars)
	vol, err := AnnualizedVolatility(closes)
	if err != nil {
		return nil, fmt.Errorf("resolve market inputs for %s: %w", underlying, err)
	}

	last := bars[len(bars)-1]
	in := &MarketInputs{
		Underlying:   underlying,
		AsOf:         last.Date,
		Spot:         last.Close,
		RealizedVol:  vol,
		Observations: len(closes),
	}
	logger.Infof("%s spot=%.4f realized vol=%.2f%% from %d closes via %s",
		underlying, in.Spot, in.RealizedVol*100, in.Observations, prov.Name())
	return in, nil
}

// AnnualizedVolatility is the sample standard deviation of daily log
// returns scaled by sqrt(252). At least three closes are required.
func AnnualizedVolatility(closes []float64) (float64, error) {
	if len(closes) < 3 {
		return 0, fmt.Errorf("%w: need at least 3 closes, got %d", ErrInsufficientHistory, len(closes))
	}

	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			return 0, fmt.Errorf("non-positive close at index %d", i)
		}
		rets = append(rets, math.Log(closes[i]/closes[i-1]))
	}

	return stat.StdDev(rets, nil) * math.Sqrt(TradingDaysPerYear), nil
}

func extractCloses(bars []Bar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		out = append(out, b.Close)
	}
	return out
}

package data

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/contactkeval/option-lattice/internal/logger"
)

var (
	// ErrNoBars is returned when a provider has no bars for the requested window.
	ErrNoBars = errors.New("no bars")
	// ErrInsufficientHistory is returned when too few closes exist to estimate volatility.
	ErrInsufficientHistory = errors.New("insufficient price history")
)

// Provider supplies daily market data for an underlying.
//
// A provider may carry a secondary provider that is consulted when it cannot
// serve a request itself.
type Provider interface {
	Name() string
	Secondary() Provider
	GetBars(ctx context.Context, underlying string, fromDate, toDate time.Time) ([]Bar, error)
}

// Bar simplified OHLC
type Bar struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
	Vol   float64
}

// Provider kinds accepted by NewProvider.
const (
	KindMassive   = "massive"
	KindCSV       = "csv"
	KindSynthetic = "synthetic"
)

// NewProvider builds a provider chain from a kind name. Synthetic bars are
// only ever served when kind is "synthetic" (or empty).
//
//   - massive: Massive REST API, key from MASSIVE_API_KEY (or POLYGON_API_KEY),
//     with the CSV directory as secondary when dataDir is set
//   - csv: <dataDir>/<TICKER>.csv
//   - synthetic: seeded random walk
func NewProvider(kind, dataDir string, seed int64) (Provider, error) {
	switch strings.ToLower(kind) {
	case KindMassive:
		apiKey := os.Getenv("MASSIVE_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("POLYGON_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("massive provider: MASSIVE_API_KEY is not set")
		}
		var secondary Provider
		if dataDir != "" {
			secondary = NewLocalCSVDataProvider(dataDir, nil)
		}
		return NewMassiveDataProvider(apiKey, secondary), nil
	case KindCSV:
		if dataDir == "" {
			return nil, fmt.Errorf("csv provider: data directory is required")
		}
		return NewLocalCSVDataProvider(dataDir, nil), nil
	case KindSynthetic, "":
		return NewSyntheticProvider(seed), nil
	}
	return nil, fmt.Errorf("unknown data provider %q", kind)
}

// fallback delegates to the secondary provider after a primary failure, or
// returns the primary error when there is no secondary.
func fallback(ctx context.Context, prov Provider, cause error, underlying string, fromDate, toDate time.Time) ([]Bar, error) {
	secondary := prov.Secondary()
	if secondary == nil {
		return nil, cause
	}
	logger.Warnf("%s provider failed for %s (%v), delegating to %s", prov.Name(), underlying, cause, secondary.Name())
	return secondary.GetBars(ctx, underlying, fromDate, toDate)
}

// --------------------------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------------------------

// filterBars keeps bars within [fromDate, toDate] (by calendar day) sorted by date.
func filterBars(bars []Bar, fromDate, toDate time.Time) []Bar {
	from := truncateDay(fromDate)
	to := truncateDay(toDate)

	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		d := truncateDay(b.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

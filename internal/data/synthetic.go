package data

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// synthDataProvider implements Provider generating a seeded random walk of
// weekday bars. The same seed, underlying and window always produce the
// same bars.
type synthDataProvider struct {
	seed     int64
	startPx  float64
	dailyVol float64
}

func NewSyntheticProvider(seed int64) Provider {
	return &synthDataProvider{seed: seed, startPx: 100, dailyVol: 0.25 / math.Sqrt(252)}
}

func (synthDataProv *synthDataProvider) Name() string { return KindSynthetic }

// Secondary is always nil: generated bars cover any window.
func (synthDataProv *synthDataProvider) Secondary() Provider { return nil }

func (synthDataProv *synthDataProvider) GetBars(ctx context.Context, underlying string, fromDate, toDate time.Time) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(synthDataProv.seed + tickerSalt(underlying)))
	cur := truncateDay(fromDate)
	end := truncateDay(toDate)
	price := synthDataProv.startPx

	var out []Bar
	for !cur.After(end) {
		if cur.Weekday() != time.Saturday && cur.Weekday() != time.Sunday {
			open := price
			close := open * math.Exp(rng.NormFloat64()*synthDataProv.dailyVol)
			high := math.Max(open, close) * (1 + math.Abs(rng.NormFloat64())*0.002)
			low := math.Min(open, close) * (1 - math.Abs(rng.NormFloat64())*0.002)
			out = append(out, Bar{Date: cur, Open: open, High: high, Low: low, Close: close, Vol: float64(1000 + rng.Intn(5000))})
			price = close
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return out, nil
}

// tickerSalt gives each underlying its own path for a shared seed.
func tickerSalt(underlying string) int64 {
	var h int64
	for _, r := range underlying {
		h = h*31 + int64(r)
	}
	return h
}
